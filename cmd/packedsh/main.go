package main

import (
	"flag"
	"log"

	"github.com/robotalks/packed.go/pkg/cli/sh"
	"github.com/robotalks/packed.go/pkg/config"
)

func init() {
	config.SetupFlags(nil)
}

func main() {
	flag.Parse()
	conf := config.Default()
	session, err := sh.NewSession(conf.Format)
	if err != nil {
		log.Fatalln(err)
	}
	session.Pipeline.WithStrict(conf.Strict).WithMaxFrameSize(conf.MaxFrameSize)
	sh.New(session).Run(flag.Args()...)
}
