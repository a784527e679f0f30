package main

import (
	"context"
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/packed.go/pkg/bridge"
	"github.com/robotalks/packed.go/pkg/config"
	fx "github.com/robotalks/packed.go/pkg/framework"
	"github.com/robotalks/packed.go/pkg/packed"
	"github.com/robotalks/packed.go/pkg/serial"
)

var (
	configFile    string
	statsInterval = time.Minute
)

func init() {
	config.SetupFlags(nil)
	flag.StringVar(&configFile, "config", configFile, "YAML config file, overrides flags.")
	flag.DurationVar(&statsInterval, "stats", statsInterval, "Interval to log link stats, 0 to disable.")
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	conf := config.Default()
	return conf, conf.Validate()
}

func logStats(link *packed.Link, fwd *bridge.Forwarder) fx.Runnable {
	return fx.RunFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			stats := link.Stats()
			if fwd != nil {
				glog.Infof("frames %d records %d errors %d forwarded %d",
					stats.Frames, stats.Records, stats.Errors, fwd.Forwarded())
			} else {
				glog.Infof("frames %d records %d errors %d",
					stats.Frames, stats.Records, stats.Errors)
			}
		}
	})
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := loadConfig()
	if err != nil {
		glog.Exit(err)
	}
	spec, err := conf.FieldSpec()
	if err != nil {
		glog.Exit(err)
	}

	port, err := serial.Open(conf.Port, conf.Baud)
	if err != nil {
		glog.Exitf("open %s: %v", conf.Port, err)
	}
	defer port.Close()
	glog.Infof("opened %s at %d, format %s", conf.Port, conf.Baud, spec)

	var fwd *bridge.Forwarder
	enc, err := bridge.EncodingByName(conf.Forward.Encoding)
	if err != nil {
		glog.Exit(err)
	}
	w, err := bridge.NewWriterFromURL(conf.Forward)
	if err != nil {
		glog.Exitf("forward %s: %v", conf.Forward.URL, err)
	}
	if w != nil {
		defer w.Close()
		fwd = bridge.NewForwarder(w).WithEncoding(enc)
		glog.Infof("forwarding to %s in %s", conf.Forward.URL, enc.Name())
	}

	link := packed.NewLink(port, spec)
	link.Pipeline.WithStrict(conf.Strict).WithMaxFrameSize(conf.MaxFrameSize)
	link.ReadBufferSize = conf.ReadBufferSize
	link.Handler = packed.HandleResultFunc(func(ctx context.Context, r packed.Result) {
		if r.Err != nil {
			glog.Warningf("bad frame: %v", r.Err)
		} else {
			glog.Infof("record: %s", r.Record)
		}
		if fwd != nil {
			fwd.HandleResult(ctx, r)
		}
	})

	runner := fx.NewRunner(context.Background()).HandleSignals()
	// closing the port unblocks the pending read of the link
	runner.Go(fx.NamedRun("link", fx.RunFunc(func(ctx context.Context) error {
		return fx.RunWithContextCloser(ctx, port, func() error {
			return link.Run(ctx)
		})
	})))
	if statsInterval > 0 {
		runner.Go(fx.NamedRun("stats", logStats(link, fwd)))
	}
	err = runner.Wait()
	if err != nil {
		glog.Error(err)
	}
}
