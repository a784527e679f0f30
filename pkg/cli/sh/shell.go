// Package sh provides an interactive shell for encoding and decoding records.
package sh

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/abiosoft/ishell"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	*Session

	Interactive bool
	Shell       *ishell.Shell
}

const (
	shellKey = "$shell"
)

var (
	// flags

	evalOnly bool

	// commands
	commands = []*ishell.Cmd{
		&FormatCmd,
		&StrictCmd,
		&EncodeCmd,
		&DecodeCmd,
		&PackCmd,
		&FeedCmd,
		&ResetCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// New creates a new shell.
func New(session *Session) *Shell {
	s := &Shell{
		Session:     session,
		Interactive: !evalOnly,
		Shell:       ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.updatePrompt()
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

func (s *Shell) updatePrompt() {
	prompt := "[" + s.Format
	if s.Pipeline.Strict {
		prompt += " strict"
	}
	s.Shell.SetPrompt(prompt + "] > ")
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func printResult(c *ishell.Context, out string, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(out)
}

var (
	// FormatCmd shows or changes the record format.
	FormatCmd = ishell.Cmd{
		Name:    "format",
		Aliases: []string{"f"},
		Help:    "[FORMAT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) == 0 {
				c.Printf("%s (%s)\n", s.Format, s.Pipeline.Spec)
				return
			}
			if err := s.SetFormat(strings.Join(c.Args, "")); err != nil {
				c.Err(err)
				return
			}
			s.updatePrompt()
		},
	}

	// StrictCmd toggles rejecting trailing bytes.
	StrictCmd = ishell.Cmd{
		Name: "strict",
		Help: "[on|off]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				switch c.Args[0] {
				case "on", "true", "1":
					s.Pipeline.Strict = true
				case "off", "false", "0":
					s.Pipeline.Strict = false
				default:
					c.Err(fmt.Errorf("invalid argument %q", c.Args[0]))
					return
				}
				s.updatePrompt()
			}
			c.Println(s.Pipeline.Strict)
		},
	}

	// EncodeCmd stuffs a hex payload into a frame.
	EncodeCmd = ishell.Cmd{
		Name:    "encode",
		Aliases: []string{"enc"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			out, err := ShellFrom(c).Encode(c.Args...)
			printResult(c, out, err)
		},
	}

	// DecodeCmd decodes a hex frame into a record.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"dec"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			out, err := ShellFrom(c).Decode(c.Args...)
			printResult(c, out, err)
		},
	}

	// PackCmd frames a record from values.
	PackCmd = ishell.Cmd{
		Name:    "pack",
		Aliases: []string{"p"},
		Help:    "VALUE...",
		Func: func(c *ishell.Context) {
			out, err := ShellFrom(c).Pack(c.Args...)
			printResult(c, out, err)
		},
	}

	// FeedCmd pushes raw bytes as if received from the wire.
	FeedCmd = ishell.Cmd{
		Name: "feed",
		Help: "HEX...",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			lines, err := s.Feed(c.Args...)
			if err != nil {
				c.Err(err)
				return
			}
			for _, line := range lines {
				c.Println(line)
			}
			if n := s.Pipeline.Buffered(); n > 0 {
				c.Printf("(%d bytes buffered)\n", n)
			}
		},
	}

	// ResetCmd drops buffered bytes.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Pipeline.Reset()
		},
	}
)
