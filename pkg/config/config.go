// Package config provides the options of a packed link.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/packed.go/pkg/varstruct"
)

// Config is the configuration of a link and where to forward its records.
type Config struct {
	// Port is the serial device, e.g. /dev/ttyACM0.
	Port string `yaml:"port" toml:"port"`
	Baud int    `yaml:"baud" toml:"baud"`
	// Format is the netstruct style layout of records.
	Format string `yaml:"format" toml:"format"`
	// Strict rejects records with trailing bytes.
	Strict bool `yaml:"strict" toml:"strict"`
	// MaxFrameSize limits encoded frames, 0 is unbounded.
	MaxFrameSize   int `yaml:"max_frame_size" toml:"max_frame_size"`
	ReadBufferSize int `yaml:"read_buffer_size" toml:"read_buffer_size"`

	Forward ForwardConfig `yaml:"forward" toml:"forward"`
}

// ForwardConfig specifies where decoded records are published.
type ForwardConfig struct {
	// URL is one of
	//   mqtt://host:port/topic-prefix
	//   ws://host:port/path
	//   tcp://host:port
	// Empty disables forwarding.
	URL      string `yaml:"url" toml:"url"`
	Topic    string `yaml:"topic" toml:"topic"`
	ClientID string `yaml:"client_id" toml:"client_id"`
	// Encoding of forwarded records: proto (default), msgpack or cbor.
	Encoding string `yaml:"encoding" toml:"encoding"`
}

var defaultConfig = Config{
	Port:           "/dev/ttyACM0",
	Baud:           115200,
	Format:         "b$b$",
	ReadBufferSize: 256,
	Forward: ForwardConfig{
		Topic: "records",
	},
}

func init() {
	if val := os.Getenv("PACKED_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("PACKED_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.Baud = baud
		}
	}
	if val := os.Getenv("PACKED_FORMAT"); val != "" {
		defaultConfig.Format = val
	}
	if val := os.Getenv("PACKED_FORWARD_URL"); val != "" {
		defaultConfig.Forward.URL = val
	}
}

// SetupFlags sets up command line flags on fs, flag.CommandLine if nil.
func SetupFlags(fs *flag.FlagSet) {
	if fs == nil {
		fs = flag.CommandLine
	}
	fs.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port device.")
	fs.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial port baud rate.")
	fs.StringVar(&defaultConfig.Format, "format", defaultConfig.Format, "Record format, e.g. b$b$.")
	fs.BoolVar(&defaultConfig.Strict, "strict", defaultConfig.Strict, "Reject records with trailing bytes.")
	fs.IntVar(&defaultConfig.MaxFrameSize, "max-frame", defaultConfig.MaxFrameSize, "Max encoded frame size, 0 for unbounded.")
	fs.StringVar(&defaultConfig.Forward.URL, "forward", defaultConfig.Forward.URL, "Forward records to URL (mqtt://, ws://, tcp://).")
	fs.StringVar(&defaultConfig.Forward.Topic, "topic", defaultConfig.Forward.Topic, "MQTT topic for forwarded records.")
	fs.StringVar(&defaultConfig.Forward.Encoding, "encoding", defaultConfig.Forward.Encoding, "Encoding of forwarded records: proto, msgpack, cbor.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load reads a YAML file, or TOML if path ends with .toml, on top of the
// default config.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	conf := NewConfig()
	if filepath.Ext(path) == ".toml" {
		err = toml.Unmarshal(b, conf)
	} else {
		err = yaml.Unmarshal(b, conf)
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return conf, nil
}

// Validate checks the config is usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud %d", c.Baud)
	}
	if c.MaxFrameSize < 0 {
		return fmt.Errorf("invalid max_frame_size %d", c.MaxFrameSize)
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = defaultConfig.ReadBufferSize
	}
	_, err := c.FieldSpec()
	return err
}

// FieldSpec parses Format.
func (c *Config) FieldSpec() (varstruct.FieldSpec, error) {
	spec, err := varstruct.ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}
	if len(spec) == 0 {
		return nil, fmt.Errorf("format is empty")
	}
	return spec, nil
}
