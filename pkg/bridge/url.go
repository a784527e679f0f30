package bridge

import (
	"fmt"
	"net"
	"net/url"

	"github.com/robotalks/packed.go/pkg/bridge/mqtt"
	"github.com/robotalks/packed.go/pkg/config"
)

// NewWriterFromURL creates the packet sink conf.URL points to.
// It returns nil, nil when forwarding is disabled.
func NewWriterFromURL(conf config.ForwardConfig) (PacketWriteCloser, error) {
	if conf.URL == "" {
		return nil, nil
	}
	u, err := url.Parse(conf.URL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "mqtt", "mqtts":
		pub, err := mqtt.NewPublisherFromURL(conf.URL, conf.Topic, conf.ClientID)
		if err != nil {
			return nil, err
		}
		if err := pub.Connect(); err != nil {
			return nil, fmt.Errorf("mqtt %s: %w", u.Host, err)
		}
		return pub, nil
	case "ws", "wss":
		ws, err := DialWebsocket(conf.URL)
		if err != nil {
			return nil, err
		}
		return ws, nil
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewStreamWriter(conn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
