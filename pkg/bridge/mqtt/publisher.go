// Package mqtt publishes forwarded records to an MQTT broker.
package mqtt

import (
	"net/url"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// DefaultConnectTimeout is used by Connect when ConnectTimeout is not set.
const DefaultConnectTimeout = 10 * time.Second

// Publisher publishes packets to a single topic.
type Publisher struct {
	Client         paho.Client
	TopicPrefix    string
	Topic          string
	QoS            byte
	ConnectTimeout time.Duration
}

// DefaultClientID derives a stable client id from the machine id.
func DefaultClientID() string {
	id, err := machineid.ProtectedID("packed")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return ""
	}
	if len(id) > 16 {
		id = id[:16]
	}
	return "packed-" + id
}

// ClientOptionsFromURL creates ClientOptions from URL.
// The URL path is the topic prefix, the client-id query parameter
// overrides clientID.
func ClientOptionsFromURL(serverURL, clientID string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if id := u.Query().Get("client-id"); id != "" {
		clientID = id
	}
	if clientID == "" {
		clientID = DefaultClientID()
	}
	opts.SetClientID(clientID)
	return opts, topicPrefix, nil
}

// NewPublisher creates a Publisher.
func NewPublisher(options *paho.ClientOptions, topicPrefix, topic string) *Publisher {
	p := &Publisher{TopicPrefix: topicPrefix, Topic: topic}
	options.SetOnConnectHandler(p.onConnect)
	options.SetConnectionLostHandler(p.onConnectionLost)
	p.Client = paho.NewClient(options)
	return p
}

// NewPublisherFromURL creates a Publisher from URL.
func NewPublisherFromURL(brokerURL, topic, clientID string) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL, clientID)
	if err != nil {
		return nil, err
	}
	return NewPublisher(opts, topicPrefix, topic), nil
}

// FullTopic returns the topic packets are published to.
func (p *Publisher) FullTopic() string {
	return p.TopicPrefix + p.Topic
}

// Connect connects to the broker and waits for the result.
func (p *Publisher) Connect() error {
	timeout := p.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	token := p.Client.Connect()
	if !token.WaitTimeout(timeout) {
		return ErrConnectTimeout
	}
	return token.Error()
}

// WritePacket publishes pkt.
func (p *Publisher) WritePacket(pkt []byte) error {
	glog.V(2).Infof("PUB %q %d bytes", p.FullTopic(), len(pkt))
	token := p.Client.Publish(p.FullTopic(), p.QoS, false, pkt)
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	p.Client.Disconnect(250)
	return nil
}

func (p *Publisher) onConnect(paho.Client) {
	glog.Infof("connected, publishing to %q", p.FullTopic())
}

func (p *Publisher) onConnectionLost(c paho.Client, err error) {
	glog.Warningf("connection lost: %v", err)
}
