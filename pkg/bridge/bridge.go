// Package bridge forwards records received on a link to packet sinks.
package bridge

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/packed.go/pkg/packed"
)

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketWriteCloser is a PacketWriter which must be closed.
type PacketWriteCloser interface {
	PacketWriter
	io.Closer
}

// Forwarder implements packed.ResultHandler and writes every received
// record to Writer. Failed frames are logged and dropped.
type Forwarder struct {
	Writer PacketWriter
	// Encoding defaults to protobuf when nil.
	Encoding Encoding

	forwarded uint64
	dropped   uint64
}

// NewForwarder creates a Forwarder.
func NewForwarder(w PacketWriter) *Forwarder {
	return &Forwarder{Writer: w}
}

// WithEncoding sets Encoding.
func (f *Forwarder) WithEncoding(enc Encoding) *Forwarder {
	f.Encoding = enc
	return f
}

// HandleResult implements packed.ResultHandler.
func (f *Forwarder) HandleResult(ctx context.Context, r packed.Result) {
	if r.Err != nil {
		atomic.AddUint64(&f.dropped, 1)
		glog.Warningf("drop frame: %v", r.Err)
		return
	}
	enc := f.Encoding
	if enc == nil {
		enc = protoEncoding{}
	}
	pkt, err := enc.Encode(r.Record)
	if err == nil {
		err = f.Writer.WritePacket(pkt)
	}
	if err != nil {
		atomic.AddUint64(&f.dropped, 1)
		glog.Errorf("forward error: %v", err)
		return
	}
	atomic.AddUint64(&f.forwarded, 1)
}

// Forwarded returns the number of records written.
func (f *Forwarder) Forwarded() uint64 {
	return atomic.LoadUint64(&f.forwarded)
}

// Dropped returns the number of frames not written.
func (f *Forwarder) Dropped() uint64 {
	return atomic.LoadUint64(&f.dropped)
}

// StreamWriter is a packet sink over a stream.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type StreamWriter struct {
	io.Writer

	lock sync.Mutex
}

// NewStreamWriter wraps w.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{Writer: w}
}

// WritePacket implements PacketWriter.
func (p *StreamWriter) WritePacket(pkt []byte) error {
	b := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(b, uint32(len(pkt)))
	copy(b[4:], pkt)
	p.lock.Lock()
	defer p.lock.Unlock()
	_, err := p.Writer.Write(b)
	return err
}

// Close closes the underlying stream if it's an io.Closer.
func (p *StreamWriter) Close() error {
	if closer, ok := p.Writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// WebsocketWriter sends each packet as a binary websocket message.
type WebsocketWriter websocket.Conn

// NewWebsocketWriter wraps websocket.Conn.
func NewWebsocketWriter(conn *websocket.Conn) *WebsocketWriter {
	return (*WebsocketWriter)(conn)
}

// DialWebsocket connects to a websocket server.
func DialWebsocket(url string) (*WebsocketWriter, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return NewWebsocketWriter(conn), nil
}

// WritePacket implements PacketWriter.
func (p *WebsocketWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *WebsocketWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}
