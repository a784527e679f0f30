package packed

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/packed.go/pkg/varstruct"
)

// DefaultReadBufferSize is the read size used when ReadBufferSize is not set.
const DefaultReadBufferSize = 256

// ResultHandler is called for every frame received.
type ResultHandler interface {
	HandleResult(context.Context, Result)
}

// HandleResultFunc is func type of ResultHandler.
type HandleResultFunc func(context.Context, Result)

// HandleResult implements ResultHandler.
func (f HandleResultFunc) HandleResult(ctx context.Context, r Result) {
	f(ctx, r)
}

// LinkStats counts what a Link has received.
type LinkStats struct {
	Frames  uint64
	Records uint64
	Errors  uint64
}

// Link sends and receives records over a stream, e.g. a serial port.
type Link struct {
	ReadWriter     io.ReadWriter
	Pipeline       *Pipeline
	Handler        ResultHandler
	ReadBufferSize int
	ReadTimeout    bool // set to true if ReadWriter already supports timeout with Read

	writeLock sync.Mutex
	frames    uint64
	records   uint64
	errors    uint64
}

// NewLink creates a Link exchanging records of spec.
func NewLink(rw io.ReadWriter, spec varstruct.FieldSpec) *Link {
	return &Link{
		ReadWriter:     rw,
		Pipeline:       NewPipeline(spec),
		ReadBufferSize: DefaultReadBufferSize,
	}
}

// Stats returns the receiving counters.
func (l *Link) Stats() LinkStats {
	return LinkStats{
		Frames:  atomic.LoadUint64(&l.frames),
		Records: atomic.LoadUint64(&l.records),
		Errors:  atomic.LoadUint64(&l.errors),
	}
}

// Send packs and writes a record.
// Only the stateless part of the Pipeline is used, so it's safe to call
// Send while Run is running.
func (l *Link) Send(rec varstruct.Record) error {
	if err := l.check(); err != nil {
		return err
	}
	b, err := l.Pipeline.Frame(rec)
	if err != nil {
		return err
	}
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	_, err = l.ReadWriter.Write(b)
	return err
}

func (l *Link) check() error {
	if l.ReadWriter == nil {
		return ErrNotOpen
	}
	if l.Pipeline == nil {
		return ErrNoPipeline
	}
	return nil
}

// Run receives records until ctx is canceled or reading fails.
// It returns nil when the stream reaches io.EOF.
func (l *Link) Run(ctx context.Context) error {
	if err := l.check(); err != nil {
		return err
	}
	l.Pipeline.Reset()

	size := l.ReadBufferSize
	if size <= 0 {
		size = DefaultReadBufferSize
	}

	if l.ReadTimeout {
		buf := make([]byte, size)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			n, err := l.ReadWriter.Read(buf)
			if n > 0 {
				l.process(ctx, buf[:n])
			}
			if err != nil && !os.IsTimeout(err) {
				return l.readError(err)
			}
		}
	}

	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, size, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			l.process(ctx, chunk)
		case err := <-errCh:
			return l.readError(err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Link) readLoop(ctx context.Context, size int, chunkCh chan []byte, errCh chan error) {
	for {
		buf := make([]byte, size)
		n, err := l.ReadWriter.Read(buf)
		if n > 0 {
			select {
			case chunkCh <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (l *Link) readError(err error) error {
	if err == io.EOF {
		glog.Info("link closed")
		return nil
	}
	return err
}

func (l *Link) process(ctx context.Context, chunk []byte) {
	results := l.Pipeline.Process(chunk)
	if glog.V(3) {
		glog.Infof("RCV %d bytes, %d frames, %d buffered", len(chunk), len(results), l.Pipeline.Buffered())
	}
	for _, r := range results {
		atomic.AddUint64(&l.frames, 1)
		if r.Err != nil {
			atomic.AddUint64(&l.errors, 1)
			glog.V(2).Infof("bad frame: %v", r.Err)
		} else {
			atomic.AddUint64(&l.records, 1)
		}
		if h := l.Handler; h != nil {
			h.HandleResult(ctx, r)
		}
	}
}
