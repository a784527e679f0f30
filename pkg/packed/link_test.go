package packed

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/packed.go/pkg/framework"
	"github.com/robotalks/packed.go/pkg/varstruct"
)

type chanReadWriter struct {
	readCh  chan []byte
	timeout bool

	lock    sync.Mutex
	written bytes.Buffer
}

type timeoutError struct{}

func (timeoutError) Error() string { return "timeout" }
func (timeoutError) Timeout() bool { return true }

func newChanReadWriter() *chanReadWriter {
	return &chanReadWriter{readCh: make(chan []byte)}
}

func (c *chanReadWriter) Read(p []byte) (int, error) {
	if c.timeout {
		select {
		case b, ok := <-c.readCh:
			if !ok {
				return 0, io.EOF
			}
			return copy(p, b), nil
		case <-time.After(10 * time.Millisecond):
			return 0, timeoutError{}
		}
	}
	b, ok := <-c.readCh
	if !ok {
		return 0, io.EOF
	}
	return copy(p, b), nil
}

func (c *chanReadWriter) Write(p []byte) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.written.Write(p)
}

func (c *chanReadWriter) bytes() []byte {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]byte(nil), c.written.Bytes()...)
}

type linkTestEnv struct {
	t        *testing.T
	rw       *chanReadWriter
	link     *Link
	resultCh chan Result
	errCh    chan error
	cancel   func()
}

func newLinkTestEnv(t *testing.T, timeout bool) *linkTestEnv {
	env := &linkTestEnv{
		t:        t,
		rw:       newChanReadWriter(),
		resultCh: make(chan Result, 16),
		errCh:    make(chan error, 1),
	}
	env.rw.timeout = timeout
	env.link = NewLink(env.rw, stringPair)
	env.link.ReadTimeout = timeout
	env.link.Handler = HandleResultFunc(func(ctx context.Context, r Result) {
		env.resultCh <- r
	})
	return env
}

func (e *linkTestEnv) run() *linkTestEnv {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go func() {
		e.errCh <- e.link.Run(ctx)
	}()
	return e
}

func (e *linkTestEnv) inject(chunks ...[]byte) *linkTestEnv {
	for _, chunk := range chunks {
		e.rw.readCh <- chunk
	}
	return e
}

func (e *linkTestEnv) expectRecord(values ...string) *linkTestEnv {
	select {
	case r := <-e.resultCh:
		require.NoError(e.t, r.Err)
		rec := make(varstruct.Record, len(values))
		for n, v := range values {
			rec[n] = []byte(v)
		}
		require.Equal(e.t, rec, r.Record)
	case <-time.After(time.Second):
		e.t.Fatal("expect record timeout")
	}
	return e
}

func (e *linkTestEnv) expectError(stage Stage) *linkTestEnv {
	select {
	case r := <-e.resultCh:
		var pe *PipelineError
		require.ErrorAs(e.t, r.Err, &pe)
		require.Equal(e.t, stage, pe.Stage)
	case <-time.After(time.Second):
		e.t.Fatal("expect error timeout")
	}
	return e
}

func (e *linkTestEnv) closeAndWait() error {
	close(e.rw.readCh)
	select {
	case err := <-e.errCh:
		return err
	case <-time.After(time.Second):
		e.t.Fatal("link not stopped")
	}
	return nil
}

func TestLinkReceive(t *testing.T) {
	for _, timeout := range []bool{false, true} {
		name := "blocking"
		if timeout {
			name = "read timeout"
		}
		t.Run(name, func(t *testing.T) {
			env := newLinkTestEnv(t, timeout).run()
			env.inject([]byte{8, 2, 'h', 'i'}, []byte{3, 'b', 'y', 'e', 0, 0}).
				expectRecord("hi", "bye").
				expectError(StageUnpack).
				inject([]byte{5, 1, 0, 3, 1, 'a', 1, 0}).
				expectError(StageDecode).
				expectRecord("a", "")
			require.NoError(t, env.closeAndWait())
			require.Equal(t, LinkStats{Frames: 4, Records: 2, Errors: 2}, env.link.Stats())
		})
	}
}

func TestLinkCancel(t *testing.T) {
	env := newLinkTestEnv(t, false).run()
	env.inject(hiBye).expectRecord("hi", "bye")
	env.cancel()
	select {
	case err := <-env.errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("link not stopped")
	}
}

func TestLinkSend(t *testing.T) {
	env := newLinkTestEnv(t, false)
	require.NoError(t, env.link.Send(varstruct.Record{"hi", "bye"}))
	require.NoError(t, env.link.Send(varstruct.Record{"", ""}))
	require.Equal(t, append(append([]byte{}, hiBye...), 1, 1, 1, 0), env.rw.bytes())

	require.ErrorIs(t, env.link.Send(varstruct.Record{"hi"}), varstruct.ErrFieldCount)
}

func TestLinkNotOpen(t *testing.T) {
	var link Link
	require.Equal(t, ErrNotOpen, link.Run(context.Background()))
	require.Equal(t, ErrNotOpen, link.Send(varstruct.Record{}))
}

func TestLinkNoPipeline(t *testing.T) {
	link := &Link{ReadWriter: newChanReadWriter()}
	require.Equal(t, ErrNoPipeline, link.Run(context.Background()))
	require.Equal(t, ErrNoPipeline, link.Send(varstruct.Record{}))
}

func TestLinkClosedOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	link := NewLink(struct {
		io.Reader
		io.Writer
	}{pr, io.Discard}, stringPair)
	recCh := make(chan Result, 1)
	link.Handler = HandleResultFunc(func(ctx context.Context, r Result) {
		recCh <- r
	})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- fx.RunWithContextCloser(ctx, pr, func() error {
			return link.Run(ctx)
		})
	}()

	_, err := pw.Write(hiBye)
	require.NoError(t, err)
	select {
	case r := <-recCh:
		require.NoError(t, r.Err)
	case <-time.After(time.Second):
		t.Fatal("record not received")
	}

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("link not stopped")
	}
	_, err = pw.Write([]byte{0})
	require.ErrorIs(t, err, io.ErrClosedPipe)
}
