package framework

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// Runner runs Runnables until all of them stop.
// The first Runnable to stop cancels the rest.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	count  int
	errCh  chan error
	exitCh chan struct{}
}

// NewRunner creates a Runner derived from ctx.
func NewRunner(ctx context.Context) *Runner {
	r := &Runner{
		errCh:  make(chan error),
		exitCh: make(chan struct{}),
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	return r
}

// Context returns the context passed to Runnables.
func (r *Runner) Context() context.Context {
	return r.ctx
}

// HandleSignals stops the Runner on CtrlC or SIGTERM.
// A second signal makes Wait return immediately.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested")
		r.cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Stop cancels all Runnables.
func (r *Runner) Stop() {
	r.cancel()
}

// Go spawns Runnables.
func (r *Runner) Go(runners ...Runnable) *Runner {
	for _, runner := range runners {
		name := strconv.Itoa(r.count)
		if named, ok := runner.(Named); ok {
			name = named.Name()
		}
		r.count++
		go func(runner Runnable, name string) {
			glog.V(4).Infof("Runner[%s] started", name)
			err := runner.Run(r.ctx)
			glog.V(4).Infof("Runner[%s] stopped: %v", name, err)
			r.cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				err = &RunnerError{Name: name, Err: err}
			} else {
				err = nil
			}
			r.errCh <- err
		}(runner, name)
	}
	return r
}

// Wait waits until all Runnables stop and aggregates errors.
func (r *Runner) Wait() error {
	defer r.cancel()
	var errs AggregatedError
	for n := 0; n < r.count; n++ {
		select {
		case <-r.exitCh:
			return ErrForcedExit
		case err := <-r.errCh:
			errs.Add(err)
		}
	}
	return errs.Aggregate()
}

// RunWithContextCloser runs fn which doesn't accept a context.
// closer is closed when ctx is canceled to unblock fn, or after fn returns.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		closer.Close()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		closer.Close()
		return err
	}
}
