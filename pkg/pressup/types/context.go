package types

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/pressup/pressup/pkg/util"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DeployCtx carries everything one pipeline run needs: the logger, the Go
// context with its cancel function and the fan-out machinery for the
// concurrent stages. No component reads ambient process state directly.
type DeployCtx struct {
	version string
	logger  util.Logger

	Verbose         bool
	PrintTimestamps bool
	ParallelCount   int

	parallelEg  *errgroup.Group
	parallelSem *semaphore.Weighted
	context     context.Context
	cancelFunc  context.CancelFunc
	cancelled   *atomic.Bool
}

// NewDeployContext initializes a deploy context, inheriting the fan-out
// machinery of the parent when one is given.
func NewDeployContext(ctx *DeployCtx, logger util.Logger) *DeployCtx {
	var goCtx context.Context
	var parallelEg *errgroup.Group
	var cancelFunc context.CancelFunc
	var cancelled *atomic.Bool
	if ctx != nil && ctx.parallelEg != nil && ctx.cancelFunc != nil && ctx.context != nil {
		goCtx = ctx.context
		parallelEg = ctx.parallelEg
		cancelFunc = ctx.cancelFunc
		cancelled = ctx.cancelled
	} else {
		// a plain group, not errgroup.WithContext: jobs record their own
		// failures and the join aggregates them, so the first failure must
		// not cancel the siblings
		parallelEg = &errgroup.Group{}
		goCtx, cancelFunc = context.WithCancel(context.Background())
		cancelled = atomic.NewBool(false)
	}
	res := &DeployCtx{
		logger:      logger,
		parallelEg:  parallelEg,
		context:     goCtx,
		cancelFunc:  cancelFunc,
		cancelled:   cancelled,
	}
	if ctx != nil {
		res.version = ctx.version
		res.Verbose = ctx.Verbose
		res.PrintTimestamps = ctx.PrintTimestamps
		res.ParallelCount = ctx.ParallelCount
	}
	if res.ParallelCount > 0 {
		res.parallelSem = semaphore.NewWeighted(int64(res.ParallelCount))
	}
	return res
}

func (ctx *DeployCtx) Logger() util.Logger {
	if ctx.logger == nil {
		logger := util.NewStdoutLogger(os.Stdout, os.Stderr)
		if ctx.Verbose {
			return logger.Debug()
		}
		return logger
	}
	return ctx.logger
}

func (ctx *DeployCtx) SetVersion(version string) {
	ctx.version = version
}

func (ctx *DeployCtx) Version() string {
	return ctx.version
}

func (ctx *DeployCtx) GoContext() context.Context {
	if ctx.context != nil {
		return ctx.context
	}
	return context.Background()
}

// CancelOnSignal calls Cancel when interruption signal is caught
func (ctx *DeployCtx) CancelOnSignal() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM)
	signal.Notify(signalCh, syscall.SIGINT)
	go func() {
		sig := <-signalCh
		ctx.Logger().Debugf("caught signal: %+v", sig)
		ctx.Cancel("signal %+v", sig)
	}()
}

// IsCancelled returns true if the run was cancelled
func (ctx *DeployCtx) IsCancelled() bool {
	return ctx.cancelled.Load()
}

// Cancel interrupts the run; in-flight tasks count as failed at their join
func (ctx *DeployCtx) Cancel(fmtReason string, args ...interface{}) {
	ctx.cancelled.Store(true)
	ctx.Logger().Logf(color.YellowString("WARN: interrupting deployment due to: "+fmtReason), args...)
	ctx.cancelFunc()
}

// StartParallel spawns a job into the run's fan-out group,
// respecting the ParallelCount limit
func (ctx *DeployCtx) StartParallel(callback func() error) {
	ctx.parallelEg.Go(func() error {
		if ctx.parallelSem != nil {
			if err := ctx.parallelSem.Acquire(ctx.GoContext(), 1); err != nil {
				return err
			}
			defer util.ReleaseSemaphore(ctx.parallelSem, 1)()
		}
		if ctx.IsCancelled() {
			return errors.Errorf("context was cancelled")
		}
		return callback()
	})
}

// WaitParallel waits until every spawned job finishes
func (ctx *DeployCtx) WaitParallel() error {
	return ctx.parallelEg.Wait()
}
