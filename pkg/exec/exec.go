package exec

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/pressup/pressup/pkg/util"
	"golang.org/x/sync/errgroup"
)

// Exec defines execution on host environment
type Exec struct {
	logger  util.Logger
	context context.Context
	output  *bytes.Buffer
}

// Opts execution options
type Opts struct {
	Wd  string
	Env []string
}

// NewExec initializes new host executor
func NewExec(context context.Context, logger util.Logger) Exec {
	return Exec{logger: logger, context: context}
}

// NewExecWithOutput initializes new host executor capturing output into the provided buffer
func NewExecWithOutput(context context.Context, logger util.Logger, output *bytes.Buffer) Exec {
	res := NewExec(context, logger)
	res.output = output
	return res
}

// Lookup returns path to command
func Lookup(command string) (string, error) {
	return exec.LookPath(command)
}

// ExecCommandAndLog executes command and streams its output into the provided logger
func (e *Exec) ExecCommandAndLog(subject string, cmd string, opts Opts) error {
	e.logger.Debugf("Executing %q", cmd)
	run := e.prepareCommand(cmd, opts)
	var eg errgroup.Group

	pipe := util.NewPipeLogger()
	if e.output == nil {
		e.output = &bytes.Buffer{}
	}

	eg.Go(util.ReaderToLogFunc(pipe.Reader(), false, "", e.logger, subject))
	eg.Go(util.ReaderToLogFunc(pipe.ErrReader(), true, "ERR: ", e.logger, subject))
	captReader, captStdout := io.Pipe()
	eg.Go(util.ReaderToBufFunc(captReader, e.output))

	stdout := util.MultiWriteCloser(pipe.Writer(), captStdout)
	stderr := util.MultiWriteCloser(pipe.ErrWriter(), captStdout)

	run.Stdout = stdout
	run.Stderr = stderr
	runErr := run.Run()
	if err := stdout.Close(); err != nil {
		return err
	}
	if err := pipe.ErrWriter().Close(); err != nil {
		return err
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return runErr
}

// ExecCommand executes command and returns combined output
func (e *Exec) ExecCommand(cmd string, opts Opts) (string, error) {
	e.logger.Debugf("Executing '%s'", cmd)
	run := e.prepareCommand(cmd, opts)
	res, err := run.CombinedOutput()
	return string(res), err
}

// Output returns everything captured from the last logged execution
func (e *Exec) Output() string {
	if e.output == nil {
		return ""
	}
	return e.output.String()
}

func (e *Exec) prepareCommand(cmd string, opts Opts) *exec.Cmd {
	run := exec.CommandContext(e.context, "sh", "-c", cmd)
	if len(opts.Env) > 0 {
		run.Env = os.Environ()
		for _, env := range opts.Env {
			run.Env = append(run.Env, env)
		}
	}
	if opts.Wd != "" {
		run.Dir = opts.Wd
	}
	return run
}
