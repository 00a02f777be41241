// Package executor runs local tools (vboxmanage, tar, rpm signing, xdg-open)
// and reports what they did without judging it: the callers know which
// exit codes and outputs of their tool mean success.
package executor

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	gocmd "github.com/go-cmd/cmd"
	"go.uber.org/zap"
)

type Output struct {
	Status int
	Stdout []string
	Stderr []string
}

func (o Output) Success() bool {
	return o.Status == 0
}

func (o Output) StdoutString() string {
	return strings.Join(o.Stdout, "\n")
}

func (o Output) StderrString() string {
	return strings.Join(o.Stderr, "\n")
}

// AsError turns a failed Output into an ExternalToolError; nil on success.
func (o Output) AsError(tool string) error {
	if o.Success() {
		return nil
	}
	return &breverrors.ExternalToolError{Tool: tool, Status: o.Status, Stderr: o.StderrString()}
}

// Runner is what the rest of the module depends on.
type Runner interface {
	Run(ctx context.Context, program string) (Output, error)
	RunWithArgs(ctx context.Context, program string, args ...string) (Output, error)
	RunWithArgsProgress(ctx context.Context, program string, args []string, onCount func(int)) (Output, error)
	SpawnDetached(program string, args []string, grace time.Duration) error
}

// checkpoint lines as produced by `tar --checkpoint-action=echo=#%u`
var checkpointMarker = regexp.MustCompile(`^#(\d+)\b`)

type Executor struct {
	log      *zap.Logger
	lookPath func(string) (string, error)
}

var _ Runner = &Executor{}

func New(log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{log: log, lookPath: exec.LookPath}
}

func (e *Executor) Run(ctx context.Context, program string) (Output, error) {
	return e.run(ctx, program, nil, nil)
}

func (e *Executor) RunWithArgs(ctx context.Context, program string, args ...string) (Output, error) {
	return e.run(ctx, program, args, nil)
}

// RunWithArgsProgress reports every checkpoint marker found on stdout through onCount.
func (e *Executor) RunWithArgsProgress(ctx context.Context, program string, args []string, onCount func(int)) (Output, error) {
	return e.run(ctx, program, args, onCount)
}

func (e *Executor) resolve(program string) (string, error) {
	path, err := e.lookPath(program)
	if err != nil {
		return "", &breverrors.ExternalToolError{Tool: program, NotFound: true}
	}
	return path, nil
}

func (e *Executor) run(ctx context.Context, program string, args []string, onCount func(int)) (Output, error) {
	path, err := e.resolve(program)
	if err != nil {
		return Output{}, breverrors.WrapAndTrace(err)
	}

	streaming := onCount != nil
	c := gocmd.NewCmdOptions(gocmd.Options{Buffered: !streaming, Streaming: streaming}, path, args...)
	e.log.Debug("exec", zap.String("program", path), zap.Strings("args", args))

	statusChan := c.Start()

	var stdout, stderr []string
	streamDone := make(chan struct{})
	if streaming {
		go func() {
			defer close(streamDone)
			outCh, errCh := c.Stdout, c.Stderr
			for outCh != nil || errCh != nil {
				select {
				case line, open := <-outCh:
					if !open {
						outCh = nil
						continue
					}
					stdout = append(stdout, line)
					if m := checkpointMarker.FindStringSubmatch(line); m != nil {
						if n, convErr := strconv.Atoi(m[1]); convErr == nil {
							onCount(n)
						}
					}
				case line, open := <-errCh:
					if !open {
						errCh = nil
						continue
					}
					stderr = append(stderr, line)
				}
			}
		}()
	} else {
		close(streamDone)
	}

	var status gocmd.Status
	select {
	case status = <-statusChan:
	case <-ctx.Done():
		_ = c.Stop()
		<-statusChan
		<-streamDone
		return Output{}, breverrors.WrapAndTrace(ctx.Err())
	}
	<-streamDone

	if status.Error != nil && !isExitError(status.Error) {
		return Output{}, breverrors.WrapAndTrace(status.Error, program)
	}
	if !streaming {
		stdout, stderr = status.Stdout, status.Stderr
	}
	return Output{Status: status.Exit, Stdout: stdout, Stderr: stderr}, nil
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return breverrors.As(err, &exitErr)
}

// SpawnDetached starts program in its own session and returns once grace
// has passed. A program that already failed by then is reported.
func (e *Executor) SpawnDetached(program string, args []string, grace time.Duration) error {
	path, err := e.resolve(program)
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	cmd := exec.Command(path, args...) // #nosec G204
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return breverrors.WrapAndTrace(err, program)
	}
	e.log.Debug("spawned", zap.String("program", path), zap.Int("pid", cmd.Process.Pid))

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case err := <-exited:
		if err != nil {
			status := -1
			if cmd.ProcessState != nil {
				status = cmd.ProcessState.ExitCode()
			}
			return &breverrors.ExternalToolError{Tool: program, Status: status, Stderr: err.Error()}
		}
		return nil
	case <-time.After(grace):
		return nil
	}
}
