// Package tasks runs the long-lived parts of service mode: the transports
// that run once for the life of the process and the scheduled housekeeping
// around them.
package tasks

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/files"
	cron "github.com/robfig/cron/v3"
	"github.com/sevlyar/go-daemon"
	log "github.com/sirupsen/logrus"
)

// daemonReborn is swapped in tests.
var daemonReborn = func(c *daemon.Context) (*os.Process, error) { return c.Reborn() }

// RunTaskAsDaemon detaches the process and runs tasks in the child. The
// parent returns straight away.
func RunTaskAsDaemon(tasks []Task, auroraHome string) error {
	pidFile := files.GetServicePIDPath(auroraHome)
	logFile := files.GetServiceLogPath(auroraHome)
	cntxt := &daemon.Context{
		PidFileName: pidFile,
		PidFilePerm: 0o644,
		LogFileName: logFile,
		LogFilePerm: 0o640,
		WorkDir:     auroraHome,
		Umask:       0o27,
	}

	log.Infof("pid file: %s", pidFile)
	log.Infof("log file: %s", logFile)

	d, err := daemonReborn(cntxt)
	if err != nil {
		if errors.Is(err, daemon.ErrWouldBlock) {
			log.Warn("service already running")
			return nil
		}
		return breverrors.WrapAndTrace(err)
	}
	if d != nil {
		return nil
	}
	defer cntxt.Release() //nolint:errcheck // pid file goes away with the process

	log.Info("service started")
	return RunTasks(tasks)
}

func RunTasks(tasks []Task) error {
	err := NewTaskRunner(tasks).Run()
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	return nil
}

type Task interface {
	Run(ctx context.Context) error
	GetTaskSpec() TaskSpec
}

type TaskSpec struct {
	Cron               string // "" runs the task once, in the background, until the runner stops
	RunCronImmediately bool   // only applied if Cron is set
}

type TaskRunner struct {
	Tasks       []Task
	StopSignals chan os.Signal
}

func NewTaskRunner(tasks []Task) *TaskRunner {
	return &TaskRunner{
		tasks,
		make(chan os.Signal, 1),
	}
}

func LogErr(ctx context.Context, f func(context.Context) error) func() {
	return func() {
		if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error(err)
		}
	}
}

// Run blocks until a stop signal arrives or a background task returns, then
// cancels the background tasks and waits for the scheduled ones to finish.
func (tr TaskRunner) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New()
	done := make(chan struct{}, len(tr.Tasks))
	background := 0
	for _, t := range tr.Tasks {
		spec := t.GetTaskSpec()
		if spec.Cron == "" {
			background++
			go func(run func()) {
				run()
				done <- struct{}{}
				// a front-end that gave up stops the whole service
				select {
				case tr.StopSignals <- syscall.SIGQUIT:
				default:
				}
			}(LogErr(ctx, t.Run))
			continue
		}
		e, err := c.AddFunc(spec.Cron, LogErr(ctx, t.Run))
		if err != nil {
			return breverrors.WrapAndTrace(err)
		}
		if spec.RunCronImmediately {
			c.Entry(e).Job.Run()
		}
	}

	c.Start()

	tr.WaitTillSignal(c.Stop)
	cancel()
	for i := 0; i < background; i++ {
		<-done
	}
	log.Info("stopped")

	return nil
}

func (tr TaskRunner) WaitTillSignal(ctxfn func() context.Context) {
	signal.Notify(tr.StopSignals, syscall.SIGQUIT)
	signal.Notify(tr.StopSignals, syscall.SIGTERM)
	signal.Notify(tr.StopSignals, syscall.SIGHUP)
	signal.Notify(tr.StopSignals, syscall.SIGINT)

	defer signal.Stop(tr.StopSignals)
	<-tr.StopSignals
	log.Info("stopping")
	<-ctxfn().Done()
}

func (tr *TaskRunner) SendStop() {
	tr.StopSignals <- syscall.SIGQUIT
}
