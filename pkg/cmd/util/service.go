package util

import (
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/files"
	"github.com/auroradev/aurora-cli/pkg/tasks"
	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/spf13/afero"
)

// RunService runs ts until interrupted, in the background when detach is set.
// The detached child re-runs the same command line, so everything before
// this call happens in both processes.
func RunService(t *terminal.Terminal, ts []tasks.Task, detach bool) error {
	if !detach {
		return breverrors.WrapAndTrace(tasks.RunTasks(ts))
	}
	home, err := files.MakeAuroraHome(afero.NewOsFs())
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	t.Vprintf("Service log: %s\n", files.GetServiceLogPath(home))
	return breverrors.WrapAndTrace(tasks.RunTaskAsDaemon(ts, home))
}
