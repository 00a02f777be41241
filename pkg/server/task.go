package server

import (
	"context"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/tasks"
	"github.com/auroradev/aurora-cli/pkg/transport"
)

// ServeTask runs a front-end for the life of the service.
type ServeTask struct {
	Serve func(ctx context.Context) error
}

var _ tasks.Task = ServeTask{}

func (st ServeTask) GetTaskSpec() tasks.TaskSpec {
	return tasks.TaskSpec{}
}

func (st ServeTask) Run(ctx context.Context) error {
	return breverrors.WrapAndTrace(st.Serve(ctx))
}

// KeepaliveTask pings the live socket so idle proxies keep it open.
type KeepaliveTask struct {
	Socket *transport.Socket
}

var _ tasks.Task = KeepaliveTask{}

func (kt KeepaliveTask) GetTaskSpec() tasks.TaskSpec {
	return tasks.TaskSpec{Cron: "@every 30s"}
}

func (kt KeepaliveTask) Run(context.Context) error {
	return breverrors.WrapAndTrace(kt.Socket.Ping())
}
