package features

import (
	"context"
	"strings"

	"github.com/auroradev/aurora-cli/pkg/dispatch"
	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/auroradev/aurora-cli/pkg/remote"
	"github.com/auroradev/aurora-cli/pkg/selector"
	"github.com/auroradev/aurora-cli/pkg/transport"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Info struct {
	targetRequest
}

func (r *Info) Key() string { return KeyFor(r.kind, SuffixInfo) }

func (r *Info) WithID(id selector.ID) dispatch.Request {
	c := *r
	c.ID = &id
	return &c
}

func (r *Info) Run(ctx context.Context, env *dispatch.Env) protocol.Outgoing {
	return r.src.resolveTarget(ctx, env, r.kind, r.Key(), r.ID, r.WithID, func(t remoteTarget) protocol.Outgoing {
		env.Status(r.Key(), env.T(l10n.Connecting, t.target.Addr()))
		identity, err := dispatch.WithSession(ctx, env, t.target, remote.RoleUser, func(conn remote.Conn) (entity.OSIdentity, error) {
			return conn.Identity(), nil
		})
		if err != nil {
			return env.Fail(r.Key(), err)
		}
		payload := orderedmap.New[string, any]()
		payload.Set("name", t.name)
		payload.Set("host", t.target.Addr())
		payload.Set("os_name", identity.Name)
		payload.Set("os_version", identity.Version)
		payload.Set("arch", identity.Arch)
		return protocol.SuccessPayload(r.Key(), payload)
	})
}

// Command runs a shell command on the target. Root goes through devel-su on
// devices and logs in as root on emulators.
type Command struct {
	targetRequest
	Command string `json:"command"`
	Root    bool   `json:"root,omitempty"`
}

func (r *Command) Key() string { return KeyFor(r.kind, SuffixCommand) }

func (r *Command) WithID(id selector.ID) dispatch.Request {
	c := *r
	c.ID = &id
	return &c
}

func (r *Command) Run(ctx context.Context, env *dispatch.Env) protocol.Outgoing {
	if strings.TrimSpace(r.Command) == "" {
		return env.Fail(r.Key(), breverrors.NewValidationError("command is empty"))
	}
	role := remote.RoleUser
	if r.Root && r.kind == entity.TargetEmulator {
		role = remote.RoleRoot
	}
	return r.src.resolveTarget(ctx, env, r.kind, r.Key(), r.ID, r.WithID, func(t remoteTarget) protocol.Outgoing {
		lines, err := dispatch.WithSession(ctx, env, t.target, role, func(conn remote.Conn) ([]string, error) {
			if r.Root && r.kind == entity.TargetDevice {
				return conn.CallPrivileged(r.Command)
			}
			return conn.Call(r.Command)
		})
		if err != nil {
			return env.Fail(r.Key(), err)
		}
		return protocol.Success(r.Key(), strings.Join(lines, "\n"))
	})
}

type Upload struct {
	targetRequest
	Path string `json:"path"`
}

func (r *Upload) Key() string { return KeyFor(r.kind, SuffixUpload) }

func (r *Upload) WithID(id selector.ID) dispatch.Request {
	c := *r
	c.ID = &id
	return &c
}

func (r *Upload) Run(ctx context.Context, env *dispatch.Env) protocol.Outgoing {
	if r.Path == "" {
		return env.Fail(r.Key(), breverrors.NewValidationError("path is empty"))
	}
	return r.src.resolveTarget(ctx, env, r.kind, r.Key(), r.ID, r.WithID, func(t remoteTarget) protocol.Outgoing {
		remotePath, err := dispatch.WithSession(ctx, env, t.target, remote.RoleUser, func(conn remote.Conn) (string, error) {
			return conn.Upload(r.Path, env.Progress(r.Key(), transport.Small))
		})
		if err != nil {
			return env.Fail(r.Key(), err)
		}
		return protocol.Success(r.Key(), env.T(l10n.UploadDone, remotePath))
	})
}

type Download struct {
	targetRequest
	Remote string `json:"remote"`
	Local  string `json:"local"`
}

func (r *Download) Key() string { return KeyFor(r.kind, SuffixDownload) }

func (r *Download) WithID(id selector.ID) dispatch.Request {
	c := *r
	c.ID = &id
	return &c
}

func (r *Download) Run(ctx context.Context, env *dispatch.Env) protocol.Outgoing {
	if r.Remote == "" || r.Local == "" {
		return env.Fail(r.Key(), breverrors.NewValidationError("remote and local paths are required"))
	}
	return r.src.resolveTarget(ctx, env, r.kind, r.Key(), r.ID, r.WithID, func(t remoteTarget) protocol.Outgoing {
		_, err := dispatch.WithSession(ctx, env, t.target, remote.RoleUser, func(conn remote.Conn) (struct{}, error) {
			return struct{}{}, conn.Download(r.Remote, r.Local, env.Progress(r.Key(), transport.Small))
		})
		if err != nil {
			return env.Fail(r.Key(), err)
		}
		return protocol.Success(r.Key(), env.T(l10n.DownloadDone, r.Local))
	})
}
