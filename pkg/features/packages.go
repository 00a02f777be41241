package features

import (
	"context"

	"github.com/auroradev/aurora-cli/pkg/dispatch"
	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/auroradev/aurora-cli/pkg/remote"
	"github.com/auroradev/aurora-cli/pkg/selector"
	"github.com/auroradev/aurora-cli/pkg/transport"
	"github.com/samber/lo"
)

type PackageInstall struct {
	targetRequest
	Path string `json:"path"`
	// Replace names a package to remove first.
	Replace string `json:"replace,omitempty"`
}

func (r *PackageInstall) Key() string { return KeyFor(r.kind, SuffixPackageInstall) }

func (r *PackageInstall) WithID(id selector.ID) dispatch.Request {
	c := *r
	c.ID = &id
	return &c
}

func (r *PackageInstall) Run(ctx context.Context, env *dispatch.Env) protocol.Outgoing {
	if r.Path == "" {
		return env.Fail(r.Key(), breverrors.NewValidationError("path is empty"))
	}
	return r.src.resolveTarget(ctx, env, r.kind, r.Key(), r.ID, r.WithID, func(t remoteTarget) protocol.Outgoing {
		_, err := dispatch.WithSession(ctx, env, t.target, remote.RoleUser, func(conn remote.Conn) (struct{}, error) {
			remotePath, err := conn.Upload(r.Path, env.Progress(r.Key(), transport.Big))
			if err != nil {
				return struct{}{}, breverrors.WrapAndTrace(err)
			}
			return struct{}{}, conn.InstallPackage(remotePath, r.Replace)
		})
		if err != nil {
			return env.Fail(r.Key(), err)
		}
		return protocol.Success(r.Key(), env.T(l10n.InstallDone, remote.RemoteUploadPath(r.Path)))
	})
}

type PackageList struct {
	targetRequest
}

func (r *PackageList) Key() string { return KeyFor(r.kind, SuffixPackageList) }

func (r *PackageList) WithID(id selector.ID) dispatch.Request {
	c := *r
	c.ID = &id
	return &c
}

func (r *PackageList) Run(ctx context.Context, env *dispatch.Env) protocol.Outgoing {
	return r.src.resolveTarget(ctx, env, r.kind, r.Key(), r.ID, r.WithID, func(t remoteTarget) protocol.Outgoing {
		names, err := dispatch.WithSession(ctx, env, t.target, remote.RoleUser, func(conn remote.Conn) ([]string, error) {
			return conn.ListInstalledPackages()
		})
		if err != nil {
			return env.Fail(r.Key(), err)
		}
		return protocol.SuccessPayload(r.Key(), names)
	})
}

// packageRequest picks a target and then one of its installed packages.
type packageRequest struct {
	targetRequest
	PackageID *selector.ID `json:"package_id,omitempty"`
}

// withPackage runs action on the chosen package inside one session.
func (r *packageRequest) withPackage(
	ctx context.Context,
	env *dispatch.Env,
	key string,
	resume func(target selector.ID, pkg *selector.ID) dispatch.Request,
	action func(conn remote.Conn, pkg entity.Package) protocol.Outgoing,
) protocol.Outgoing {
	return r.src.resolveTarget(ctx, env, r.kind, key, r.ID,
		func(id selector.ID) dispatch.Request { return resume(id, nil) },
		func(t remoteTarget) protocol.Outgoing {
			out, err := dispatch.WithSession(ctx, env, t.target, remote.RoleUser, func(conn remote.Conn) (protocol.Outgoing, error) {
				return dispatch.Resolve(ctx, env, dispatch.Lookup[entity.Package]{
					Key:        key,
					ID:         selector.Optional(r.PackageID),
					StatusText: env.T(l10n.SearchingPackages),
					Fetch: func(context.Context) ([]entity.Package, error) {
						names, err := conn.ListInstalledPackages()
						if err != nil {
							return nil, breverrors.WrapAndTrace(err)
						}
						return lo.Map(names, func(n string, _ int) entity.Package { return entity.Package{Name: n} }), nil
					},
					Resume: func(pkg selector.ID) dispatch.Request { return resume(t.ID(), &pkg) },
				}, func(p entity.Package) protocol.Outgoing { return action(conn, p) }), nil
			})
			if err != nil {
				return env.Fail(key, err)
			}
			return out
		})
}

type PackageRun struct {
	packageRequest
}

func (r *PackageRun) Key() string { return KeyFor(r.kind, SuffixPackageRun) }

func (r *PackageRun) resume(target selector.ID, pkg *selector.ID) dispatch.Request {
	c := *r
	c.ID = &target
	c.PackageID = pkg
	return &c
}

func (r *PackageRun) WithID(id selector.ID) dispatch.Request {
	return r.resume(id, r.PackageID)
}

func (r *PackageRun) Run(ctx context.Context, env *dispatch.Env) protocol.Outgoing {
	return r.withPackage(ctx, env, r.Key(), r.resume, func(conn remote.Conn, pkg entity.Package) protocol.Outgoing {
		if _, err := conn.RunFireAndForget("invoker --type=qt5 /usr/bin/" + pkg.Name); err != nil {
			return env.Fail(r.Key(), err)
		}
		return protocol.Success(r.Key(), env.T(l10n.RunDone, pkg.Name))
	})
}

type PackageRemove struct {
	packageRequest
	KeepUserData bool `json:"keep_user_data,omitempty"`
}

func (r *PackageRemove) Key() string { return KeyFor(r.kind, SuffixPackageRemove) }

func (r *PackageRemove) resume(target selector.ID, pkg *selector.ID) dispatch.Request {
	c := *r
	c.ID = &target
	c.PackageID = pkg
	return &c
}

func (r *PackageRemove) WithID(id selector.ID) dispatch.Request {
	return r.resume(id, r.PackageID)
}

func (r *PackageRemove) Run(ctx context.Context, env *dispatch.Env) protocol.Outgoing {
	return r.withPackage(ctx, env, r.Key(), r.resume, func(conn remote.Conn, pkg entity.Package) protocol.Outgoing {
		if err := conn.RemovePackage(pkg.Name, r.KeepUserData); err != nil {
			return env.Fail(r.Key(), err)
		}
		return protocol.Success(r.Key(), env.T(l10n.RemoveDone, pkg.Name))
	})
}
