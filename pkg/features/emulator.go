package features

import (
	"context"

	"github.com/auroradev/aurora-cli/pkg/cmd/version"
	"github.com/auroradev/aurora-cli/pkg/dispatch"
	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/featureflag"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/auroradev/aurora-cli/pkg/selector"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// EmulatorStart boots a stopped emulator. Unlike the other emulator
// requests it picks from every emulator, not only running ones.
type EmulatorStart struct {
	ID *selector.ID `json:"id,omitempty"`

	src *Sources
}

func (r *EmulatorStart) Key() string { return KeyEmulatorStart }

func (r *EmulatorStart) WithID(id selector.ID) dispatch.Request {
	c := *r
	c.ID = &id
	return &c
}

func (r *EmulatorStart) Run(ctx context.Context, env *dispatch.Env) protocol.Outgoing {
	return dispatch.Resolve(ctx, env, dispatch.Lookup[entity.Emulator]{
		Key:        r.Key(),
		ID:         selector.Optional(r.ID),
		StatusText: env.T(l10n.SearchingEmulators),
		Fetch: func(ctx context.Context) ([]entity.Emulator, error) {
			all, err := r.src.Emulators.Emulators(ctx)
			if err != nil {
				return nil, breverrors.WrapAndTrace(err)
			}
			return sortEmulators(all), nil
		},
		Resume: r.WithID,
	}, func(e entity.Emulator) protocol.Outgoing {
		if e.Running {
			return protocol.Info(r.Key(), env.T(l10n.EmulatorRunning, e.Name))
		}
		if err := r.src.Emulators.Start(e); err != nil {
			return env.Fail(r.Key(), err)
		}
		return protocol.Success(r.Key(), env.T(l10n.EmulatorStarted, e.Name))
	})
}

// AppInfo reports the running configuration.
type AppInfo struct{}

func (r *AppInfo) Key() string { return KeyAppInfo }

func (r *AppInfo) Run(_ context.Context, env *dispatch.Env) protocol.Outgoing {
	payload := orderedmap.New[string, any]()
	payload.Set("version", version.String())
	if cfg := env.App.Config; cfg != nil {
		payload.Set("language", cfg.GetLanguage())
		payload.Set("dbus_bus_name", cfg.GetDBusBusName())
		payload.Set("websocket_url", cfg.GetWebSocketURL())
		payload.Set("status_timeout", cfg.GetStatusTimeout().String())
		payload.Set("workers", cfg.GetWorkerCount())
	}
	payload.Set("target_lease", featureflag.TargetLease())
	payload.Set("transport", env.Transport.String())
	return protocol.SuccessPayload(r.Key(), payload)
}
