// Package util builds the process-wide runtime the subcommands share and
// drives a request to completion on the console.
package util

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/auroradev/aurora-cli/pkg/appctx"
	"github.com/auroradev/aurora-cli/pkg/catalog"
	"github.com/auroradev/aurora-cli/pkg/dispatch"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/features"
	"github.com/auroradev/aurora-cli/pkg/files"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/auroradev/aurora-cli/pkg/transport"
	"github.com/auroradev/aurora-cli/pkg/vbox"
	"github.com/samber/lo"
)

// ErrRequestFailed is returned after a failed request's envelope has
// already been printed.
var ErrRequestFailed = breverrors.New("request failed")

// Picker asks the operator to choose one of items.
type Picker func(label string, items []string) (int, error)

func PromptPicker(label string, items []string) (int, error) {
	return terminal.PromptSelectInput(terminal.PromptSelectContent{Label: label, Items: items})
}

// Runtime is built on first use so that `version` and `help` never touch
// config or the catalogs.
type Runtime struct {
	once       sync.Once
	build      func() (*appctx.App, *dispatch.Dispatcher)
	app        *appctx.App
	dispatcher *dispatch.Dispatcher

	Pick   Picker
	Socket *transport.Socket
}

func NewRuntime(t *terminal.Terminal) *Runtime {
	return &Runtime{
		build:  func() (*appctx.App, *dispatch.Dispatcher) { return Build(appctx.New(t.Out())) },
		Pick:   PromptPicker,
		Socket: &transport.Socket{},
	}
}

// NewRuntimeWith wraps an already built App.
func NewRuntimeWith(app *appctx.App, dispatcher *dispatch.Dispatcher, pick Picker) *Runtime {
	return &Runtime{
		build:  func() (*appctx.App, *dispatch.Dispatcher) { return app, dispatcher },
		Pick:   pick,
		Socket: &transport.Socket{},
	}
}

// Build registers every request kind against the configured catalogs.
func Build(app *appctx.App) (*appctx.App, *dispatch.Dispatcher) {
	sshConfig, err := files.GetUserSSHConfigPath()
	if err != nil {
		app.Log.Warn("no user ssh config, host aliases stay unresolved")
	}
	reg := dispatch.NewRegistry()
	features.Register(reg, &features.Sources{
		Devices:      catalog.NewDevices(nil, app.Fs, sshConfig).List,
		Emulators:    vbox.New(app.Exec, app.Config.GetVBoxManage()),
		EmulatorPort: app.Config.GetEmulatorSSHPort(),
	})
	return app, dispatch.New(app, reg)
}

func (r *Runtime) init() {
	r.once.Do(func() {
		r.app, r.dispatcher = r.build()
	})
}

func (r *Runtime) App() *appctx.App {
	r.init()
	return r.app
}

func (r *Runtime) Dispatcher() *dispatch.Dispatcher {
	r.init()
	return r.dispatcher
}

// Run dispatches raw on the console. Selectors are answered with Pick and the
// chosen variant is dispatched in turn until a terminal envelope arrives,
// which is printed.
func (r *Runtime) Run(ctx context.Context, raw []byte) error {
	r.init()
	for {
		out := r.dispatcher.HandleQuiet(ctx, raw, transport.Console)
		sel, ok := out.(protocol.SelectorEnvelope)
		if !ok {
			r.app.Router.Send(out, transport.Console)
			if env, isEnv := out.(protocol.Envelope); isEnv && env.State == protocol.StateError {
				return ErrRequestFailed
			}
			return nil
		}
		names := lo.Map(sel.Variants, func(v protocol.Variant, _ int) string { return v.Name })
		idx, err := r.Pick(r.app.Text.T(l10n.Choose), names)
		if err != nil {
			return breverrors.WrapAndTrace(err)
		}
		raw = sel.Variants[idx].Incoming
	}
}

// RunRequest encodes body under key and runs it.
func (r *Runtime) RunRequest(ctx context.Context, key string, body map[string]any) error {
	if body == nil {
		body = map[string]any{}
	}
	body["key"] = key
	raw, err := json.Marshal(body)
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	return r.Run(ctx, raw)
}
