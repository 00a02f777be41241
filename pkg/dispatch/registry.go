package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/auroradev/aurora-cli/pkg/appctx"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/auroradev/aurora-cli/pkg/transport"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Constructor returns a fresh pointer to decode a request into.
type Constructor func() Request

type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown request key %q", e.Key)
}

type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed request: " + e.Reason
}

type Registry struct {
	ctors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{ctors: map[string]Constructor{}}
}

func (r *Registry) Register(key string, ctor Constructor) {
	if _, dup := r.ctors[key]; dup {
		panic("dispatch: duplicate request key " + key)
	}
	r.ctors[key] = ctor
}

func (r *Registry) Keys() []string {
	keys := lo.Keys(r.ctors)
	sort.Strings(keys)
	return keys
}

// Decode reads the "key" discriminator and unmarshals raw into the matching
// request type.
func (r *Registry) Decode(raw []byte) (Request, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &MalformedError{Reason: "invalid json"}
	}
	key := gjson.GetBytes(raw, "key")
	if key.Type != gjson.String || key.String() == "" {
		return nil, &MalformedError{Reason: "missing key"}
	}
	ctor, ok := r.ctors[key.String()]
	if !ok {
		return nil, &UnknownKeyError{Key: key.String()}
	}
	req := ctor()
	if err := json.Unmarshal(raw, req); err != nil {
		return nil, &MalformedError{Reason: err.Error()}
	}
	return req, nil
}

type Dispatcher struct {
	app      *appctx.App
	registry *Registry
}

func New(app *appctx.App, registry *Registry) *Dispatcher {
	return &Dispatcher{app: app, registry: registry}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Handle decodes raw, runs it and sends every envelope, the terminal one
// included, on tr.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte, tr transport.Transport) protocol.Outgoing {
	out := d.HandleQuiet(ctx, raw, tr)
	d.app.Router.Send(out, tr)
	return out
}

// HandleQuiet is Handle without sending the terminal envelope, for callers
// that want to act on a selector envelope themselves.
func (d *Dispatcher) HandleQuiet(ctx context.Context, raw []byte, tr transport.Transport) protocol.Outgoing {
	req, err := d.registry.Decode(raw)
	if err != nil {
		key := gjson.GetBytes(raw, "key").String()
		d.app.Log.Info("rejected request", zap.String("key", key), zap.Error(err))
		var unknown *UnknownKeyError
		if breverrors.As(err, &unknown) {
			return protocol.Error(key, d.app.Text.T(l10n.UnknownRequest, unknown.Key))
		}
		return protocol.Error(key, d.app.Text.T(l10n.BadRequest, err.Error()))
	}
	return d.Execute(ctx, req, tr)
}

// Execute runs an already decoded request and returns its terminal envelope.
func (d *Dispatcher) Execute(ctx context.Context, req Request, tr transport.Transport) protocol.Outgoing {
	env := &Env{App: d.app, Transport: tr}
	d.app.Log.Debug("dispatch", zap.String("key", req.Key()), zap.Stringer("transport", tr))
	return runSafely(ctx, req, env)
}
