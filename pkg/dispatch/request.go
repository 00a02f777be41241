// Package dispatch decodes requests, runs them and routes what they produce
// back to the transport they came from.
package dispatch

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/auroradev/aurora-cli/pkg/appctx"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/progress"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/auroradev/aurora-cli/pkg/selector"
	"github.com/auroradev/aurora-cli/pkg/transport"
	"go.uber.org/zap"
)

// Request is one decoded command. Run emits intermediate events through env
// and returns the terminal envelope.
type Request interface {
	Key() string
	Run(ctx context.Context, env *Env) protocol.Outgoing
}

// Resumable requests can be pointed at a single candidate after a choice.
type Resumable interface {
	Request
	WithID(id selector.ID) Request
}

// Env is what a running request may use.
type Env struct {
	App       *appctx.App
	Transport transport.Transport
}

func (e *Env) Send(out protocol.Outgoing) {
	e.App.Router.Send(out, e.Transport)
}

func (e *Env) Status(key, text string) {
	e.Send(protocol.Status(key, text))
}

func (e *Env) Progress(key string, size transport.Size) progress.Func {
	return e.App.Router.Progress(e.Transport, key, size)
}

func (e *Env) T(key string, args ...any) string {
	return e.App.Text.T(key, args...)
}

// Fail logs err and turns it into a localized Error envelope.
func (e *Env) Fail(key string, err error) protocol.Envelope {
	e.App.Log.Warn("request failed", zap.String("key", key), zap.Error(err))
	return protocol.Error(key, e.App.Text.Error(err))
}

// Encode marshals req with its key so it can be decoded again.
func Encode(req Request) (json.RawMessage, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	key, err := json.Marshal(req.Key())
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	fields["key"] = key
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	return out, nil
}

// runSafely keeps one broken request from taking the front-end down.
func runSafely(ctx context.Context, req Request, env *Env) (out protocol.Outgoing) {
	defer func() {
		if r := recover(); r != nil {
			env.App.Log.Error("request panicked", zap.String("key", req.Key()), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			if env.App.Reporter != nil {
				env.App.Reporter.ReportMessage("panic in " + req.Key())
			}
			out = env.Fail(req.Key(), breverrors.Errorf("internal error: %v", r))
		}
	}()
	out = req.Run(ctx, env)
	if out == nil {
		out = protocol.Success(req.Key(), "")
	}
	return out
}
