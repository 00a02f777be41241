package dispatch

import (
	"context"

	"github.com/auroradev/aurora-cli/pkg/appctx"
	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/auroradev/aurora-cli/pkg/remote"
	"github.com/auroradev/aurora-cli/pkg/selector"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// Lookup describes how a request finds what it acts on.
type Lookup[C selector.Candidate] struct {
	Key        string
	ID         mo.Option[selector.ID]
	StatusText string
	Fetch      func(ctx context.Context) ([]C, error)
	// Resume returns the request pointed at one candidate.
	Resume func(id selector.ID) Request
}

// Resolve searches for candidates and then either reports that none were
// found, answers with a selector envelope, or runs exec on the single match.
func Resolve[C selector.Candidate](ctx context.Context, env *Env, l Lookup[C], exec func(C) protocol.Outgoing) protocol.Outgoing {
	found, err := selector.Search(ctx, l.ID, func(text string) { env.Status(l.Key, text) }, l.StatusText, l.Fetch)
	if err != nil {
		return env.Fail(l.Key, err)
	}
	switch len(found) {
	case 0:
		return protocol.Info(l.Key, env.T(l10n.NotFound))
	case 1:
		return exec(found[0])
	}

	choices := selector.Select(found, l.Resume)
	variants := make([]protocol.Variant, 0, len(choices))
	for _, c := range choices {
		incoming, err := Encode(c.Incoming)
		if err != nil {
			return env.Fail(l.Key, err)
		}
		variants = append(variants, protocol.Variant{Name: c.Name, Incoming: incoming})
	}
	return protocol.SelectorEnvelope{Key: l.Key, Variants: variants}
}

// WithSession runs fn against an open session to target on the worker pool.
// The target lease is held and the session closed on every path.
func WithSession[T any](ctx context.Context, env *Env, target entity.Target, role remote.Role, fn func(remote.Conn) (T, error)) (T, error) {
	return appctx.Submit(ctx, env.App.Pool, func() (T, error) {
		var zero T
		release, err := env.App.Leases.Acquire(ctx, target.ID())
		if err != nil {
			return zero, breverrors.WrapAndTrace(err)
		}
		defer release()

		conn, err := env.App.Connect(ctx, target, role)
		if err != nil {
			return zero, breverrors.WrapAndTrace(err)
		}
		defer func() {
			if cerr := conn.Close(); cerr != nil {
				env.App.Log.Debug("close session", zap.String("target", target.Name), zap.Error(cerr))
			}
		}()
		return fn(conn)
	})
}
