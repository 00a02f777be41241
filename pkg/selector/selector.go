// Package selector implements "search, then disambiguate if more than one"
// for devices, emulators and packages.
package selector

import (
	"context"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Candidate is anything a request can be pointed at.
type Candidate interface {
	ID() ID
	DisplayName() string
}

// Choice is one entry of an ambiguity answer: a display name and the request
// that, when sent back, resolves to exactly that candidate.
type Choice[R any] struct {
	Name     string
	Incoming R
}

// Search announces statusText through status, fetches the candidate set and
// drops duplicate ids keeping the first. With id set, only that candidate
// (or nothing) is returned.
func Search[C Candidate](
	ctx context.Context,
	id mo.Option[ID],
	status func(text string),
	statusText string,
	fetch func(ctx context.Context) ([]C, error),
) ([]C, error) {
	if status != nil && statusText != "" {
		status(statusText)
	}
	found, err := fetch(ctx)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	found = lo.UniqBy(found, func(c C) ID { return c.ID() })
	if want, ok := id.Get(); ok {
		return lo.Filter(found, func(c C, _ int) bool { return c.ID() == want }), nil
	}
	return found, nil
}

// Select builds one choice per candidate in order. It never connects to
// anything: resume only patches the request data.
func Select[C Candidate, R any](candidates []C, resume func(ID) R) []Choice[R] {
	return lo.Map(candidates, func(c C, _ int) Choice[R] {
		return Choice[R]{Name: c.DisplayName(), Incoming: resume(c.ID())}
	})
}
