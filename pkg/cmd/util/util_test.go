package util

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/auroradev/aurora-cli/pkg/appctx"
	"github.com/auroradev/aurora-cli/pkg/dispatch"
	"github.com/auroradev/aurora-cli/pkg/entity"
	"github.com/auroradev/aurora-cli/pkg/features"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/transport"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeEmulators struct {
	all     []entity.Emulator
	started []string
}

func (f *fakeEmulators) Emulators(context.Context) ([]entity.Emulator, error) { return f.all, nil }
func (f *fakeEmulators) Running(context.Context) ([]entity.Emulator, error)   { return nil, nil }

func (f *fakeEmulators) Start(e entity.Emulator) error {
	f.started = append(f.started, e.UUID)
	return nil
}

func newTestRuntime(t *testing.T, pick Picker) (*Runtime, *bytes.Buffer, *fakeEmulators) {
	t.Helper()
	var out bytes.Buffer
	log := zaptest.NewLogger(t)
	app := &appctx.App{
		Log:    log,
		Router: transport.NewRouter(transport.NewConsole(&out), log),
		Pool:   appctx.NewPool(2),
		Leases: appctx.NewLeases(true),
		Text:   l10n.New("en"),
	}
	em := &fakeEmulators{all: []entity.Emulator{
		{UUID: "old", Name: "AuroraOS-4.0.2.249-base"},
		{UUID: "new", Name: "AuroraOS-5.0.0.60-base"},
	}}
	reg := dispatch.NewRegistry()
	features.Register(reg, &features.Sources{
		Devices:      func(context.Context) ([]entity.Device, error) { return nil, nil },
		Emulators:    em,
		EmulatorPort: 2223,
	})
	return NewRuntimeWith(app, dispatch.New(app, reg), pick), &out, em
}

func TestRunPromptsOnSelector(t *testing.T) {
	var label string
	var items []string
	rt, out, em := newTestRuntime(t, func(l string, it []string) (int, error) {
		label, items = l, it
		return 1, nil
	})

	require.NoError(t, rt.RunRequest(context.Background(), features.KeyEmulatorStart, nil))
	assert.Equal(t, "Choose one", label)
	if diff := cmp.Diff([]string{"AuroraOS-5.0.0.60-base", "AuroraOS-4.0.2.249-base"}, items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"old"}, em.started)
	assert.Contains(t, out.String(), "Emulator started: AuroraOS-4.0.2.249-base")
}

func TestRunFailedRequest(t *testing.T) {
	rt, out, _ := newTestRuntime(t, nil)
	err := rt.Run(context.Background(), []byte(`{"key":"nope"}`))
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, out.String(), "nope")
}

func TestRunPickAborted(t *testing.T) {
	aborted := errors.New("^C")
	rt, _, em := newTestRuntime(t, func(string, []string) (int, error) { return -1, aborted })
	err := rt.RunRequest(context.Background(), features.KeyEmulatorStart, nil)
	assert.ErrorIs(t, err, aborted)
	assert.Empty(t, em.started)
}
