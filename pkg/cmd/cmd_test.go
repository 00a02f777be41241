package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/auroradev/aurora-cli/pkg/appctx"
	"github.com/auroradev/aurora-cli/pkg/cmd/util"
	"github.com/auroradev/aurora-cli/pkg/dispatch"
	"github.com/auroradev/aurora-cli/pkg/entity"
	"github.com/auroradev/aurora-cli/pkg/features"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/auroradev/aurora-cli/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubEmulators struct {
	started []string
}

func (s *stubEmulators) Emulators(context.Context) ([]entity.Emulator, error) {
	return []entity.Emulator{
		{UUID: "a", Name: "AuroraOS-4.0.2.249-base"},
		{UUID: "b", Name: "AuroraOS-5.0.0.60-base"},
	}, nil
}

func (s *stubEmulators) Running(context.Context) ([]entity.Emulator, error) { return nil, nil }

func (s *stubEmulators) Start(e entity.Emulator) error {
	s.started = append(s.started, e.UUID)
	return nil
}

func execute(t *testing.T, args ...string) (string, *stubEmulators, error) {
	t.Helper()
	var out bytes.Buffer
	log := zaptest.NewLogger(t)
	app := &appctx.App{
		Log:    log,
		Router: transport.NewRouter(transport.NewConsole(&out), log),
		Pool:   appctx.NewPool(1),
		Leases: appctx.NewLeases(false),
		Text:   l10n.New("en"),
	}
	em := &stubEmulators{}
	reg := dispatch.NewRegistry()
	features.Register(reg, &features.Sources{
		Devices:   func(context.Context) ([]entity.Device, error) { return nil, nil },
		Emulators: em,
	})
	rt := util.NewRuntimeWith(app, dispatch.New(app, reg), func(string, []string) (int, error) { return 0, nil })

	root := NewAuroraCommandWithRuntime(strings.NewReader(""), terminal.NewWithWriters(&out, &out), rt)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), em, err
}

func TestRootPrintsHelp(t *testing.T) {
	out, _, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "device")
	assert.Contains(t, out, "emulator")
}

func TestEmulatorStartPicksFirstVariant(t *testing.T) {
	out, em, err := execute(t, "emulator", "start")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, em.started)
	assert.Contains(t, out, "Emulator started: AuroraOS-5.0.0.60-base")
}

func TestCallRawJSON(t *testing.T) {
	out, _, err := execute(t, "call", `{"key":"app_info"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "version")

	_, _, err = execute(t, "call", `{"key":"nope"}`)
	assert.ErrorIs(t, err, util.ErrRequestFailed)
}

func TestDeviceCommandWithoutDevicesIsNotFound(t *testing.T) {
	out, _, err := execute(t, "device", "command", "uname", "-a")
	require.NoError(t, err)
	assert.Contains(t, out, "Not found")

	out, _, err = execute(t, "device", "command", "--root", "id", "-u")
	require.NoError(t, err)
	assert.Contains(t, out, "Not found")
}
