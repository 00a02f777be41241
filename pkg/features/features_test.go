package features

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/auroradev/aurora-cli/pkg/appctx"
	"github.com/auroradev/aurora-cli/pkg/dispatch"
	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/progress"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/auroradev/aurora-cli/pkg/remote"
	"github.com/auroradev/aurora-cli/pkg/selector"
	"github.com/auroradev/aurora-cli/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"
)

type fakeConn struct {
	packages []string
	removed  []string
	calls    []string
	closed   int
}

var _ remote.Conn = &fakeConn{}

func (f *fakeConn) Identity() entity.OSIdentity {
	return entity.OSIdentity{Name: "Aurora OS 4.0.2.249", Version: "4.0.2.249", Arch: "armv7hl"}
}

func (f *fakeConn) Call(command string) ([]string, error) {
	f.calls = append(f.calls, command)
	return []string{"out"}, nil
}

func (f *fakeConn) CallPrivileged(command string) ([]string, error) {
	f.calls = append(f.calls, "su:"+command)
	return []string{"0"}, nil
}

func (f *fakeConn) RunFireAndForget(command string) (string, error) {
	f.calls = append(f.calls, "bg:"+command)
	return "/tmp/log", nil
}

func (f *fakeConn) RunAndWait(command string) ([]string, error) { return nil, nil }

func (f *fakeConn) Upload(localPath string, onProgress progress.Func) (string, error) {
	onProgress(progress.Fetching())
	onProgress(progress.Preparing())
	onProgress(progress.Starting())
	onProgress(progress.Percent(50))
	onProgress(progress.Percent(100))
	return remote.RemoteUploadPath(localPath), nil
}

func (f *fakeConn) Download(remotePath, localPath string, onProgress progress.Func) error {
	if remotePath == "/home/defaultuser/missing.png" {
		return breverrors.WrapAndTrace(&breverrors.NotFoundError{What: remotePath})
	}
	return nil
}

func (f *fakeConn) InstallPackage(remotePath, oldName string) error {
	f.calls = append(f.calls, "install:"+remotePath)
	return nil
}

func (f *fakeConn) RemovePackage(name string, keepUserData bool) error {
	f.removed = append(f.removed, name)
	return nil
}

func (f *fakeConn) ListInstalledPackages() ([]string, error) { return f.packages, nil }

func (f *fakeConn) Close() error {
	f.closed++
	return nil
}

type fakeEmulators struct {
	all     []entity.Emulator
	started []string
}

func (f *fakeEmulators) Emulators(context.Context) ([]entity.Emulator, error) { return f.all, nil }

func (f *fakeEmulators) Running(context.Context) ([]entity.Emulator, error) {
	var out []entity.Emulator
	for _, e := range f.all {
		if e.Running {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmulators) Start(e entity.Emulator) error {
	f.started = append(f.started, e.UUID)
	return nil
}

type recorder struct {
	frames []string
}

func (r *recorder) SendText(payload []byte) error {
	r.frames = append(r.frames, string(payload))
	return nil
}

type harness struct {
	dispatcher *dispatch.Dispatcher
	conn       *fakeConn
	emulators  *fakeEmulators
	ws         *recorder
	targets    []entity.Target
}

func newHarness(t *testing.T, devices []entity.Device) *harness {
	t.Helper()
	h := &harness{conn: &fakeConn{}, emulators: &fakeEmulators{}, ws: &recorder{}}
	log := zaptest.NewLogger(t)
	router := transport.NewRouter(nil, log)
	router.AttachWebSocket(h.ws)
	app := &appctx.App{
		Log:    log,
		Router: router,
		Pool:   appctx.NewPool(2),
		Leases: appctx.NewLeases(true),
		Text:   l10n.New("en"),
		Connect: func(_ context.Context, target entity.Target, _ remote.Role) (remote.Conn, error) {
			h.targets = append(h.targets, target)
			return h.conn, nil
		},
	}
	reg := dispatch.NewRegistry()
	Register(reg, &Sources{
		Devices:      func(context.Context) ([]entity.Device, error) { return devices, nil },
		Emulators:    h.emulators,
		EmulatorPort: 2223,
	})
	h.dispatcher = dispatch.New(app, reg)
	return h
}

func (h *harness) handle(raw string) protocol.Outgoing {
	return h.dispatcher.HandleQuiet(context.Background(), []byte(raw), transport.WebSocket)
}

var phone = entity.Device{Name: "phone", Host: "192.168.2.15", Credential: entity.Credential{Password: "x"}}

func TestDeviceInfo(t *testing.T) {
	h := newHarness(t, []entity.Device{phone})
	out := h.handle(`{"key":"device_info"}`)

	raw, err := protocol.Encode(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"device_info","state":"Success","payload":{
		"name":"phone (192.168.2.15)","host":"192.168.2.15:22",
		"os_name":"Aurora OS 4.0.2.249","os_version":"4.0.2.249","arch":"armv7hl"}}`, string(raw))
	assert.Equal(t, 1, h.conn.closed)
	assert.Equal(t, "192.168.2.15", h.targets[0].Host)
}

func TestDeviceCommandAsRootUsesDevelSu(t *testing.T) {
	h := newHarness(t, []entity.Device{phone})
	out := h.handle(`{"key":"device_command","command":"id -u","root":true}`)
	assert.Equal(t, protocol.Success("device_command", "0"), out)
	assert.Equal(t, []string{"su:id -u"}, h.conn.calls)

	out = h.handle(`{"key":"device_command","command":"  "}`)
	assert.Equal(t, protocol.StateError, out.(protocol.Envelope).State)
}

func TestUploadProgressOnWebSocket(t *testing.T) {
	h := newHarness(t, []entity.Device{phone})
	out := h.handle(`{"key":"device_upload","path":"/tmp/app.rpm"}`)
	assert.Equal(t, protocol.Success("device_upload", "File uploaded: /home/defaultuser/Downloads/app.rpm"), out)

	var progressValues []string
	for _, f := range h.ws.frames {
		if gjson.Get(f, "state").String() == "Progress" {
			progressValues = append(progressValues, gjson.Get(f, "message").String())
		}
	}
	assert.Equal(t, []string{"50", "100"}, progressValues)
}

func TestPackageRemoveSelectsDeviceThenPackage(t *testing.T) {
	tablet := entity.Device{Host: "192.168.2.16", Credential: entity.Credential{Password: "x"}}
	h := newHarness(t, []entity.Device{phone, tablet})
	h.conn.packages = []string{"ru.auroraos.a", "ru.auroraos.b"}

	out := h.handle(`{"key":"device_package_remove","keep_user_data":true}`)
	sel, ok := out.(protocol.SelectorEnvelope)
	require.True(t, ok)
	require.Len(t, sel.Variants, 2)
	assert.Empty(t, h.targets)

	out = h.handle(string(sel.Variants[1].Incoming))
	sel, ok = out.(protocol.SelectorEnvelope)
	require.True(t, ok)
	require.Len(t, sel.Variants, 2)
	assert.Equal(t, "ru.auroraos.b", sel.Variants[1].Name)
	assert.Equal(t, "192.168.2.16", h.targets[0].Host)

	var incoming map[string]any
	require.NoError(t, json.Unmarshal(sel.Variants[1].Incoming, &incoming))
	assert.Equal(t, tablet.ID().String(), incoming["id"])
	assert.Equal(t, true, incoming["keep_user_data"])

	out = h.handle(string(sel.Variants[1].Incoming))
	assert.Equal(t, protocol.Success("device_package_remove", "Package removed: ru.auroraos.b"), out)
	assert.Equal(t, []string{"ru.auroraos.b"}, h.conn.removed)
	assert.Equal(t, 2, h.conn.closed)
}

func TestPackageRunSingleMatch(t *testing.T) {
	h := newHarness(t, []entity.Device{phone})
	h.conn.packages = []string{"ru.auroraos.calculator"}
	id := selector.HashID("ru.auroraos.calculator")

	out := h.handle(`{"key":"device_package_run","package_id":"` + id.String() + `"}`)
	assert.Equal(t, protocol.Success("device_package_run", "Package started: ru.auroraos.calculator"), out)
	assert.Equal(t, []string{"bg:invoker --type=qt5 /usr/bin/ru.auroraos.calculator"}, h.conn.calls)
}

func TestEmulatorRequests(t *testing.T) {
	h := newHarness(t, nil)
	h.emulators.all = []entity.Emulator{
		{UUID: "a", Name: "AuroraOS-4.0.2.249-base", KeyPath: "/k", Running: true},
		{UUID: "b", Name: "AuroraOS-5.0.0.60-base", KeyPath: "/k"},
	}

	out := h.handle(`{"key":"emulator_start"}`)
	sel, ok := out.(protocol.SelectorEnvelope)
	require.True(t, ok)
	assert.Equal(t, "AuroraOS-5.0.0.60-base", sel.Variants[0].Name)

	out = h.handle(string(sel.Variants[0].Incoming))
	assert.Equal(t, protocol.Success("emulator_start", "Emulator started: AuroraOS-5.0.0.60-base"), out)
	assert.Equal(t, []string{"b"}, h.emulators.started)

	out = h.handle(`{"key":"emulator_command","command":"uname -m","root":true}`)
	assert.Equal(t, protocol.Success("emulator_command", "out"), out)
	require.Len(t, h.targets, 1)
	assert.Equal(t, "localhost:2223", h.targets[0].Addr())
}

func TestNoDevicesIsNotFound(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, protocol.Info("device_package_list", "Not found"), h.handle(`{"key":"device_package_list"}`))
}

func TestAppInfo(t *testing.T) {
	h := newHarness(t, nil)
	out := h.handle(`{"key":"app_info"}`)
	raw, err := protocol.Encode(out)
	require.NoError(t, err)
	assert.Equal(t, "websocket", gjson.GetBytes(raw, "payload.transport").String())
	keys := gjson.GetBytes(raw, "payload.@keys").Array()
	require.NotEmpty(t, keys)
	assert.Equal(t, "version", keys[0].String())
}

func TestEmulatorInfoRoundTripWithThreeRunning(t *testing.T) {
	h := newHarness(t, nil)
	h.emulators.all = []entity.Emulator{
		{UUID: "a", Name: "AuroraOS-4.0.2.249-base", KeyPath: "/k", Running: true},
		{UUID: "b", Name: "AuroraOS-5.0.0.60-base", KeyPath: "/k", Running: true},
		{UUID: "c", Name: "AuroraOS-4.0.1.20-base", KeyPath: "/k", Running: true},
	}

	out := h.handle(`{"key":"emulator_info"}`)
	sel, ok := out.(protocol.SelectorEnvelope)
	require.True(t, ok)
	assert.Equal(t, "emulator_info", sel.Key)
	require.Len(t, sel.Variants, 3)
	names := []string{sel.Variants[0].Name, sel.Variants[1].Name, sel.Variants[2].Name}
	assert.Equal(t, []string{"AuroraOS-5.0.0.60-base", "AuroraOS-4.0.2.249-base", "AuroraOS-4.0.1.20-base"}, names)
	assert.Empty(t, h.targets)

	var incoming map[string]any
	require.NoError(t, json.Unmarshal(sel.Variants[1].Incoming, &incoming))
	assert.Equal(t, "emulator_info", incoming["key"])
	assert.Equal(t, selector.HashID("a").String(), incoming["id"])

	out = h.handle(string(sel.Variants[1].Incoming))
	raw, err := protocol.Encode(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"emulator_info","state":"Success","payload":{
		"name":"AuroraOS-4.0.2.249-base","host":"localhost:2223",
		"os_name":"Aurora OS 4.0.2.249","os_version":"4.0.2.249","arch":"armv7hl"}}`, string(raw))
	require.Len(t, h.targets, 1)
	assert.Equal(t, "AuroraOS-4.0.2.249-base", h.targets[0].Name)
	assert.Equal(t, 1, h.conn.closed)
}

func TestDownloadMissingRemoteFile(t *testing.T) {
	h := newHarness(t, []entity.Device{phone})
	out := h.handle(`{"key":"device_download","remote":"/home/defaultuser/missing.png","local":"/tmp/missing.png"}`)
	assert.Equal(t, protocol.Error("device_download", "Not found: /home/defaultuser/missing.png"), out)
	assert.Equal(t, 1, h.conn.closed)
}
