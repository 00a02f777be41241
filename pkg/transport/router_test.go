package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/auroradev/aurora-cli/pkg/progress"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type captured struct {
	frames []protocol.Envelope
	err    error
}

func (c *captured) record(payload []byte) error {
	var e protocol.Envelope
	if err := json.Unmarshal(payload, &e); err != nil {
		return err
	}
	c.frames = append(c.frames, e)
	return c.err
}

func (c *captured) Emit(payload []byte) error     { return c.record(payload) }
func (c *captured) SendText(payload []byte) error { return c.record(payload) }

func (c *captured) progressValues() []string {
	var out []string
	for _, f := range c.frames {
		if f.State == protocol.StateProgress {
			out = append(out, f.Message)
		}
	}
	return out
}

func feed(fn progress.Func, percents ...int) {
	fn(progress.Fetching())
	fn(progress.Preparing())
	fn(progress.Starting())
	for _, p := range percents {
		fn(progress.Percent(p))
	}
}

func TestWebSocketProgressOnlyMultiplesOfTen(t *testing.T) {
	ws := &captured{}
	r := NewRouter(nil, zaptest.NewLogger(t))
	r.AttachWebSocket(ws)

	feed(r.Progress(WebSocket, "device_upload", Small), 0, 3, 10, 17, 20, 20, 55, 100)

	assert.Equal(t, []string{"0", "10", "20", "20", "100"}, ws.progressValues())
	require.Len(t, ws.frames, 8)
	assert.Equal(t, protocol.StateState, ws.frames[0].State)
	assert.Equal(t, "Fetching...", ws.frames[0].Message)
	assert.Equal(t, "Starting...", ws.frames[2].Message)
}

func TestBigOperationsOnlyReportPhasesOnDBus(t *testing.T) {
	bus := &captured{}
	r := NewRouter(nil, zaptest.NewLogger(t))
	r.AttachDBus(bus)

	feed(r.Progress(DBus, "device_package_install", Big), 10, 50, 100)
	assert.Len(t, bus.frames, 3)
	assert.Empty(t, bus.progressValues())

	bus.frames = nil
	feed(r.Progress(DBus, "device_upload", Small), 1, 2, 3)
	assert.Equal(t, []string{"1", "2", "3"}, bus.progressValues())
}

func TestConsoleProgressOverwritesPreviousLine(t *testing.T) {
	var out bytes.Buffer
	r := NewRouter(NewConsole(&out), zaptest.NewLogger(t))

	fn := r.Progress(Console, "device_upload", Small)
	fn(progress.Percent(0))
	fn(progress.Percent(50))
	fn(progress.Percent(100))
	r.Send(protocol.Success("device_upload", "done"), Console)

	assert.Equal(t, "0%\n"+overwritePrevious+"50%\n"+overwritePrevious+"100%\ndone\n", out.String())
}

func TestConsoleZeroStartsFreshLine(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out)
	c.Print(protocol.Progress("k", 100))
	c.Print(protocol.Progress("k", 0))
	assert.Equal(t, 0, strings.Count(out.String(), overwritePrevious))
}

func TestConsoleBigOperationShowsPhasesOnly(t *testing.T) {
	var out bytes.Buffer
	r := NewRouter(NewConsole(&out), zaptest.NewLogger(t))
	r.SetPhaseText(progress.PhaseStarting, "Запуск...")

	feed(r.Progress(Console, "k", Big), 30, 60, 100)
	assert.Equal(t, "Fetching...\nPreparing...\nЗапуск...\n", out.String())
}

func TestMissingPeerDropsSilently(t *testing.T) {
	r := NewRouter(nil, zaptest.NewLogger(t))
	assert.NotPanics(t, func() {
		r.Send(protocol.Info("k", "x"), DBus)
		r.Send(protocol.Info("k", "x"), WebSocket)
		r.Send(protocol.Info("k", "x"), Console)
	})

	broken := &captured{err: errors.New("closed")}
	r.AttachWebSocket(broken)
	r.Send(protocol.Info("k", "x"), WebSocket)
	assert.Len(t, broken.frames, 1)
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]byte(`{"os_name":"Aurora OS","arch":"armv7hl"}`))
	assert.Contains(t, out, "Aurora OS")
	assert.Less(t, strings.Index(out, "os_name"), strings.Index(out, "arch"))

	out = RenderTable([]byte(`[{"name":"a","host":"1"},{"name":"b","host":"2"}]`))
	assert.Contains(t, out, "HOST")
	assert.Contains(t, out, "b")

	assert.Equal(t, "", RenderTable([]byte(`[]`)))
}

func TestSelectorEnvelopeOnConsole(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out)
	c.Print(protocol.SelectorEnvelope{Key: "k", Variants: []protocol.Variant{{Name: "a"}, {Name: "b"}}})
	assert.Equal(t, "1) a\n2) b\n", out.String())
}
