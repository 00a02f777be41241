// Package transport delivers envelopes to whichever front-end issued the
// request: the console, a D-Bus signal, or the open WebSocket.
package transport

import (
	"sync"

	"github.com/auroradev/aurora-cli/pkg/progress"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"go.uber.org/zap"
)

type Transport int

const (
	Console Transport = iota
	DBus
	WebSocket
)

func (t Transport) String() string {
	switch t {
	case DBus:
		return "dbus"
	case WebSocket:
		return "websocket"
	default:
		return "console"
	}
}

// Size tells the progress factory how chatty an operation may be.
type Size int

const (
	Small Size = iota
	// Big operations only report phases on the console and D-Bus.
	Big
)

// Emitter publishes one encoded envelope as a D-Bus signal.
type Emitter interface {
	Emit(payload []byte) error
}

// Sender writes one encoded envelope as a WebSocket text frame.
type Sender interface {
	SendText(payload []byte) error
}

type Router struct {
	console *Printer
	log     *zap.Logger

	mu     sync.RWMutex
	dbus   Emitter
	socket Sender

	phaseText map[progress.Phase]string
}

func NewRouter(console *Printer, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		console: console,
		log:     log.Named("transport"),
		phaseText: map[progress.Phase]string{
			progress.PhaseFetching:  "Fetching...",
			progress.PhasePreparing: "Preparing...",
			progress.PhaseStarting:  "Starting...",
		},
	}
}

// SetPhaseText replaces the fixed text sent for a progress phase.
func (r *Router) SetPhaseText(phase progress.Phase, text string) {
	r.phaseText[phase] = text
}

func (r *Router) AttachDBus(e Emitter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbus = e
}

func (r *Router) AttachWebSocket(s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.socket = s
}

// Send delivers out on tr. Delivery to D-Bus and WebSocket is fire-and-forget:
// a missing or broken peer is logged and the envelope dropped.
func (r *Router) Send(out protocol.Outgoing, tr Transport) {
	switch tr {
	case Console:
		if r.console != nil {
			r.console.Print(out)
		}
	case DBus, WebSocket:
		payload, err := protocol.Encode(out)
		if err != nil {
			r.log.Error("encode envelope", zap.String("key", out.RequestKey()), zap.Error(err))
			return
		}
		r.mu.RLock()
		dbus, socket := r.dbus, r.socket
		r.mu.RUnlock()

		if tr == DBus {
			if dbus == nil {
				r.log.Warn("no d-bus connection, dropping envelope", zap.String("key", out.RequestKey()))
				return
			}
			err = dbus.Emit(payload)
		} else {
			if socket == nil {
				r.log.Warn("no websocket, dropping envelope", zap.String("key", out.RequestKey()))
				return
			}
			err = socket.SendText(payload)
		}
		if err != nil {
			r.log.Warn("send envelope", zap.Stringer("transport", tr), zap.Error(err))
		}
	}
}

// Progress returns the progress callback for one operation. Phases become
// State events; percentages are thinned per transport and size.
func (r *Router) Progress(tr Transport, key string, size Size) progress.Func {
	return func(e progress.Event) {
		if e.IsPhase() {
			r.Send(protocol.Status(key, r.phaseText[e.Phase]), tr)
			return
		}
		switch {
		case tr == WebSocket:
			if e.Percent%10 != 0 {
				return
			}
		case size == Big:
			return
		}
		r.Send(protocol.Progress(key, e.Percent), tr)
	}
}
