package transport

import (
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/godbus/dbus/v5"
)

// SignalEmitter sends envelopes as <iface>.Listen(json) signals.
type SignalEmitter struct {
	conn  *dbus.Conn
	path  dbus.ObjectPath
	iface string
}

var _ Emitter = &SignalEmitter{}

func NewSignalEmitter(conn *dbus.Conn, path, iface string) *SignalEmitter {
	return &SignalEmitter{conn: conn, path: dbus.ObjectPath(path), iface: iface}
}

func (s *SignalEmitter) Emit(payload []byte) error {
	if err := s.conn.Emit(s.path, s.iface+".Listen", string(payload)); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	return nil
}
