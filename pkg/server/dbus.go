// Package server hosts the long-running front-ends: the D-Bus service and
// the WebSocket client and listener. Each one decodes requests, hands them
// to the dispatcher on its own goroutine and lets the router deliver
// envelopes back over the same transport.
package server

import (
	"context"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/auroradev/aurora-cli/pkg/transport"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"go.uber.org/zap"
)

// Handler runs one raw request and delivers every envelope it produces on tr.
type Handler interface {
	Handle(ctx context.Context, raw []byte, tr transport.Transport) protocol.Outgoing
}

type DBusConfig struct {
	BusName    string
	ObjectPath string
	Interface  string
	SystemBus  bool
}

// DBusService owns the bus name and exports a single Call(json) method.
type DBusService struct {
	cfg     DBusConfig
	conn    *dbus.Conn
	handler Handler
	router  *transport.Router
	log     *zap.Logger
}

func NewDBusService(cfg DBusConfig, handler Handler, router *transport.Router, log *zap.Logger) *DBusService {
	return &DBusService{
		cfg:     cfg,
		handler: handler,
		router:  router,
		log:     log.Named("dbus"),
	}
}

// dbusObject is what gets exported; every exported method on it becomes a
// D-Bus method.
type dbusObject struct {
	ctx     context.Context
	service *DBusService
}

// Call returns at once; results arrive as Listen signals.
func (o *dbusObject) Call(request string) *dbus.Error {
	go o.service.handler.Handle(o.ctx, []byte(request), transport.DBus)
	return nil
}

func (s *DBusService) introspection() introspect.Introspectable {
	node := &introspect.Node{
		Name: s.cfg.ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: s.cfg.Interface,
				Methods: []introspect.Method{{
					Name: "Call",
					Args: []introspect.Arg{{Name: "request", Type: "s", Direction: "in"}},
				}},
				Signals: []introspect.Signal{{
					Name: "Listen",
					Args: []introspect.Arg{{Name: "envelope", Type: "s"}},
				}},
			},
		},
	}
	return introspect.NewIntrospectable(node)
}

// Serve claims the bus name and blocks until ctx is done.
func (s *DBusService) Serve(ctx context.Context) error {
	connect, bus := dbus.ConnectSessionBus, "session bus"
	if s.cfg.SystemBus {
		connect, bus = dbus.ConnectSystemBus, "system bus"
	}
	conn, err := connect()
	if err != nil {
		return &breverrors.ConnectionError{Host: bus, Reason: "connect", Err: err}
	}
	s.conn = conn
	defer conn.Close() //nolint:errcheck // shutting down

	path := dbus.ObjectPath(s.cfg.ObjectPath)
	if err := conn.Export(&dbusObject{ctx: ctx, service: s}, path, s.cfg.Interface); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	if err := conn.Export(s.introspection(), path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	reply, err := conn.RequestName(s.cfg.BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return breverrors.Errorf("bus name %s is already owned", s.cfg.BusName)
	}

	s.router.AttachDBus(transport.NewSignalEmitter(conn, s.cfg.ObjectPath, s.cfg.Interface))
	s.log.Info("serving", zap.String("name", s.cfg.BusName), zap.String("path", s.cfg.ObjectPath))

	<-ctx.Done()
	s.router.AttachDBus(nil)
	return nil
}
