package server

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"time"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/transport"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRetry = 5 * time.Second
	writeTimeout = 10 * time.Second
)

// TokenFunc yields the bearer token presented on every dial.
type TokenFunc func() (string, error)

func StaticToken(token string) TokenFunc {
	return func() (string, error) { return token, nil }
}

// WSClient keeps a connection to the backend open and redials after it drops.
type WSClient struct {
	URL     string
	Token   TokenFunc
	Socket  *transport.Socket
	Handler Handler
	Retry   time.Duration

	clientID string
	dialer   websocket.Dialer
}

func NewWSClient(url string, token TokenFunc, socket *transport.Socket, handler Handler) *WSClient {
	return &WSClient{
		URL:      url,
		Token:    token,
		Socket:   socket,
		Handler:  handler,
		Retry:    defaultRetry,
		clientID: uuid.NewString(),
		dialer: websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
			TLSClientConfig:  new(tls.Config),
		},
	}
}

// Run returns nil once ctx is cancelled. Dial errors are logged and retried.
func (c *WSClient) Run(ctx context.Context) error {
	if c.URL == "" {
		return &breverrors.ConfigurationError{Setting: "AURORA_WEBSOCKET_URL"}
	}
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			log.Warnf("dial %s: %v", c.URL, err)
		} else {
			log.Infof("connected to %s", c.URL)
			if err := serveConn(ctx, conn, c.Socket, c.Handler); err != nil {
				log.Warnf("connection to %s lost: %v", c.URL, err)
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.Retry):
		}
	}
}

func (c *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	token, err := c.Token()
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	head := http.Header{}
	if token != "" {
		head.Set("Authorization", "Bearer "+token)
	}
	head.Set("X-Client-Id", c.clientID)

	conn, resp, err := c.dialer.DialContext(ctx, c.URL, head)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close() //nolint:errcheck // body only read for the message
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, breverrors.Errorf("%v: HTTP %s: %s", err, resp.Status, body)
		}
		return nil, breverrors.WrapAndTrace(err)
	}
	return conn, nil
}

// Listener accepts backend connections on /ws. Only the newest socket is
// kept; an older one is closed when a new client arrives.
type Listener struct {
	Addr    string
	Socket  *transport.Socket
	Handler Handler

	upgrader websocket.Upgrader
}

func NewListener(addr string, socket *transport.Socket, handler Handler) *Listener {
	return &Listener{Addr: addr, Socket: socket, Handler: handler}
}

func (l *Listener) Engine(ctx context.Context) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", func(c *gin.Context) {
		conn, err := l.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warnf("upgrade from %s: %v", c.ClientIP(), err)
			return
		}
		log.Infof("client %s connected", c.ClientIP())
		if err := serveConn(ctx, conn, l.Socket, l.Handler); err != nil {
			log.Infof("client %s gone: %v", c.ClientIP(), err)
		}
	})
	return r
}

// Serve blocks until ctx is cancelled or the listener fails.
func (l *Listener) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              l.Addr,
		Handler:           l.Engine(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("listening on %s", l.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return breverrors.WrapAndTrace(err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		return breverrors.WrapAndTrace(srv.Shutdown(shutdownCtx))
	})
	return breverrors.WrapAndTrace(g.Wait())
}

// serveConn attaches conn as the live socket and dispatches every text frame
// on its own goroutine until the peer goes away or ctx ends.
func serveConn(ctx context.Context, conn *websocket.Conn, socket *transport.Socket, handler Handler) error {
	socket.Attach(conn)
	defer socket.Detach(conn)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			_ = conn.Close()
		case <-stop:
			_ = conn.Close()
		}
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return breverrors.WrapAndTrace(err)
		}
		if mt != websocket.TextMessage {
			log.Warn("non-text websocket message ignored")
			continue
		}
		go handler.Handle(ctx, data, transport.WebSocket)
	}
}
