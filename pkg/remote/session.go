// Package remote holds the SSH session used by every device and emulator
// operation. A Session carries two connections: a status channel for short
// calls guarded by a timeout, and a listen channel for long or detached work
// and file transfer.
package remote

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/alessio/shellescape"
	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/progress"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type Role int

const (
	RoleUser Role = iota
	RoleRoot
)

func (r Role) Username() string {
	if r == RoleRoot {
		return "root"
	}
	return "defaultuser"
}

const (
	// UploadDir receives every uploaded file.
	UploadDir   = "/home/defaultuser/Downloads"
	closeReason = "aurora-cli: session closed"

	listenConnectTimeout = 15 * time.Second
)

// Conn is the part of a Session that features use. *Session implements it.
type Conn interface {
	Identity() entity.OSIdentity
	Call(command string) ([]string, error)
	CallPrivileged(command string) ([]string, error)
	RunFireAndForget(command string) (string, error)
	RunAndWait(command string) ([]string, error)
	Upload(localPath string, onProgress progress.Func) (string, error)
	Download(remotePath, localPath string, onProgress progress.Func) error
	InstallPackage(remotePath, oldName string) error
	RemovePackage(name string, keepUserData bool) error
	ListInstalledPackages() ([]string, error)
	Close() error
}

type Options struct {
	Auth Auth
	Host string
	Port int
	Role Role
	// StatusTimeout bounds Call; nil means unbounded.
	StatusTimeout *time.Duration
	// DevelSu is the privilege secret; only physical devices have one.
	DevelSu string
	Log     *zap.Logger
	Fs      afero.Fs
}

// AuthFor picks key auth when a key path is set, password auth otherwise.
func AuthFor(c entity.Credential) (Auth, error) {
	switch {
	case c.KeyPath != "":
		return KeyAuth{Path: c.KeyPath}, nil
	case c.Password != "":
		return PasswordAuth{Secret: c.Password}, nil
	default:
		return nil, &breverrors.ConfigurationError{Setting: "ssh key or password"}
	}
}

// OptionsFor builds connect options for a catalog target.
func OptionsFor(t entity.Target, role Role, statusTimeout *time.Duration, log *zap.Logger) (Options, error) {
	auth, err := AuthFor(t.Credential)
	if err != nil {
		return Options{}, breverrors.WrapAndTrace(err)
	}
	return Options{
		Auth:          auth,
		Host:          t.Host,
		Port:          t.Port,
		Role:          role,
		StatusTimeout: statusTimeout,
		DevelSu:       t.DevelSu,
		Log:           log,
	}, nil
}

type Session struct {
	addr          string
	role          Role
	statusTimeout time.Duration
	develSu       string
	log           *zap.Logger
	fs            afero.Fs

	status link
	listen link

	filesMu sync.Mutex
	files   fileTransfer

	identity entity.OSIdentity

	closeOnce sync.Once
	closeErr  error
}

var _ Conn = &Session{}

// Connect opens both channels and reads the OS identity. On any failure
// everything opened so far is closed again.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	if opts.Auth == nil {
		return nil, breverrors.WrapAndTrace(&breverrors.ConfigurationError{Setting: "ssh key or password"})
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	s := &Session{
		addr:    addr,
		role:    opts.Role,
		develSu: opts.DevelSu,
		log:     opts.Log.Named("remote").With(zap.String("addr", addr)),
		fs:      opts.Fs,
	}
	connectTimeout := listenConnectTimeout
	if opts.StatusTimeout != nil {
		s.statusTimeout = *opts.StatusTimeout
		connectTimeout = *opts.StatusTimeout
	}

	status, err := dialLink(ctx, addr, opts.Role.Username(), opts.Auth, connectTimeout)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	s.status = status

	listen, err := dialLink(ctx, addr, opts.Role.Username(), opts.Auth, listenConnectTimeout)
	if err != nil {
		_ = status.Close()
		return nil, breverrors.WrapAndTrace(err)
	}
	s.listen = listen

	identity, err := s.probeIdentity()
	if err != nil {
		_ = s.Close()
		return nil, breverrors.WrapAndTrace(err)
	}
	s.identity = identity
	s.log.Debug("connected", zap.String("os", identity.Name), zap.String("version", identity.Version), zap.String("arch", identity.Arch))
	return s, nil
}

func (s *Session) probeIdentity() (entity.OSIdentity, error) {
	release, err := s.Call("cat /etc/os-release")
	if err != nil {
		return entity.OSIdentity{}, breverrors.WrapAndTrace(err)
	}
	platform, err := s.Call("cat /etc/rpm/platform")
	if err != nil {
		return entity.OSIdentity{}, breverrors.WrapAndTrace(err)
	}
	return parseIdentity(release, platform)
}

func (s *Session) Identity() entity.OSIdentity {
	return s.identity
}

func (s *Session) Addr() string {
	return s.addr
}

// Call runs command on the status channel and returns its stdout lines,
// whatever the exit status.
func (s *Session) Call(command string) ([]string, error) {
	res, err := s.status.Exec(command, s.statusTimeout)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	return splitLines(res.Stdout), nil
}

// CallPrivileged runs command as root through devel-su.
func (s *Session) CallPrivileged(command string) ([]string, error) {
	if s.develSu == "" {
		return nil, breverrors.WrapAndTrace(&breverrors.ConfigurationError{Setting: "devel-su password"})
	}
	wrapped := fmt.Sprintf("echo %s | devel-su sh -c %s",
		shellescape.Quote(s.develSu), shellescape.Quote(command))
	return s.Call(wrapped)
}

// RunFireAndForget starts command detached on the listen channel and returns
// the remote log file that collects its output.
func (s *Session) RunFireAndForget(command string) (string, error) {
	logPath := fmt.Sprintf("/tmp/aurora-run-%s.log", uuid.NewString())
	wrapped := fmt.Sprintf("nohup sh -c %s > %s 2>&1 &", shellescape.Quote(command), logPath)
	res, err := s.listen.Exec(wrapped, 0)
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	if res.Status != 0 {
		return "", breverrors.WrapAndTrace(&breverrors.ExternalToolError{Tool: "nohup", Status: res.Status, Stderr: string(res.Stderr)})
	}
	s.log.Debug("detached", zap.String("command", command), zap.String("log", logPath))
	return logPath, nil
}

// RunAndWait runs command on the listen channel without a timeout.
func (s *Session) RunAndWait(command string) ([]string, error) {
	res, err := s.listen.Exec(command, 0)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	return splitLines(res.Stdout), nil
}

func (s *Session) runChecked(tool, command string) ([]string, error) {
	res, err := s.listen.Exec(command, 0)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	if res.Status != 0 {
		return nil, &breverrors.ExternalToolError{Tool: tool, Status: res.Status, Stderr: strings.TrimSpace(string(res.Stderr))}
	}
	return splitLines(res.Stdout), nil
}

func (s *Session) transfer() (fileTransfer, error) {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()
	if s.files != nil {
		return s.files, nil
	}
	files, err := s.listen.Files()
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	s.files = files
	return files, nil
}

// RemoteUploadPath is where Upload puts localPath.
func RemoteUploadPath(localPath string) string {
	return path.Join(UploadDir, path.Base(strings.ReplaceAll(localPath, "\\", "/")))
}

// Close is safe to call any number of times; only the first call does work.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.log.Debug(closeReason)
		var errs []error
		s.filesMu.Lock()
		if s.files != nil {
			errs = append(errs, s.files.Close())
		}
		s.filesMu.Unlock()
		if s.status != nil {
			errs = append(errs, s.status.Close())
		}
		if s.listen != nil {
			errs = append(errs, s.listen.Close())
		}
		s.closeErr = breverrors.Join(errs...)
	})
	return s.closeErr
}

func splitLines(b []byte) []string {
	text := strings.TrimRight(string(b), "\r\n")
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}
