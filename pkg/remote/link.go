package remote

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"time"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// link is one authenticated SSH connection.
type link interface {
	// Exec runs command and waits for its exit status. timeout <= 0 waits forever.
	Exec(command string, timeout time.Duration) (execResult, error)
	Files() (fileTransfer, error)
	Close() error
}

type execResult struct {
	Stdout []byte
	Stderr []byte
	Status int
}

type fileTransfer interface {
	Create(path string) (io.WriteCloser, error)
	Open(path string) (io.ReadCloser, int64, error)
	Close() error
}

// Auth is a key file or a password.
type Auth interface {
	methods() ([]ssh.AuthMethod, error)
}

type KeyAuth struct {
	Path string
}

func (k KeyAuth) methods() ([]ssh.AuthMethod, error) {
	pem, err := os.ReadFile(k.Path)
	if err != nil {
		return nil, breverrors.WrapAndTrace(&breverrors.ConfigurationError{Setting: "ssh key " + k.Path})
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err, "unable to parse private key")
	}
	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

type PasswordAuth struct {
	Secret string
}

func (p PasswordAuth) methods() ([]ssh.AuthMethod, error) {
	return []ssh.AuthMethod{
		ssh.Password(p.Secret),
		ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = p.Secret
			}
			return answers, nil
		}),
	}, nil
}

// dialLink is replaced in tests.
var dialLink = dialSSH

func dialSSH(ctx context.Context, addr, user string, auth Auth, connectTimeout time.Duration) (link, error) {
	methods, err := auth.methods()
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	config := &ssh.ClientConfig{
		User: user,
		Auth: methods,
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			// devices and emulators are reflashed often; their host keys are not stable
			return nil
		},
		Timeout: connectTimeout,
	}

	dialer := net.Dialer{Timeout: connectTimeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &breverrors.ConnectionError{Host: addr, Reason: "unreachable", Err: err}
	}
	if connectTimeout > 0 {
		_ = netConn.SetDeadline(time.Now().Add(connectTimeout))
	}
	c, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		_ = netConn.Close()
		return nil, &breverrors.ConnectionError{Host: addr, Reason: "authentication failed", Err: err}
	}
	_ = netConn.SetDeadline(time.Time{})
	return &sshLink{addr: addr, client: ssh.NewClient(c, chans, reqs)}, nil
}

type sshLink struct {
	addr   string
	client *ssh.Client
}

func (l *sshLink) Exec(command string, timeout time.Duration) (execResult, error) {
	session, err := l.client.NewSession()
	if err != nil {
		return execResult{}, &breverrors.ConnectionError{Host: l.addr, Reason: "unable to open channel", Err: err}
	}
	defer session.Close() //nolint:errcheck // closed on every path, error is uninteresting after Wait

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if err := session.Start(command); err != nil {
		return execResult{}, &breverrors.ConnectionError{Host: l.addr, Reason: "unable to start command", Err: err}
	}

	waited := make(chan error, 1)
	go func() { waited <- session.Wait() }()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case err = <-waited:
	case <-timer:
		_ = session.Close()
		return execResult{}, &breverrors.ConnectionError{Host: l.addr, Reason: "status timeout after " + timeout.String()}
	}

	res := execResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}
	var exitErr *ssh.ExitError
	if breverrors.As(err, &exitErr) {
		res.Status = exitErr.ExitStatus()
		return res, nil
	}
	// includes *ssh.ExitMissingError: the channel dropped before an exit status arrived
	return execResult{}, &breverrors.ConnectionError{Host: l.addr, Reason: "no exit status", Err: err}
}

func (l *sshLink) Files() (fileTransfer, error) {
	client, err := sftp.NewClient(l.client)
	if err != nil {
		return nil, &breverrors.ConnectionError{Host: l.addr, Reason: "sftp subsystem unavailable", Err: err}
	}
	return &sftpTransfer{client: client}, nil
}

func (l *sshLink) Close() error {
	return l.client.Close() //nolint:wrapcheck // joined by Session.Close
}

type sftpTransfer struct {
	client *sftp.Client
}

func (s *sftpTransfer) Create(path string) (io.WriteCloser, error) {
	f, err := s.client.Create(path)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err, path)
	}
	return f, nil
}

func (s *sftpTransfer) Open(path string) (io.ReadCloser, int64, error) {
	f, err := s.client.Open(path)
	if err != nil {
		if isNoSuchFile(err) {
			return nil, 0, &breverrors.NotFoundError{What: path}
		}
		return nil, 0, breverrors.WrapAndTrace(err, path)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, breverrors.WrapAndTrace(err, path)
	}
	return f, info.Size(), nil
}

func isNoSuchFile(err error) bool {
	if breverrors.Is(err, os.ErrNotExist) {
		return true
	}
	var status *sftp.StatusError
	return breverrors.As(err, &status) && status.FxCode() == sftp.ErrSSHFxNoSuchFile
}

func (s *sftpTransfer) Close() error {
	return s.client.Close() //nolint:wrapcheck // joined by Session.Close
}
