// Package auth obtains the bearer token the WebSocket client presents.
package auth

import (
	"errors"
	"path/filepath"
	"strings"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/files"
	"github.com/golang-jwt/jwt"
	"github.com/spf13/afero"
)

const tokenFile = "token"

type Store interface {
	SaveToken(token string) error
	GetToken() (string, error)
	DeleteToken() error
}

type OAuth interface {
	DoDeviceAuthFlow(onLoginURL func(url string)) (string, error)
}

// FileStore keeps the token in ~/.aurora/token.
type FileStore struct {
	fs   afero.Fs
	home string
}

func NewFileStore(fs afero.Fs, auroraHome string) *FileStore {
	return &FileStore{fs: fs, home: auroraHome}
}

func (f *FileStore) path() string {
	return filepath.Join(f.home, tokenFile)
}

func (f *FileStore) SaveToken(token string) error {
	if err := f.fs.MkdirAll(f.home, 0o700); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	if err := afero.WriteFile(f.fs, f.path(), []byte(token), 0o600); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	return nil
}

// GetToken returns "" when nothing is stored.
func (f *FileStore) GetToken() (string, error) {
	exists, err := files.Exists(f.fs, f.path(), false)
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	if !exists {
		return "", nil
	}
	token, err := files.ReadString(f.fs, f.path())
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return strings.TrimSpace(token), nil
}

func (f *FileStore) DeleteToken() error {
	if err := f.fs.Remove(f.path()); err != nil && !errors.Is(err, afero.ErrFileNotFound) {
		return breverrors.WrapAndTrace(err)
	}
	return nil
}

type Auth struct {
	store                Store
	oauth                OAuth
	accessTokenValidator func(string) (bool, error)
}

func NewAuth(store Store, oauth OAuth) *Auth {
	return &Auth{
		store:                store,
		oauth:                oauth,
		accessTokenValidator: isAccessTokenValid,
	}
}

func (t *Auth) WithAccessTokenValidator(val func(string) (bool, error)) *Auth {
	t.accessTokenValidator = val
	return t
}

// GetFreshTokenOrLogin returns the stored token while it is valid and runs
// the device login flow otherwise.
func (t *Auth) GetFreshTokenOrLogin(onLoginURL func(url string)) (string, error) {
	token, err := t.store.GetToken()
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	if token != "" {
		valid, err := t.accessTokenValidator(token)
		if err != nil {
			return "", breverrors.WrapAndTrace(err)
		}
		if valid {
			return token, nil
		}
	}
	return t.Login(onLoginURL)
}

func (t *Auth) Login(onLoginURL func(url string)) (string, error) {
	token, err := t.oauth.DoDeviceAuthFlow(onLoginURL)
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	if err := t.store.SaveToken(token); err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return token, nil
}

func (t *Auth) Logout() error {
	return breverrors.WrapAndTrace(t.store.DeleteToken())
}

// isAccessTokenValid only checks the claims; the signature is the server's business.
func isAccessTokenValid(token string) (bool, error) {
	parser := jwt.Parser{}
	ptoken, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		ve := &jwt.ValidationError{}
		if errors.As(err, &ve) {
			return false, nil
		}
		return false, breverrors.WrapAndTrace(err)
	}
	if err := ptoken.Claims.Valid(); err != nil {
		return false, nil
	}
	return true, nil
}
