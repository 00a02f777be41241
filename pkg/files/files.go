package files

import (
	"io"
	"os"
	"path/filepath"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tweekmonster/luser"
)

const (
	auroraDirectory = ".aurora"
	configFileName  = "config.yaml"
	daemonPIDFile   = "service.pid"
	daemonLogFile   = "service.log"
	// relative to the emulator's shared folder
	emulatorKeyRelPath = "vmshare/ssh/private_keys/sdk"
)

func GetAuroraDirectory() string {
	return auroraDirectory
}

func GetHomeDir() (string, error) {
	usr, err := luser.Current()
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return usr.HomeDir, nil
}

func GetAuroraHome() (string, error) {
	home, err := GetHomeDir()
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return filepath.Join(home, auroraDirectory), nil
}

func GetConfigFilePath() (string, error) {
	auroraHome, err := GetAuroraHome()
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return filepath.Join(auroraHome, configFileName), nil
}

func GetServicePIDPath(auroraHome string) string {
	return filepath.Join(auroraHome, daemonPIDFile)
}

func GetServiceLogPath(auroraHome string) string {
	return filepath.Join(auroraHome, daemonLogFile)
}

func GetUserSSHConfigPath() (string, error) {
	home, err := GetHomeDir()
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return filepath.Join(home, ".ssh", "config"), nil
}

// GetEmulatorKeyPath derives the private key VirtualBox emulators accept
// from the machine's shared folder.
func GetEmulatorKeyPath(sharedFolder string) string {
	return filepath.Join(sharedFolder, emulatorKeyRelPath)
}

func Exists(fs afero.Fs, path string, isDir bool) (bool, error) {
	info, err := fs.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, breverrors.WrapAndTrace(err)
	}
	return info.IsDir() == isDir, nil
}

func ReadString(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	defer f.Close() //nolint:errcheck // read only

	dataBytes, err := io.ReadAll(f)
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return string(dataBytes), nil
}

// MakeAuroraHome creates ~/.aurora if missing.
func MakeAuroraHome(fs afero.Fs) (string, error) {
	auroraHome, err := GetAuroraHome()
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	if err := fs.MkdirAll(auroraHome, 0o755); err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return auroraHome, nil
}
