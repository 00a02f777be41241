// Package catalog lists the physical devices an operator configured.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/files"
	"github.com/jinzhu/copier"
	"github.com/kevinburke/ssh_config"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// deviceEntry is one item of the `devices:` list in config.yaml.
type deviceEntry struct {
	Name     string `mapstructure:"name"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	KeyPath  string `mapstructure:"key_path"`
	Password string `mapstructure:"password"`
	DevelSu  string `mapstructure:"devel_su"`
}

type Devices struct {
	v             *viper.Viper
	fs            afero.Fs
	sshConfigPath string
}

// NewDevices reads from v (the global viper when nil). Hosts that are
// aliases in the ssh config at sshConfigPath are resolved through it.
func NewDevices(v *viper.Viper, fs afero.Fs, sshConfigPath string) *Devices {
	if v == nil {
		v = viper.GetViper()
	}
	return &Devices{v: v, fs: fs, sshConfigPath: sshConfigPath}
}

func (d *Devices) List(_ context.Context) ([]entity.Device, error) {
	var entries []deviceEntry
	if err := d.v.UnmarshalKey("devices", &entries); err != nil {
		return nil, breverrors.WrapAndTrace(&breverrors.ConfigurationError{Setting: "devices"}, err.Error())
	}
	aliases, err := d.loadSSHConfig()
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}

	devices := make([]entity.Device, 0, len(entries))
	for _, entry := range entries {
		if entry.Host == "" {
			continue
		}
		var dev entity.Device
		if err := copier.Copy(&dev, &entry); err != nil {
			return nil, breverrors.WrapAndTrace(err)
		}
		dev.Credential = entity.Credential{KeyPath: expandHome(entry.KeyPath), Password: entry.Password}
		if aliases != nil {
			resolveAlias(aliases, &dev)
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func (d *Devices) loadSSHConfig() (*ssh_config.Config, error) {
	if d.sshConfigPath == "" {
		return nil, nil
	}
	exists, err := files.Exists(d.fs, d.sshConfigPath, false)
	if err != nil || !exists {
		return nil, breverrors.WrapAndTrace(err)
	}
	text, err := files.ReadString(d.fs, d.sshConfigPath)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	cfg, err := ssh_config.Decode(strings.NewReader(text))
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	return cfg, nil
}

func resolveAlias(cfg *ssh_config.Config, dev *entity.Device) {
	alias := dev.Host
	if hostname, _ := cfg.Get(alias, "HostName"); hostname != "" {
		dev.Host = hostname
		if dev.Name == "" {
			dev.Name = alias
		}
	}
	if dev.Port == 0 {
		if port, _ := cfg.Get(alias, "Port"); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				dev.Port = p
			}
		}
	}
	if dev.Credential.IsEmpty() {
		if key, _ := cfg.Get(alias, "IdentityFile"); key != "" {
			dev.Credential.KeyPath = expandHome(key)
		}
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
