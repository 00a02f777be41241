package remote

import (
	"strings"

	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
)

func parseIdentity(osRelease, platform []string) (entity.OSIdentity, error) {
	fields := parseKeyValues(osRelease)
	name := fields["PRETTY_NAME"]
	if name == "" {
		return entity.OSIdentity{}, &breverrors.ProtocolError{Command: "cat /etc/os-release", Reason: "PRETTY_NAME missing"}
	}
	version := fields["VERSION_ID"]
	if version == "" {
		return entity.OSIdentity{}, &breverrors.ProtocolError{Command: "cat /etc/os-release", Reason: "VERSION_ID missing"}
	}

	arch := ""
	for _, line := range platform {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		arch, _, _ = strings.Cut(line, "-")
		break
	}
	if arch == "" {
		return entity.OSIdentity{}, &breverrors.ProtocolError{Command: "cat /etc/rpm/platform", Reason: "architecture missing"}
	}
	return entity.OSIdentity{Name: name, Version: version, Arch: arch}, nil
}

// parseKeyValues reads shell-style KEY=value lines, unquoting values.
func parseKeyValues(lines []string) map[string]string {
	out := map[string]string{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		out[strings.TrimSpace(key)] = value
	}
	return out
}
