package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceTargetDefaultsPort(t *testing.T) {
	d := Device{Host: "192.168.2.15", Credential: Credential{KeyPath: "/k"}}
	target := d.Target()
	assert.Equal(t, 22, target.Port)
	assert.Equal(t, "192.168.2.15:22", target.Addr())
	assert.Equal(t, TargetDevice, target.Kind)
}

func TestIDsAreStableAndDistinct(t *testing.T) {
	a := Device{Host: "192.168.2.15"}
	b := Device{Host: "192.168.2.15", Name: "renamed"}
	c := Device{Host: "192.168.2.16"}
	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())

	e := Emulator{UUID: "0ac4a2c4-7d1e-4b5d-9a3f-1f0d8e1c2b3a", Name: "AuroraOS--5.1.3.85-base"}
	assert.Equal(t, e.ID(), Emulator{UUID: e.UUID}.ID())
}

func TestEmulatorTarget(t *testing.T) {
	e := Emulator{UUID: "u", Name: "AuroraOS", KeyPath: "/share/vmshare/ssh/private_keys/sdk"}
	target := e.Target(2223)
	assert.Equal(t, "localhost:2223", target.Addr())
	assert.Equal(t, "/share/vmshare/ssh/private_keys/sdk", target.Credential.KeyPath)
	assert.Equal(t, TargetEmulator, target.Kind)
}
