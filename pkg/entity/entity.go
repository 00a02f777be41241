package entity

import (
	"fmt"
	"net"
	"strconv"

	"github.com/auroradev/aurora-cli/pkg/selector"
)

type TargetKind string

const (
	TargetDevice   TargetKind = "device"
	TargetEmulator TargetKind = "emulator"
)

// Credential is either a private key path or a password; KeyPath wins when both are set.
type Credential struct {
	KeyPath  string `json:"key_path,omitempty" mapstructure:"key_path"`
	Password string `json:"-" mapstructure:"password"`
}

func (c Credential) IsEmpty() bool {
	return c.KeyPath == "" && c.Password == ""
}

// Target is everything needed to open a remote session. It is built by
// resource discovery and is not modified while a command runs.
type Target struct {
	Kind       TargetKind
	Name       string
	Host       string
	Port       int
	Credential Credential
	// DevelSu is the privilege-escalation secret on physical devices.
	DevelSu string
}

func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t Target) ID() selector.ID {
	return selector.HashID(string(t.Kind) + ":" + t.Addr())
}

type Device struct {
	Name       string
	Host       string
	Port       int
	Credential Credential
	DevelSu    string
}

func (d Device) ID() selector.ID {
	return selector.HashID(d.Host)
}

func (d Device) DisplayName() string {
	if d.Name != "" {
		return fmt.Sprintf("%s (%s)", d.Name, d.Host)
	}
	return d.Host
}

func (d Device) Target() Target {
	port := d.Port
	if port == 0 {
		port = 22
	}
	return Target{
		Kind:       TargetDevice,
		Name:       d.DisplayName(),
		Host:       d.Host,
		Port:       port,
		Credential: d.Credential,
		DevelSu:    d.DevelSu,
	}
}

type Emulator struct {
	UUID         string
	Name         string
	SharedFolder string
	KeyPath      string
	Running      bool
}

func (e Emulator) ID() selector.ID {
	return selector.HashID(e.UUID)
}

func (e Emulator) DisplayName() string {
	return e.Name
}

func (e Emulator) Target(port int) Target {
	return Target{
		Kind:       TargetEmulator,
		Name:       e.Name,
		Host:       "localhost",
		Port:       port,
		Credential: Credential{KeyPath: e.KeyPath},
	}
}

// Package is an installed application, identified by its dotted package id.
type Package struct {
	Name string
}

func (p Package) ID() selector.ID {
	return selector.HashID(p.Name)
}

func (p Package) DisplayName() string {
	return p.Name
}

// OSIdentity is read from /etc/os-release and /etc/rpm/platform on connect.
type OSIdentity struct {
	Name    string `json:"os_name"`
	Version string `json:"os_version"`
	Arch    string `json:"arch"`
}
