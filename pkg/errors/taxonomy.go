package errors

import "fmt"

// ConnectionError covers authentication failures, unreachable hosts and timeouts.
type ConnectionError struct {
	Host   string
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection to %s failed: %s: %v", e.Host, e.Reason, e.Err)
	}
	return fmt.Sprintf("connection to %s failed: %s", e.Host, e.Reason)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Directive() string {
	return "check that the target is powered on and reachable over ssh"
}

// ProtocolError means the remote side answered with malformed or incomplete output.
type ProtocolError struct {
	Command string
	Reason  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected output from %q: %s", e.Command, e.Reason)
}

func (e *ProtocolError) Directive() string {
	return "the target may run an unsupported OS version"
}

type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.What)
}

func (e *NotFoundError) Directive() string {
	return "refresh the resource list and try again"
}

// ExternalToolError reports a missing binary or a failed invocation of one.
type ExternalToolError struct {
	Tool     string
	NotFound bool
	Status   int
	Stderr   string
}

func (e *ExternalToolError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("tool not found: %s", e.Tool)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.Status, e.Stderr)
}

func (e *ExternalToolError) Directive() string {
	if e.NotFound {
		return fmt.Sprintf("install %s and make sure it is on PATH", e.Tool)
	}
	return ""
}

// ConfigurationError is a missing credential, key or setting.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Setting)
}

func (e *ConfigurationError) Directive() string {
	return "add it to ~/.aurora/config.yaml or the matching AURORA_* variable"
}

var (
	_ UserError = &ConnectionError{}
	_ UserError = &ProtocolError{}
	_ UserError = &NotFoundError{}
	_ UserError = &ExternalToolError{}
	_ UserError = &ConfigurationError{}
)
