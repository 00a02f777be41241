package config

import (
	"os"
	"strconv"
	"time"
)

type EnvVarName string // should be caps with underscore

const (
	dbusBusName      EnvVarName = "AURORA_DBUS_BUS_NAME"
	dbusObjectPath   EnvVarName = "AURORA_DBUS_OBJECT_PATH"
	dbusInterface    EnvVarName = "AURORA_DBUS_INTERFACE"
	websocketURL     EnvVarName = "AURORA_WEBSOCKET_URL"
	websocketToken   EnvVarName = "AURORA_WEBSOCKET_TOKEN" //nolint:gosec // env var name, not a secret
	websocketListen  EnvVarName = "AURORA_WEBSOCKET_LISTEN"
	authURL          EnvVarName = "AURORA_AUTH_URL"
	authPollAttempts EnvVarName = "AURORA_AUTH_POLL_ATTEMPTS"
	authPollStep     EnvVarName = "AURORA_AUTH_POLL_STEP"
	statusTimeout    EnvVarName = "AURORA_STATUS_TIMEOUT"
	workerCount      EnvVarName = "AURORA_WORKERS"
	sentryURL        EnvVarName = "AURORA_SENTRY_URL"
	logLevel         EnvVarName = "AURORA_LOG_LEVEL"
	language         EnvVarName = "AURORA_LANG"
	vboxManage       EnvVarName = "AURORA_VBOXMANAGE"
	emulatorSSHPort  EnvVarName = "AURORA_EMULATOR_SSH_PORT"
)

const defaultStatusDelay = 10 * time.Second

type ConstantsConfig struct{}

func NewConstants() *ConstantsConfig {
	return &ConstantsConfig{}
}

func (c ConstantsConfig) GetDBusBusName() string {
	return getEnvOrDefault(dbusBusName, "com.auroradev.cli")
}

func (c ConstantsConfig) GetDBusObjectPath() string {
	return getEnvOrDefault(dbusObjectPath, "/com/auroradev/cli")
}

func (c ConstantsConfig) GetDBusInterface() string {
	return getEnvOrDefault(dbusInterface, "com.auroradev.cli")
}

func (c ConstantsConfig) GetWebSocketURL() string {
	return getEnvOrDefault(websocketURL, "")
}

func (c ConstantsConfig) GetWebSocketToken() string {
	return getEnvOrDefault(websocketToken, "")
}

func (c ConstantsConfig) GetWebSocketListenAddr() string {
	return getEnvOrDefault(websocketListen, "127.0.0.1:3024")
}

func (c ConstantsConfig) GetAuthURL() string {
	return getEnvOrDefault(authURL, "")
}

func (c ConstantsConfig) GetAuthPollAttempts() int {
	return getIntOrDefault(authPollAttempts, 30)
}

func (c ConstantsConfig) GetAuthPollStep() time.Duration {
	return getDurationOrDefault(authPollStep, time.Second)
}

// GetStatusTimeout bounds every status-channel call.
func (c ConstantsConfig) GetStatusTimeout() time.Duration {
	return getDurationOrDefault(statusTimeout, defaultStatusDelay)
}

func (c ConstantsConfig) GetWorkerCount() int {
	return getIntOrDefault(workerCount, 4)
}

func (c ConstantsConfig) GetSentryURL() string {
	return getEnvOrDefault(sentryURL, "")
}

func (c ConstantsConfig) GetLogLevel() string {
	return getEnvOrDefault(logLevel, "")
}

func (c ConstantsConfig) GetLanguage() string {
	return getEnvOrDefault(language, os.Getenv("LANG"))
}

func (c ConstantsConfig) GetVBoxManage() string {
	return getEnvOrDefault(vboxManage, "vboxmanage")
}

func (c ConstantsConfig) GetEmulatorSSHPort() int {
	return getIntOrDefault(emulatorSSHPort, 2223)
}

func getEnvOrDefault(envVarName EnvVarName, defaultVal string) string {
	val := os.Getenv(string(envVarName))
	if val == "" {
		return defaultVal
	}
	return val
}

func getIntOrDefault(envVarName EnvVarName, defaultVal int) int {
	val, err := strconv.Atoi(getEnvOrDefault(envVarName, ""))
	if err != nil || val <= 0 {
		return defaultVal
	}
	return val
}

func getDurationOrDefault(envVarName EnvVarName, defaultVal time.Duration) time.Duration {
	val, err := time.ParseDuration(getEnvOrDefault(envVarName, ""))
	if err != nil || val <= 0 {
		return defaultVal
	}
	return val
}

var GlobalConfig = NewConstants()
