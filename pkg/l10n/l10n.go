// Package l10n holds the user-visible messages of the feature layer in
// English and Russian.
package l10n

import (
	"strings"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys double as the English text.
const (
	NotFound           = "Not found"
	SearchingDevices   = "Searching devices..."
	SearchingEmulators = "Searching emulators..."
	SearchingPackages  = "Searching packages..."
	Connecting         = "Connecting to %s..."
	Fetching           = "Fetching..."
	Preparing          = "Preparing..."
	Starting           = "Starting..."
	UploadDone         = "File uploaded: %s"
	DownloadDone       = "File downloaded: %s"
	InstallDone        = "Package installed: %s"
	RemoveDone         = "Package removed: %s"
	RunDone            = "Package started: %s"
	EmulatorStarted    = "Emulator started: %s"
	EmulatorRunning    = "Emulator is already running: %s"
	UnknownRequest     = "Unknown request: %s"
	BadRequest         = "Malformed request: %s"
	Choose             = "Choose one"

	connectionFailed = "Connection to %s failed: %s"
	notFoundItem     = "Not found: %s"
	protocolFailed   = "Unexpected answer from the target: %s"
	toolMissing      = "Required tool is not installed: %s"
	toolFailed       = "%s failed with status %d"
	missingConfig    = "Missing configuration: %s"
	genericFailure   = "Error: %s"
)

var russian = map[string]string{
	NotFound:           "Не найдено",
	SearchingDevices:   "Поиск устройств...",
	SearchingEmulators: "Поиск эмуляторов...",
	SearchingPackages:  "Поиск пакетов...",
	Connecting:         "Подключение к %s...",
	Fetching:           "Получение...",
	Preparing:          "Подготовка...",
	Starting:           "Запуск...",
	UploadDone:         "Файл загружен: %s",
	DownloadDone:       "Файл скачан: %s",
	InstallDone:        "Пакет установлен: %s",
	RemoveDone:         "Пакет удален: %s",
	RunDone:            "Пакет запущен: %s",
	EmulatorStarted:    "Эмулятор запущен: %s",
	EmulatorRunning:    "Эмулятор уже запущен: %s",
	UnknownRequest:     "Неизвестный запрос: %s",
	BadRequest:         "Некорректный запрос: %s",
	Choose:             "Выберите",
	connectionFailed:   "Ошибка подключения к %s: %s",
	notFoundItem:       "Не найдено: %s",
	protocolFailed:     "Неожиданный ответ устройства: %s",
	toolMissing:        "Не установлена утилита: %s",
	toolFailed:         "%s завершился с кодом %d",
	missingConfig:      "Не задана настройка: %s",
	genericFailure:     "Ошибка: %s",
}

func init() {
	for key, text := range russian {
		_ = message.SetString(language.Russian, key, text)
	}
}

type Localizer struct {
	printer *message.Printer
}

// New picks Russian for any "ru*" locale string, English otherwise.
func New(locale string) *Localizer {
	tag := language.English
	if strings.HasPrefix(strings.ToLower(locale), "ru") {
		tag = language.Russian
	}
	return &Localizer{printer: message.NewPrinter(tag)}
}

func (l *Localizer) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// Error renders err for the person at the other end of a transport.
func (l *Localizer) Error(err error) string {
	var (
		connErr  *breverrors.ConnectionError
		protoErr *breverrors.ProtocolError
		toolErr  *breverrors.ExternalToolError
		cfgErr   *breverrors.ConfigurationError
		nfErr    *breverrors.NotFoundError
	)
	switch {
	case breverrors.As(err, &connErr):
		return l.T(connectionFailed, connErr.Host, connErr.Reason)
	case breverrors.As(err, &protoErr):
		return l.T(protocolFailed, protoErr.Reason)
	case breverrors.As(err, &toolErr):
		if toolErr.NotFound {
			return l.T(toolMissing, toolErr.Tool)
		}
		return l.T(toolFailed, toolErr.Tool, toolErr.Status)
	case breverrors.As(err, &cfgErr):
		return l.T(missingConfig, cfgErr.Setting)
	case breverrors.As(err, &nfErr):
		if nfErr.What == "" {
			return l.T(NotFound)
		}
		return l.T(notFoundItem, nfErr.What)
	default:
		return l.T(genericFailure, breverrors.Root(err).Error())
	}
}
