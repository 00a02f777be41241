package l10n

import (
	"testing"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestLocales(t *testing.T) {
	assert.Equal(t, "Not found", New("en_US.UTF-8").T(NotFound))
	assert.Equal(t, "Не найдено", New("ru_RU.UTF-8").T(NotFound))
	assert.Equal(t, "Connecting to 10.0.0.1:22...", New("").T(Connecting, "10.0.0.1:22"))
}

func TestErrorMessages(t *testing.T) {
	l := New("en")
	err := breverrors.WrapAndTrace(&breverrors.ConnectionError{Host: "192.168.2.15:22", Reason: "unreachable"})
	assert.Equal(t, "Connection to 192.168.2.15:22 failed: unreachable", l.Error(err))
	err = breverrors.WrapAndTrace(&breverrors.ConnectionError{Host: "192.168.2.15:22", Reason: "status timeout"})
	assert.Equal(t, "Connection to 192.168.2.15:22 failed: status timeout", l.Error(err))
	assert.Equal(t, "Ошибка подключения к 192.168.2.15:22: status timeout", New("ru").Error(err))

	err = breverrors.WrapAndTrace(&breverrors.NotFoundError{What: "/home/defaultuser/a.png"})
	assert.Equal(t, "Not found: /home/defaultuser/a.png", l.Error(err))

	err = breverrors.WrapAndTrace(&breverrors.ExternalToolError{Tool: "vboxmanage", NotFound: true})
	assert.Equal(t, "Required tool is not installed: vboxmanage", l.Error(err))

	assert.Equal(t, "Error: boom", l.Error(breverrors.New("boom")))
}
