package errors

import (
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_errorNew(t *testing.T) {
	err := New("my error")
	assert.Equal(t, "my error", err.Error())

	assert.True(t, Is(err, err))
	otherErr := New("other error")
	assert.False(t, Is(err, otherErr))

	wrappedErr := Wrap(err, "wrap message")
	assert.True(t, Is(wrappedErr, err))
}

type MyError struct {
	SomeValue int
}

func (e MyError) Error() string {
	return fmt.Sprintf("my error: %d", e.SomeValue)
}

func Test_customError(t *testing.T) {
	errVal1 := MyError{SomeValue: 1}

	assert.True(t, As(errVal1, &MyError{}))
	// need to pass in ptr
	assert.Panics(t, func() {
		assert.False(t, As(errVal1, MyError{}))
	})

	wrappedErr := Wrap(errVal1, "wrap message")
	assert.True(t, Is(wrappedErr, errVal1))
	assert.True(t, As(wrappedErr, &MyError{}))
}

func Test_WrapAndTraceError(t *testing.T) {
	err := New("my error")

	wrap1 := WrapAndTrace(Errorf("wrap 1: %w", err))
	wrap2 := WrapAndTrace(Errorf("wrap 2: %w", wrap1))

	assert.True(t, Is(wrap2, err))
	assert.NotEqual(t, err, pkgerrors.Cause(wrap2))
	assert.Equal(t, err, Root(wrap2))
}

func Test_JoinError(t *testing.T) {
	err1 := New("my error 1")
	err2 := New("my error 2")

	joined := Join(err1, nil, err2)
	assert.True(t, Is(joined, err1))
	assert.True(t, Is(joined, err2))

	assert.Nil(t, Join(nil, nil))
}

func Test_TaxonomySurvivesWrap(t *testing.T) {
	err := WrapAndTrace(&ConnectionError{Host: "192.168.2.15:22", Reason: "timeout"})

	var connErr *ConnectionError
	assert.True(t, As(err, &connErr))
	assert.Equal(t, "192.168.2.15:22", connErr.Host)

	var userErr UserError
	assert.True(t, As(err, &userErr))
	assert.NotEmpty(t, userErr.Directive())

	toolErr := &ExternalToolError{Tool: "vboxmanage", NotFound: true}
	assert.Equal(t, "tool not found: vboxmanage", toolErr.Error())
}
