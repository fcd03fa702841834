package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct {
	Name string
}

func (c pingCommand) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type otherCommand struct{}

func (otherCommand) Validate() error { return nil }

type recordingLogger struct {
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.infos = append(l.infos, msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }

type recordingMetrics struct {
	names []string
	errs  []error
}

func (m *recordingMetrics) RecordCommandExecution(_ context.Context, name string, _ time.Duration, err error) {
	m.names = append(m.names, name)
	m.errs = append(m.errs, err)
}

var errBoom = errors.New("boom")

func TestCommandBus_Send(t *testing.T) {
	logger := &recordingLogger{}
	metrics := &recordingMetrics{}
	b := NewCommandBus(LoggingMiddleware(logger), MetricsMiddleware(metrics))

	require.NoError(t, b.Register(pingCommand{}, Typed(func(_ context.Context, cmd pingCommand) (interface{}, error) {
		if cmd.Name == "fail" {
			return nil, errBoom
		}
		return "pong " + cmd.Name, nil
	})))

	result, err := b.Send(context.Background(), pingCommand{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "pong a", result)

	_, err = b.Send(context.Background(), pingCommand{Name: "fail"})
	assert.True(t, errors.Is(err, errBoom))
	assert.Contains(t, err.Error(), "pingCommand failed")

	assert.Equal(t, []string{"Executing command", "Command succeeded", "Executing command"}, logger.infos)
	assert.Equal(t, []string{"Command failed"}, logger.errors)
	assert.Equal(t, []string{"pingCommand", "pingCommand"}, metrics.names)
	assert.Nil(t, metrics.errs[0])
}

func TestCommandBus_ValidationRunsBeforeHandler(t *testing.T) {
	b := NewCommandBus()
	called := false
	require.NoError(t, b.Register(pingCommand{}, Typed(func(context.Context, pingCommand) (interface{}, error) {
		called = true
		return nil, nil
	})))

	_, err := b.Send(context.Background(), pingCommand{})

	assert.Error(t, err)
	assert.False(t, called)
}

func TestCommandBus_RegistrationErrors(t *testing.T) {
	b := NewCommandBus()
	handler := Typed(func(context.Context, pingCommand) (interface{}, error) { return nil, nil })

	require.NoError(t, b.Register(pingCommand{}, handler))
	assert.Error(t, b.Register(pingCommand{}, handler))

	_, err := b.Send(context.Background(), otherCommand{})
	assert.True(t, errors.Is(err, ErrHandlerNotFound))
}

func TestTyped_RejectsOtherCommands(t *testing.T) {
	handler := Typed(func(context.Context, pingCommand) (interface{}, error) { return nil, nil })

	_, err := handler.Handle(context.Background(), otherCommand{})

	assert.True(t, errors.Is(err, ErrUnexpectedCommand))
}
