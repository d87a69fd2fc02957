package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var received []Event
	dispatcher.Subscribe(EventSessionStarted, func(_ context.Context, event Event) error {
		received = append(received, event)
		return nil
	})

	event := NewEvent(EventSessionStarted, "principal-1", domain.RoleUser)
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	require.Len(t, received, 1)
	assert.Equal(t, "principal-1", received[0].PrincipalID)
	assert.Equal(t, domain.RoleUser, received[0].Role)
	assert.NotEmpty(t, received[0].ID)
}

func TestDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var calls int
	dispatcher.Subscribe(EventSessionEnded, func(_ context.Context, _ Event) error {
		calls++
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), NewEvent(EventSessionStarted, "p", domain.RoleUser)))
	assert.Zero(t, calls)
}

func TestDispatcherContinuesPastHandlerErrors(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var calls int
	dispatcher.Subscribe(EventSessionRefreshed, func(_ context.Context, _ Event) error {
		return errors.New("handler failed")
	})
	dispatcher.Subscribe(EventSessionRefreshed, func(_ context.Context, _ Event) error {
		calls++
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), NewEvent(EventSessionRefreshed, "p", domain.RoleAdmin)))
	assert.Equal(t, 1, calls)
}
