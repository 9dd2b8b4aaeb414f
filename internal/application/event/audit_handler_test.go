package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordedEvent struct {
	shared.BaseDomainEvent
}

func TestAuditLogHandler_Handle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := NewAuditLogHandler(zap.New(core))

	aggID := uuid.New()
	evt := &recordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("billing.invoice.paid", "Invoice", aggID),
	}

	err := handler.Handle(context.Background(), evt)
	require.NoError(t, err)

	entries := logs.FilterMessage("domain event").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "billing.invoice.paid", fields["event_type"])
	assert.Equal(t, aggID.String(), fields["aggregate_id"])
	assert.Equal(t, "Invoice", fields["aggregate_type"])
}

func TestAuditLogHandler_SubscribesToAllEvents(t *testing.T) {
	handler := NewAuditLogHandler(zap.NewNop())
	assert.Empty(t, handler.EventTypes())
}
