package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zepzep/zepzep-backend/pkg/config"
	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
	"github.com/zepzep/zepzep-backend/pkg/outbox"
	"github.com/zepzep/zepzep-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveOrderPlaced(t *testing.T) {
	reg := newTestEventRegistry(t)

	orderID := uuid.New()
	data := mustMarshal(t, payloads.OrderPlacedEvent{
		OrderID:         orderID,
		TotalAmount:     decimal.RequireFromString("120.00"),
		ZepPointsEarned: 12,
	})

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       mustEnvelope(t, data),
	})
	require.NoError(t, err)
	require.Equal(t, "orders-topic", resolved.Descriptor.Topic)
	payload, ok := resolved.Payload.(*payloads.OrderPlacedEvent)
	require.True(t, ok, "unexpected payload type %T", resolved.Payload)
	require.Equal(t, orderID, payload.OrderID)
	require.EqualValues(t, 12, payload.ZepPointsEarned)
	require.NotEqual(t, uuid.Nil, resolved.Envelope.EventID)
}

func TestEventRegistryRejectsBadRows(t *testing.T) {
	reg := newTestEventRegistry(t)
	good := mustEnvelope(t, mustMarshal(t, payloads.PointsRedeemedEvent{Points: 5}))

	cases := map[string]models.OutboxEvent{
		"unknown event": {
			EventType: "mystery", AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: good,
		},
		"aggregate mismatch": {
			EventType: enums.EventPointsRedeemed, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: good,
		},
		"missing aggregate id": {
			EventType: enums.EventPointsRedeemed, AggregateType: enums.AggregateRedemption, Payload: good,
		},
		"broken envelope": {
			EventType: enums.EventPointsRedeemed, AggregateType: enums.AggregateRedemption, AggregateID: uuid.New(), Payload: json.RawMessage(`{`),
		},
		"null data": {
			EventType: enums.EventPointsRedeemed, AggregateType: enums.AggregateRedemption, AggregateID: uuid.New(), Payload: mustEnvelope(t, []byte("null")),
		},
	}

	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(event)
			var nonRetry NonRetryableError
			require.True(t, errors.As(err, &nonRetry), "expected non-retryable, got %v", err)
		})
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{})
	require.Error(t, err)
}

func TestTopicsAreDistinct(t *testing.T) {
	require.Equal(t, []string{"orders-topic"}, newTestEventRegistry(t).Topics())
}

func TestTopicOverrides(t *testing.T) {
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders", LoyaltyTopic: "loyalty"})
	require.NoError(t, err)
	require.Equal(t, []string{"loyalty", "orders"}, reg.Topics())

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventPointsRedeemed,
		AggregateType: enums.AggregateRedemption,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, mustMarshal(t, payloads.PointsRedeemedEvent{Points: 10})),
	})
	require.NoError(t, err)
	require.Equal(t, "loyalty", resolved.Descriptor.Topic)

	resolved, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventTrustScoreChange,
		AggregateType: enums.AggregateUser,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, mustMarshal(t, payloads.TrustScoreChangedEvent{})),
	})
	require.NoError(t, err)
	require.Equal(t, "orders", resolved.Descriptor.Topic)
}

func TestResolveRejectsFutureEnvelopeVersion(t *testing.T) {
	payload := mustMarshal(t, outbox.Envelope{
		Version: outbox.EnvelopeVersion + 1,
		EventID: uuid.New(),
		Data:    json.RawMessage(`{}`),
	})
	_, err := newTestEventRegistry(t).Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	})
	require.ErrorContains(t, err, "unsupported envelope version")
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders-topic"})
	require.NoError(t, err)
	return reg
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func mustEnvelope(t *testing.T, data []byte) json.RawMessage {
	t.Helper()
	return mustMarshal(t, outbox.Envelope{
		Version:    outbox.EnvelopeVersion,
		EventID:    uuid.New(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
}
