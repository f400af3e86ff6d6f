package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/pkg/db/dbtest"
	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
)

func TestEmitWritesEnvelopeInsideTx(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, nil)
	ctx := context.Background()
	orderID := uuid.New()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          map[string]any{"order_id": orderID.String()},
		})
	}))

	var rows []models.OutboxEvent
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, orderID, rows[0].AggregateID)

	envelope, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	require.Equal(t, EnvelopeVersion, envelope.Version)
	require.NotEqual(t, uuid.Nil, envelope.EventID)
	require.JSONEq(t, `{"order_id":"`+orderID.String()+`"}`, string(envelope.Data))
}

func TestEmitRollsBackWithCaller(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), nil)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          struct{}{},
		}); err != nil {
			return err
		}
		return errors.New("order failed later")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestEmitValidation(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	ctx := context.Background()

	require.Error(t, svc.Emit(ctx, nil, DomainEvent{EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder}))
	require.Error(t, svc.Emit(ctx, &gorm.DB{}, DomainEvent{EventType: "nope", AggregateType: enums.AggregateOrder}))
	require.Error(t, svc.Emit(ctx, &gorm.DB{}, DomainEvent{EventType: enums.EventOrderPlaced, AggregateType: "nope"}))
	require.ErrorContains(t, svc.Emit(ctx, &gorm.DB{}, DomainEvent{EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder}), "aggregate id")
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	repo := NewRepository(conn)
	ctx := context.Background()

	first := models.OutboxEvent{EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), AttemptCount: 3}
	require.NoError(t, repo.Insert(ctx, conn, &first))
	require.NoError(t, repo.Insert(ctx, conn, &second))

	rows, err := repo.ClaimPending(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, first.ID, rows[0].ID)

	require.NoError(t, repo.RecordFailure(conn, first.ID, errors.New("unavailable")))
	var reloaded models.OutboxEvent
	require.NoError(t, conn.Take(&reloaded, "id = ?", first.ID).Error)
	require.Equal(t, 1, reloaded.AttemptCount)
	require.NotNil(t, reloaded.LastError)

	require.NoError(t, repo.MarkPublished(conn, first.ID))
	rows, err = repo.ClaimPending(conn, 10, 3)
	require.NoError(t, err)
	require.Empty(t, rows)

	deleted, err := repo.DeletePublishedBefore(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
}

func TestDeadLettersParkAndRequeue(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	repo := NewRepository(conn)
	dead := NewDeadLetters(conn)
	ctx := context.Background()

	event := models.OutboxEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		AttemptCount:  9,
	}
	require.NoError(t, repo.Insert(ctx, conn, &event))

	cause := errors.New(strings.Repeat("x", 5000))
	require.NoError(t, dead.ParkTx(conn, event, enums.OutboxDLQReasonMaxAttempts, cause))
	require.NoError(t, repo.Exhaust(conn, event.ID, cause, 10))
	require.Error(t, dead.ParkTx(conn, event, "bored", cause))

	rows, err := dead.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, event.ID, rows[0].EventID)
	require.Len(t, *rows[0].ErrorMessage, maxLastErrorLen)

	rows, err = dead.Recent(ctx, enums.OutboxDLQReasonDecodeFailed, 10)
	require.NoError(t, err)
	require.Empty(t, rows)

	require.NoError(t, dead.Requeue(ctx, event.ID))
	var reloaded models.OutboxEvent
	require.NoError(t, conn.First(&reloaded, "id = ?", event.ID).Error)
	require.Zero(t, reloaded.AttemptCount)
	require.Nil(t, reloaded.LastError)

	require.ErrorIs(t, dead.Requeue(ctx, event.ID), gorm.ErrRecordNotFound)
}
