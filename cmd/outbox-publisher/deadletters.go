package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
)

type deadLetterStore interface {
	Recent(ctx context.Context, reason enums.OutboxDLQErrorReason, limit int) ([]models.OutboxDLQ, error)
	Requeue(ctx context.Context, eventID uuid.UUID) error
}

type deadLetterLine struct {
	EventID      uuid.UUID                  `json:"event_id"`
	EventType    enums.OutboxEventType      `json:"event_type"`
	AggregateID  uuid.UUID                  `json:"aggregate_id"`
	Reason       enums.OutboxDLQErrorReason `json:"reason"`
	Attempts     int                        `json:"attempts"`
	ErrorMessage string                     `json:"error,omitempty"`
	FailedAt     string                     `json:"failed_at"`
}

// runDeadLetters handles "dead-letters list" and "dead-letters requeue".
// list prints one JSON object per parked event.
func runDeadLetters(ctx context.Context, store deadLetterStore, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: outbox-publisher dead-letters <list|requeue> [flags]")
	}
	fs := flag.NewFlagSet("dead-letters "+args[0], flag.ContinueOnError)
	fs.SetOutput(out)

	switch args[0] {
	case "list":
		reasonFlag := fs.String("reason", "", "only show events parked for this reason")
		limit := fs.Int("limit", 50, "maximum rows")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reason, err := enums.ParseOutboxDLQErrorReason(*reasonFlag)
		if err != nil {
			return err
		}
		rows, err := store.Recent(ctx, reason, *limit)
		if err != nil {
			return fmt.Errorf("list dead letters: %w", err)
		}
		enc := json.NewEncoder(out)
		for _, row := range rows {
			line := deadLetterLine{
				EventID:     row.EventID,
				EventType:   row.EventType,
				AggregateID: row.AggregateID,
				Reason:      row.ErrorReason,
				Attempts:    row.AttemptCount,
				FailedAt:    row.FailedAt.UTC().Format("2006-01-02T15:04:05Z"),
			}
			if row.ErrorMessage != nil {
				line.ErrorMessage = *row.ErrorMessage
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
		return nil
	case "requeue":
		idFlag := fs.String("event", "", "outbox event id to requeue")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		id, err := uuid.Parse(*idFlag)
		if err != nil {
			return fmt.Errorf("invalid -event: %w", err)
		}
		if err := store.Requeue(ctx, id); err != nil {
			return fmt.Errorf("requeue %s: %w", id, err)
		}
		_, err = fmt.Fprintf(out, "requeued %s\n", id)
		return err
	default:
		return fmt.Errorf("unknown dead-letters command %q", args[0])
	}
}
