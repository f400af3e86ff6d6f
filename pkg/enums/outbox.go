package enums

// OutboxAggregateType mirrors the aggregate_type Postgres enum.
type OutboxAggregateType string

const (
	AggregateOrder      OutboxAggregateType = "order"
	AggregateUser       OutboxAggregateType = "user"
	AggregateRedemption OutboxAggregateType = "redemption"
)

var aggregateTypes = values[OutboxAggregateType]{AggregateOrder, AggregateUser, AggregateRedemption}

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

// OutboxEventType mirrors the event_type Postgres enum.
type OutboxEventType string

const (
	EventOrderPlaced      OutboxEventType = "order_placed"
	EventPointsRedeemed   OutboxEventType = "points_redeemed"
	EventTrustScoreChange OutboxEventType = "trust_score_changed"
)

var eventTypes = values[OutboxEventType]{EventOrderPlaced, EventPointsRedeemed, EventTrustScoreChange}

func (e OutboxEventType) IsValid() bool { return eventTypes.has(e) }

// OutboxDLQErrorReason records why the publisher parked an event.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonDecodeFailed OutboxDLQErrorReason = "decode_failed"
)

var dlqReasons = values[OutboxDLQErrorReason]{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
	OutboxDLQReasonDecodeFailed,
}

func (r OutboxDLQErrorReason) IsValid() bool { return dlqReasons.has(r) }

// ParseOutboxDLQErrorReason accepts an empty string as "any reason".
func ParseOutboxDLQErrorReason(raw string) (OutboxDLQErrorReason, error) {
	if raw == "" {
		return "", nil
	}
	return dlqReasons.parse("dead letter reason", raw)
}
