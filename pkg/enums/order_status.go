package enums

// OrderStatus moves pending -> confirmed -> delivered. Cancelled is reachable
// from either non-terminal state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderStatuses = values[OrderStatus]{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var orderTransitions = map[OrderStatus]values[OrderStatus]{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusDelivered, OrderStatusCancelled},
}

func (s OrderStatus) IsValid() bool { return orderStatuses.has(s) }

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return orderTransitions[s].has(next)
}
