package enums

// RedemptionStatus tracks a points redemption until the reward is handed out.
type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "pending"
	RedemptionStatusFulfilled RedemptionStatus = "fulfilled"
	RedemptionStatusCancelled RedemptionStatus = "cancelled"
)

var redemptionStatuses = values[RedemptionStatus]{
	RedemptionStatusPending,
	RedemptionStatusFulfilled,
	RedemptionStatusCancelled,
}

func (s RedemptionStatus) IsValid() bool { return redemptionStatuses.has(s) }
