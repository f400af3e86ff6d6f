package models

// All lists every model for sqlite AutoMigrate in local and test setups.
func All() []any {
	return []any{
		&User{},
		&Tenant{},
		&Product{},
		&Inventory{},
		&Order{},
		&OrderItem{},
		&Redemption{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
