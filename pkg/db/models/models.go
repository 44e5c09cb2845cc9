package models

// All returns every model in migration order: referenced tables first.
func All() []any {
	return []any{
		&User{},
		&Event{},
		&TicketTier{},
		&BankAccount{},
		&UserEventSetting{},
		&TicketOrder{},
		&Participant{},
		&PaymentRequest{},
		&BirthdateAuditLog{},
	}
}
