package entity

import "github.com/google/uuid"

// Account - one per user, balance never goes below zero.
type Account struct {
	AccountID uuid.UUID `json:"account_id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
}
