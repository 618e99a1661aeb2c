package response

import "time"

type Error struct {
	Error string `json:"error" example:"message"`
}

type Order struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type OrderStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type Account struct {
	AccountID string `json:"account_id"`
	UserID    string `json:"user_id"`
	Balance   int64  `json:"balance"`
}

type Balance struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
}

type Charge struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	Reason    *string   `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
