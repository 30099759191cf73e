package dto

// TelegramAuthRequest is sent by the bot when a user runs /start.
type TelegramAuthRequest struct {
	TelegramID int64   `json:"telegram_id" binding:"required"`
	FirstName  string  `json:"first_name" binding:"required"`
	LastName   *string `json:"last_name"`
	Username   *string `json:"username"`
}

// LoginTokenRequest asks for a one-time web login token for a Telegram user.
type LoginTokenRequest struct {
	TelegramID int64 `json:"telegram_id" binding:"required"`
}

// ExchangeTokenRequest exchanges a one-time login token for a JWT pair.
type ExchangeTokenRequest struct {
	TelegramID int64  `json:"telegram_id" binding:"required"`
	Token      string `json:"token" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new JWT pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateOrderRequest represents the request to create an order.
type CreateOrderRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	BudgetCents int64    `json:"budget_cents" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Priority    string   `json:"priority" binding:"required"`
	WorkType    string   `json:"work_type" binding:"required"`
	Tags        []string `json:"tags"`
	DeadlineAt  *string  `json:"deadline_at"`
}

// UpdateOrderRequest represents the request to update an open order.
type UpdateOrderRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	BudgetCents int64    `json:"budget_cents" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Priority    string   `json:"priority" binding:"required"`
	WorkType    string   `json:"work_type" binding:"required"`
	Tags        []string `json:"tags"`
	DeadlineAt  *string  `json:"deadline_at"`
}

// CreateResponseRequest represents a freelancer's response to an order.
type CreateResponseRequest struct {
	PriceCents int64  `json:"price_cents" binding:"required"`
	Message    string `json:"message" binding:"required"`
}

// AcceptResponseRequest selects the response a deal is created from.
type AcceptResponseRequest struct {
	ResponseID string `json:"response_id" binding:"required"`
}

// SendMessageRequest represents a chat message within a deal.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateComplaintRequest represents a complaint filed against a deal.
type CreateComplaintRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// UpdateProfileRequest represents editable profile fields.
type UpdateProfileRequest struct {
	FirstName string  `json:"first_name" binding:"required"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
}
