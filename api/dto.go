/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Loyalty:
    AccountDTO, BalanceDTO, LedgerEntryDTO, RedeemRequest, RedemptionDTO

  Rewards:
    RewardDTO, SaveRewardRequest

  Orders:
    OrderDTO, OrderItemDTO, CreateOrderRequest, SetStatusRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// LOYALTY TYPES
// =============================================================================

// AccountDTO is a loyalty account with its full history.
type AccountDTO struct {
	CustomerID string           `json:"customer_id"`
	Balance    int64            `json:"balance"`
	Exists     bool             `json:"exists"`
	History    []LedgerEntryDTO `json:"history"`
}

// BalanceDTO is the lightweight balance-only response.
type BalanceDTO struct {
	CustomerID string `json:"customer_id"`
	Balance    int64  `json:"balance"`
}

// LedgerEntryDTO is one earn or redeem in a customer's history.
type LedgerEntryDTO struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Points    int64  `json:"points"`
	Delta     int64  `json:"delta"`
	Reference string `json:"reference,omitempty"`
	CreatedAt string `json:"created_at"`
}

// RedeemRequest asks to exchange points for a reward.
type RedeemRequest struct {
	CustomerID string `json:"customer_id"`
	RewardID   string `json:"reward_id"`
}

// RedemptionDTO is the result of a successful redemption.
type RedemptionDTO struct {
	CustomerID       string `json:"customer_id"`
	RewardID         string `json:"reward_id"`
	RewardName       string `json:"reward_name"`
	PointsUsed       int64  `json:"points_used"`
	RemainingBalance int64  `json:"remaining_balance"`
}

// =============================================================================
// REWARD TYPES
// =============================================================================

// RewardDTO represents a catalog reward in API responses.
type RewardDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CostPoints  int64  `json:"cost_points"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// SaveRewardRequest creates or updates a catalog reward.
type SaveRewardRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CostPoints  int64  `json:"cost_points"`
	Active      *bool  `json:"active"`
}

// =============================================================================
// ORDER TYPES
// =============================================================================

// OrderItemDTO is one line of an order.
type OrderItemDTO struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest places a new order. CustomerID is optional: guests
// order without one and simply earn nothing.
type CreateOrderRequest struct {
	CustomerID string         `json:"customer_id,omitempty"`
	Items      []OrderItemDTO `json:"items"`
}

// OrderDTO represents an order in API responses.
type OrderDTO struct {
	ID           string         `json:"id"`
	CustomerID   string         `json:"customer_id,omitempty"`
	Items        []OrderItemDTO `json:"items"`
	TotalAmount  string         `json:"total_amount"`
	Status       string         `json:"status"`
	PointsEarned bool           `json:"points_earned"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

// SetStatusRequest moves an order through its lifecycle.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// STATUS / ERRORS
// =============================================================================

// StatusDTO reports service health and the opening-hours gate.
type StatusDTO struct {
	Open      bool `json:"open"`
	OpenHour  int  `json:"open_hour"`
	CloseHour int  `json:"close_hour"`
}

// ErrorResponse is the error payload for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
