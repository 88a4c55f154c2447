/*
handlers.go - HTTP API handlers for the loyalty service

PURPOSE:
  Exposes the loyalty engine and order lifecycle via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain
  logic.

ENDPOINTS:
  Loyalty:
    GET    /api/loyalty/{customerID}          Account with history
    GET    /api/loyalty/{customerID}/balance  Balance only
    POST   /api/loyalty/redeem                Exchange points for a reward

  Rewards:
    GET    /api/rewards               List catalog (?active=true)
    POST   /api/rewards               Create/update reward
    GET    /api/rewards/{id}          Get reward
    PUT    /api/rewards/{id}          Replace reward

  Orders:
    GET    /api/orders                List orders (?status=pending)
    POST   /api/orders                Place order (gated by opening hours)
    GET    /api/orders/{id}           Get order
    POST   /api/orders/{id}/status    Move order through its lifecycle

  Ops:
    GET    /api/status                Opening-hours gate + liveness
    POST   /api/reset                 Database reset (dev only)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engine, order service)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed identifiers
  - 404: Unknown order or reward
  - 409: Inactive reward, insufficient points, invalid transition
  - 503: Ordering closed (outside opening hours)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/crave/loyalty-engine/loyalty"
	"github.com/crave/loyalty-engine/orders"
	"github.com/crave/loyalty-engine/schedule"
	"github.com/crave/loyalty-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *loyalty.Engine
	Orders *orders.Service
	Board  *schedule.Board
	Log    *zap.Logger
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(store *sqlite.Store, engine *loyalty.Engine, svc *orders.Service, board *schedule.Board, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:  store,
		Engine: engine,
		Orders: svc,
		Board:  board,
		Log:    log,
	}
}

// =============================================================================
// LOYALTY HANDLERS
// =============================================================================

// GetAccount returns a customer's balance and full history.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")
	if !loyalty.ValidateCustomerID(id) {
		writeError(w, http.StatusBadRequest, "Invalid customer identifier", nil)
		return
	}

	view, err := h.Engine.AccountWithHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load account", err)
		return
	}

	history := make([]LedgerEntryDTO, len(view.History))
	for i, e := range view.History {
		history[i] = toLedgerEntryDTO(e)
	}

	writeJSON(w, http.StatusOK, AccountDTO{
		CustomerID: id,
		Balance:    int64(view.Balance),
		Exists:     view.Exists,
		History:    history,
	})
}

// GetBalance returns only the current balance. Unknown customers read
// as zero rather than 404: a customer who never earned has an empty
// account, not a missing one.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")
	if !loyalty.ValidateCustomerID(id) {
		writeError(w, http.StatusBadRequest, "Invalid customer identifier", nil)
		return
	}

	balance, err := h.Engine.Balance(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		CustomerID: id,
		Balance:    int64(balance),
	})
}

// Redeem exchanges points for a reward.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.RewardID == "" {
		writeError(w, http.StatusBadRequest, "reward_id is required", nil)
		return
	}

	result, err := h.Engine.Redeem(r.Context(), req.CustomerID, req.RewardID)
	if err != nil {
		writeRedeemError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RedemptionDTO{
		CustomerID:       req.CustomerID,
		RewardID:         req.RewardID,
		RewardName:       result.RewardName,
		PointsUsed:       int64(result.PointsUsed),
		RemainingBalance: int64(result.RemainingBalance),
	})
}

// writeRedeemError maps the engine's error taxonomy onto HTTP statuses.
func writeRedeemError(w http.ResponseWriter, err error) {
	var insufficient *loyalty.InsufficientPointsError

	switch {
	case errors.Is(err, loyalty.ErrInvalidIdentifier):
		writeError(w, http.StatusBadRequest, "Invalid customer identifier", nil)
	case errors.Is(err, loyalty.ErrRewardNotFound):
		writeError(w, http.StatusNotFound, "Reward not found", nil)
	case errors.Is(err, loyalty.ErrRewardInactive):
		writeError(w, http.StatusConflict, "Reward is not active", nil)
	case errors.As(err, &insufficient):
		writeError(w, http.StatusConflict, "Insufficient points", err)
	case errors.Is(err, loyalty.ErrInsufficientPoints):
		writeError(w, http.StatusConflict, "Insufficient points", nil)
	case errors.Is(err, loyalty.ErrConflict):
		// Internal retries are already exhausted at this point.
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "Concurrent update, retry", nil)
	default:
		writeError(w, http.StatusInternalServerError, "Redemption failed", err)
	}
}

// =============================================================================
// REWARD HANDLERS
// =============================================================================

// ListRewards returns the catalog. ?active=true filters disabled rewards.
func (h *Handler) ListRewards(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	records, err := h.Store.ListRewards(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rewards", err)
		return
	}

	dtos := make([]RewardDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRewardDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReward returns a single catalog reward.
func (h *Handler) GetReward(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.Store.GetReward(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reward", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Reward not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRewardDTO(*rec))
}

// SaveReward creates or updates a catalog reward.
func (h *Handler) SaveReward(w http.ResponseWriter, r *http.Request) {
	var req SaveRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	if req.CostPoints < 1 {
		writeError(w, http.StatusBadRequest, "cost_points must be at least 1", nil)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	rec := sqlite.RewardRecord{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		CostPoints:  req.CostPoints,
		Active:      active,
	}
	if err := h.Store.SaveReward(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save reward", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRewardDTO(rec))
}

// UpdateReward replaces an existing catalog reward. The reward ID comes
// from the URL path; a body ID, if present, must match it.
func (h *Handler) UpdateReward(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SaveRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID != "" && req.ID != id {
		writeError(w, http.StatusBadRequest, "Body id does not match URL", nil)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.CostPoints < 1 {
		writeError(w, http.StatusBadRequest, "cost_points must be at least 1", nil)
		return
	}

	existing, err := h.Store.GetReward(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reward", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Reward not found", nil)
		return
	}

	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}

	rec := sqlite.RewardRecord{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		CostPoints:  req.CostPoints,
		Active:      active,
	}
	if err := h.Store.SaveReward(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save reward", err)
		return
	}

	writeJSON(w, http.StatusOK, toRewardDTO(rec))
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// CreateOrder places a new order. Ordering is gated by opening hours;
// loyalty endpoints stay available around the clock.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if h.Board != nil && !h.Board.IsOpen() {
		writeError(w, http.StatusServiceUnavailable, "Ordering is closed, come back during opening hours", nil)
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Order needs at least one item", nil)
		return
	}
	// A customer ID is optional, but if given it must be well-formed.
	if req.CustomerID != "" && !loyalty.ValidateCustomerID(req.CustomerID) {
		writeError(w, http.StatusBadRequest, "Invalid customer identifier", nil)
		return
	}

	items := make([]orders.Item, len(req.Items))
	for i, it := range req.Items {
		if it.Name == "" || it.Quantity < 1 || it.UnitPrice.IsNegative() {
			writeError(w, http.StatusBadRequest, "Invalid order item", nil)
			return
		}
		items[i] = orders.Item{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}

	ord, err := h.Orders.Create(r.Context(), req.CustomerID, items)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderDTO(ord))
}

// GetOrder returns a single order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ord, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Order not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*ord))
}

// ListOrders returns recent orders, optionally filtered by status.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := orders.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown order status", nil)
		return
	}

	list, err := h.Store.ListOrders(r.Context(), status, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	dtos := make([]OrderDTO, len(list))
	for i, ord := range list {
		dtos[i] = toOrderDTO(ord)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetOrderStatus moves an order through its lifecycle. Delivery is the
// transition that triggers loyalty crediting.
func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	next := orders.Status(req.Status)
	if !next.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown order status", nil)
		return
	}

	ord, err := h.Orders.Transition(r.Context(), id, next)
	if err != nil {
		var invalid *orders.InvalidTransitionError
		switch {
		case errors.Is(err, orders.ErrNotFound):
			writeError(w, http.StatusNotFound, "Order not found", nil)
		case errors.As(err, &invalid):
			writeError(w, http.StatusConflict, "Invalid status transition", err)
		case errors.Is(err, loyalty.ErrConflict):
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "Concurrent update, retry", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update order", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toOrderDTO(*ord))
}

// =============================================================================
// OPS HANDLERS
// =============================================================================

// GetStatus reports liveness and whether ordering is currently open.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	dto := StatusDTO{Open: true}
	if h.Board != nil {
		dto.Open = h.Board.IsOpen()
		dto.OpenHour, dto.CloseHour = h.Board.Hours()
	}
	writeJSON(w, http.StatusOK, dto)
}

// ResetDatabase clears all data (dev only).
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// DTO CONVERSION + RESPONSE HELPERS
// =============================================================================

func toLedgerEntryDTO(e loyalty.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:        e.ID,
		Kind:      string(e.Kind),
		Points:    int64(e.Points),
		Delta:     int64(e.Delta()),
		Reference: e.Reference,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func toRewardDTO(rec sqlite.RewardRecord) RewardDTO {
	dto := RewardDTO{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		CostPoints:  rec.CostPoints,
		Active:      rec.Active,
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toOrderDTO(ord orders.Order) OrderDTO {
	items := make([]OrderItemDTO, len(ord.Items))
	for i, it := range ord.Items {
		items[i] = OrderItemDTO{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return OrderDTO{
		ID:           ord.ID,
		CustomerID:   ord.CustomerID,
		Items:        items,
		TotalAmount:  ord.TotalAmount.String(),
		Status:       string(ord.Status),
		PointsEarned: ord.PointsEarned,
		CreatedAt:    ord.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    ord.UpdatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
