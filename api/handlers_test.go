/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Balance and history endpoints (identifier validation, zero-balance reads)
- Redemption endpoint (full error taxonomy to HTTP status mapping)
- Order placement and lifecycle (opening-hours gate, delivery crediting)
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crave/loyalty-engine/loyalty"
	"github.com/crave/loyalty-engine/orders"
	"github.com/crave/loyalty-engine/schedule"
	"github.com/crave/loyalty-engine/store/sqlite"
)

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := zap.NewNop()
	engine := loyalty.NewEngine(store, loyalty.DefaultEarnRule(), log)
	svc := orders.NewService(store, engine, log)
	board := schedule.NewBoard(0, 24, time.Minute, log) // always open

	h := NewHandler(store, engine, svc, board, log)
	srv := httptest.NewServer(NewRouter(h, nil))
	t.Cleanup(srv.Close)

	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func putJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(buf))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func seedReward(t *testing.T, store *sqlite.Store, id string, cost int64, active bool) {
	t.Helper()
	err := store.SaveReward(context.Background(), sqlite.RewardRecord{
		ID:         id,
		Name:       "Reward " + id,
		CostPoints: cost,
		Active:     active,
	})
	if err != nil {
		t.Fatalf("Failed to seed reward: %v", err)
	}
}

func TestGetBalance_UnknownCustomerReadsZero(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/loyalty/1234567/balance")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	dto := decode[BalanceDTO](t, resp)
	if dto.Balance != 0 {
		t.Errorf("Balance = %d, want 0", dto.Balance)
	}
}

func TestGetBalance_MalformedIdentifier(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, id := range []string{"012345", "12345", "1234567a", "123456789"} {
		resp, err := http.Get(srv.URL + "/api/loyalty/" + id + "/balance")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("id %q: status = %d, want 400", id, resp.StatusCode)
		}
	}
}

func TestGetAccount_HistoryAfterEarn(t *testing.T) {
	// GIVEN: A delivered order for a known customer
	srv, _ := newTestServer(t)

	orderID := placeAndDeliver(t, srv, "1234567", 1999)

	// WHEN: Fetching the account
	resp, err := http.Get(srv.URL + "/api/loyalty/1234567")
	if err != nil {
		t.Fatal(err)
	}
	dto := decode[AccountDTO](t, resp)

	// THEN: 1999 earned 50 points with one earn entry referencing the order
	if !dto.Exists {
		t.Error("account should exist after earning")
	}
	if dto.Balance != 50 {
		t.Errorf("Balance = %d, want 50", dto.Balance)
	}
	if len(dto.History) != 1 {
		t.Fatalf("History length = %d, want 1", len(dto.History))
	}
	if dto.History[0].Kind != "earn" || dto.History[0].Reference != orderID {
		t.Errorf("History[0] = %+v, want earn referencing %s", dto.History[0], orderID)
	}
}

func TestRedeem_Success(t *testing.T) {
	srv, store := newTestServer(t)
	seedReward(t, store, "free-fries", 200, true)

	// 6000 spend -> 300 points
	placeAndDeliver(t, srv, "1234567", 6000)

	resp := postJSON(t, srv.URL+"/api/loyalty/redeem", RedeemRequest{
		CustomerID: "1234567",
		RewardID:   "free-fries",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	dto := decode[RedemptionDTO](t, resp)
	if dto.RemainingBalance != 100 {
		t.Errorf("RemainingBalance = %d, want 100", dto.RemainingBalance)
	}
	if dto.PointsUsed != 200 {
		t.Errorf("PointsUsed = %d, want 200", dto.PointsUsed)
	}
}

func TestRedeem_ErrorMapping(t *testing.T) {
	srv, store := newTestServer(t)
	seedReward(t, store, "active-reward", 500, true)
	seedReward(t, store, "retired-reward", 100, false)

	// 2000 spend -> 100 points, not enough for the active reward.
	placeAndDeliver(t, srv, "1234567", 2000)

	tests := []struct {
		name       string
		req        RedeemRequest
		wantStatus int
	}{
		{"malformed customer id", RedeemRequest{CustomerID: "0123456", RewardID: "active-reward"}, http.StatusBadRequest},
		{"unknown reward", RedeemRequest{CustomerID: "1234567", RewardID: "no-such"}, http.StatusNotFound},
		{"inactive reward", RedeemRequest{CustomerID: "1234567", RewardID: "retired-reward"}, http.StatusConflict},
		{"insufficient points", RedeemRequest{CustomerID: "1234567", RewardID: "active-reward"}, http.StatusConflict},
		{"customer with no account", RedeemRequest{CustomerID: "7654321", RewardID: "active-reward"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/loyalty/redeem", tt.req)
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}

	// Failed redemptions never touched the balance.
	resp, err := http.Get(srv.URL + "/api/loyalty/1234567/balance")
	if err != nil {
		t.Fatal(err)
	}
	dto := decode[BalanceDTO](t, resp)
	if dto.Balance != 100 {
		t.Errorf("Balance = %d after failed redemptions, want 100", dto.Balance)
	}
}

func TestWriteRedeemError_ConflictIsRetryable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeRedeemError(rec, loyalty.ErrConflict)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("503 response should carry Retry-After")
	}
}

func TestCreateOrder_ClosedHours(t *testing.T) {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	log := zap.NewNop()
	engine := loyalty.NewEngine(store, loyalty.DefaultEarnRule(), log)
	svc := orders.NewService(store, engine, log)
	board := schedule.NewBoard(10, 10, time.Minute, log) // never open

	h := NewHandler(store, engine, svc, board, log)
	srv := httptest.NewServer(NewRouter(h, nil))
	t.Cleanup(srv.Close)

	resp := postJSON(t, srv.URL+"/api/orders", CreateOrderRequest{
		CustomerID: "1234567",
		Items:      []OrderItemDTO{{Name: "Burger", Quantity: 1, UnitPrice: dec(1000)}},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}

	// Loyalty stays up while ordering is closed.
	balResp, err := http.Get(srv.URL + "/api/loyalty/1234567/balance")
	if err != nil {
		t.Fatal(err)
	}
	balResp.Body.Close()
	if balResp.StatusCode != http.StatusOK {
		t.Errorf("balance status = %d, want 200", balResp.StatusCode)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		req  CreateOrderRequest
	}{
		{"no items", CreateOrderRequest{CustomerID: "1234567"}},
		{"bad customer id", CreateOrderRequest{
			CustomerID: "001234",
			Items:      []OrderItemDTO{{Name: "Cola", Quantity: 1, UnitPrice: dec(300)}},
		}},
		{"zero quantity", CreateOrderRequest{
			Items: []OrderItemDTO{{Name: "Cola", Quantity: 0, UnitPrice: dec(300)}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/orders", tt.req)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestOrderLifecycle_DeliveryCreditsOnce(t *testing.T) {
	srv, _ := newTestServer(t)

	// GIVEN: A pending guest-less order worth 4500
	resp := postJSON(t, srv.URL+"/api/orders", CreateOrderRequest{
		CustomerID: "1234567",
		Items:      []OrderItemDTO{{Name: "Family Box", Quantity: 1, UnitPrice: dec(4500)}},
	})
	ord := decode[OrderDTO](t, resp)
	if ord.Status != "pending" {
		t.Fatalf("Status = %q, want pending", ord.Status)
	}

	// WHEN: Walking the lifecycle to delivered
	for _, status := range []string{"processing", "delivered"} {
		r := postJSON(t, srv.URL+"/api/orders/"+ord.ID+"/status", SetStatusRequest{Status: status})
		if r.StatusCode != http.StatusOK {
			t.Fatalf("transition to %s: status = %d, want 200", status, r.StatusCode)
		}
		r.Body.Close()
	}

	// THEN: 4500 earned 200 points, exactly once
	balResp, err := http.Get(srv.URL + "/api/loyalty/1234567/balance")
	if err != nil {
		t.Fatal(err)
	}
	bal := decode[BalanceDTO](t, balResp)
	if bal.Balance != 200 {
		t.Errorf("Balance = %d, want 200", bal.Balance)
	}

	// Delivered is terminal.
	r := postJSON(t, srv.URL+"/api/orders/"+ord.ID+"/status", SetStatusRequest{Status: "cancelled"})
	r.Body.Close()
	if r.StatusCode != http.StatusConflict {
		t.Errorf("terminal transition status = %d, want 409", r.StatusCode)
	}
}

func TestSetOrderStatus_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	r := postJSON(t, srv.URL+"/api/orders/missing/status", SetStatusRequest{Status: "processing"})
	r.Body.Close()
	if r.StatusCode != http.StatusNotFound {
		t.Errorf("unknown order: status = %d, want 404", r.StatusCode)
	}

	resp := postJSON(t, srv.URL+"/api/orders", CreateOrderRequest{
		Items: []OrderItemDTO{{Name: "Cola", Quantity: 1, UnitPrice: dec(300)}},
	})
	ord := decode[OrderDTO](t, resp)

	r = postJSON(t, srv.URL+"/api/orders/"+ord.ID+"/status", SetStatusRequest{Status: "eaten"})
	r.Body.Close()
	if r.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown status: status = %d, want 400", r.StatusCode)
	}

	// pending -> delivered skips processing
	r = postJSON(t, srv.URL+"/api/orders/"+ord.ID+"/status", SetStatusRequest{Status: "delivered"})
	r.Body.Close()
	if r.StatusCode != http.StatusConflict {
		t.Errorf("skipped transition: status = %d, want 409", r.StatusCode)
	}
}

func TestRewardCatalogRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	inactive := false
	resp := postJSON(t, srv.URL+"/api/rewards", SaveRewardRequest{
		ID:          "sundae",
		Name:        "Free Sundae",
		Description: "One vanilla sundae",
		CostPoints:  150,
		Active:      &inactive,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	getResp, err := http.Get(srv.URL + "/api/rewards/sundae")
	if err != nil {
		t.Fatal(err)
	}
	dto := decode[RewardDTO](t, getResp)
	if dto.Name != "Free Sundae" || dto.Active {
		t.Errorf("reward = %+v, want inactive Free Sundae", dto)
	}

	// Inactive rewards drop out of the active listing.
	listResp, err := http.Get(srv.URL + "/api/rewards?active=true")
	if err != nil {
		t.Fatal(err)
	}
	list := decode[[]RewardDTO](t, listResp)
	if len(list) != 0 {
		t.Errorf("active rewards = %d, want 0", len(list))
	}

	// PUT replaces the reward in place, keeping activity unless set.
	putResp := putJSON(t, srv.URL+"/api/rewards/sundae", SaveRewardRequest{
		Name:       "Free Sundae Deluxe",
		CostPoints: 175,
	})
	updated := decode[RewardDTO](t, putResp)
	if updated.Name != "Free Sundae Deluxe" || updated.CostPoints != 175 {
		t.Errorf("updated reward = %+v", updated)
	}
	if updated.Active {
		t.Error("update without active flag should keep the reward inactive")
	}

	missing := putJSON(t, srv.URL+"/api/rewards/nope", SaveRewardRequest{
		Name:       "Ghost",
		CostPoints: 10,
	})
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("update missing reward status = %d, want 404", missing.StatusCode)
	}
	missing.Body.Close()
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	dto := decode[StatusDTO](t, resp)
	if !dto.Open {
		t.Error("0-24 board should report open")
	}
}

// placeAndDeliver creates an order for the customer and walks it to
// delivered, returning the order ID.
func placeAndDeliver(t *testing.T, srv *httptest.Server, customerID string, amount int64) string {
	t.Helper()

	resp := postJSON(t, srv.URL+"/api/orders", CreateOrderRequest{
		CustomerID: customerID,
		Items:      []OrderItemDTO{{Name: "Combo", Quantity: 1, UnitPrice: dec(amount)}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order status = %d, want 201", resp.StatusCode)
	}
	ord := decode[OrderDTO](t, resp)

	for _, status := range []string{"processing", "delivered"} {
		r := postJSON(t, srv.URL+"/api/orders/"+ord.ID+"/status", SetStatusRequest{Status: status})
		if r.StatusCode != http.StatusOK {
			t.Fatalf("transition to %s failed: %d", status, r.StatusCode)
		}
		r.Body.Close()
	}
	return ord.ID
}

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
