package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/iliyamo/cinema-ticket-system/internal/clock"
	"github.com/iliyamo/cinema-ticket-system/internal/model"
)

func newHoldFixture(t *testing.T) (*HoldHandler, *memStore, clock.Clock) {
	t.Helper()
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	store := newMemStore(clk.Now)
	screening := &model.Screening{
		Title:       "Heat",
		SeatRows:    2,
		SeatsPerRow: 2,
		StartsAt:    now.Add(3 * time.Hour),
		PriceCents:  1500,
	}
	if err := store.Create(context.Background(), screening); err != nil {
		t.Fatalf("seed screening: %v", err)
	}
	h := NewHoldHandler(store, store, clk, 15*time.Minute)
	return h, store, clk
}

func TestCreateHolds(t *testing.T) {
	t.Parallel()

	t.Run("creates batch and reports expiry", func(t *testing.T) {
		t.Parallel()
		h, store, clk := newHoldFixture(t)
		body := `{"seats":[{"row":1,"seat":1},{"row":1,"seat":2}]}`
		c, rec := newTestContext(http.MethodPost, "/v1/screenings/1/holds", body, 1)
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.CreateHolds(c); err != nil {
			t.Fatalf("CreateHolds: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var resp struct {
			HoldIDs   []uint64 `json:"hold_ids"`
			ExpiresAt string   `json:"expires_at"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp.HoldIDs) != 2 {
			t.Fatalf("hold_ids = %v, want 2 entries", resp.HoldIDs)
		}
		want := clk.Now().Add(15 * time.Minute).Format(time.RFC3339)
		if resp.ExpiresAt != want {
			t.Errorf("expires_at = %q, want %q", resp.ExpiresAt, want)
		}
		for _, id := range resp.HoldIDs {
			if !store.holds[id].Active {
				t.Errorf("hold %d not active after create", id)
			}
		}
	})

	t.Run("conflicting batch creates nothing", func(t *testing.T) {
		t.Parallel()
		h, store, _ := newHoldFixture(t)

		c, rec := newTestContext(http.MethodPost, "/v1/screenings/1/holds",
			`{"seats":[{"row":1,"seat":1},{"row":1,"seat":2}]}`, 1)
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.CreateHolds(c); err != nil {
			t.Fatalf("first batch: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("first batch status = %d", rec.Code)
		}

		// Second user asks for one taken seat and one free seat.  The
		// whole batch must fail and leave the free seat untouched.
		c, rec = newTestContext(http.MethodPost, "/v1/screenings/1/holds",
			`{"seats":[{"row":1,"seat":1},{"row":2,"seat":1}]}`, 2)
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.CreateHolds(c); err != nil {
			t.Fatalf("second batch: %v", err)
		}
		if rec.Code != http.StatusConflict {
			t.Fatalf("second batch status = %d, want %d", rec.Code, http.StatusConflict)
		}
		var resp struct {
			Unavailable []model.SeatPosition `json:"unavailable"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp.Unavailable) != 1 || resp.Unavailable[0] != (model.SeatPosition{Row: 1, Seat: 1}) {
			t.Errorf("unavailable = %v, want [{1 1}]", resp.Unavailable)
		}
		for _, hold := range store.holds {
			if hold.UserID == 2 {
				t.Errorf("conflicting batch left hold %+v behind", hold)
			}
		}

		// The free seat from the failed batch is still claimable.
		c, rec = newTestContext(http.MethodPost, "/v1/screenings/1/holds",
			`{"seats":[{"row":2,"seat":1}]}`, 2)
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.CreateHolds(c); err != nil {
			t.Fatalf("retry batch: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Errorf("retry status = %d, want %d", rec.Code, http.StatusCreated)
		}
	})

	t.Run("reserved seat blocks hold", func(t *testing.T) {
		t.Parallel()
		h, store, _ := newHoldFixture(t)
		err := store.CreateReservation(context.Background(), &model.Reservation{
			UserID: 9, ScreeningID: 1, Row: 2, Seat: 2,
		})
		if err != nil {
			t.Fatalf("seed reservation: %v", err)
		}
		c, rec := newTestContext(http.MethodPost, "/v1/screenings/1/holds",
			`{"seats":[{"row":2,"seat":2}]}`, 1)
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.CreateHolds(c); err != nil {
			t.Fatalf("CreateHolds: %v", err)
		}
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})

	t.Run("seat outside geometry", func(t *testing.T) {
		t.Parallel()
		h, _, _ := newHoldFixture(t)
		c, rec := newTestContext(http.MethodPost, "/v1/screenings/1/holds",
			`{"seats":[{"row":3,"seat":1}]}`, 1)
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.CreateHolds(c); err != nil {
			t.Fatalf("CreateHolds: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("empty seats rejected", func(t *testing.T) {
		t.Parallel()
		h, _, _ := newHoldFixture(t)
		c, rec := newTestContext(http.MethodPost, "/v1/screenings/1/holds", `{"seats":[]}`, 1)
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.CreateHolds(c); err != nil {
			t.Fatalf("CreateHolds: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown screening", func(t *testing.T) {
		t.Parallel()
		h, _, _ := newHoldFixture(t)
		c, rec := newTestContext(http.MethodPost, "/v1/screenings/42/holds",
			`{"seats":[{"row":1,"seat":1}]}`, 1)
		c.SetParamNames("id")
		c.SetParamValues("42")
		if err := h.CreateHolds(c); err != nil {
			t.Fatalf("CreateHolds: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestReleaseHolds(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, h *HoldHandler, store *memStore, userID uint64, seats ...model.SeatPosition) []model.SeatHold {
		t.Helper()
		expires := h.Clock.Now().Add(h.TTL)
		created, err := store.CreateBatch(context.Background(), userID, 1, seats, expires)
		if err != nil {
			t.Fatalf("seed holds: %v", err)
		}
		return created
	}

	t.Run("owner releases", func(t *testing.T) {
		t.Parallel()
		h, store, _ := newHoldFixture(t)
		created := seed(t, h, store, 1, model.SeatPosition{Row: 1, Seat: 1})
		body := fmt.Sprintf(`{"hold_ids":[%d]}`, created[0].ID)
		c, rec := newTestContext(http.MethodDelete, "/v1/holds", body, 1)
		if err := h.ReleaseHolds(c); err != nil {
			t.Fatalf("ReleaseHolds: %v", err)
		}
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
		if store.holds[created[0].ID].Active {
			t.Error("hold still active after release")
		}
	})

	t.Run("releasing twice yields not found", func(t *testing.T) {
		t.Parallel()
		h, store, _ := newHoldFixture(t)
		created := seed(t, h, store, 1, model.SeatPosition{Row: 1, Seat: 1})
		body := fmt.Sprintf(`{"hold_ids":[%d]}`, created[0].ID)
		c, _ := newTestContext(http.MethodDelete, "/v1/holds", body, 1)
		if err := h.ReleaseHolds(c); err != nil {
			t.Fatalf("first release: %v", err)
		}
		c, rec := newTestContext(http.MethodDelete, "/v1/holds", body, 1)
		if err := h.ReleaseHolds(c); err != nil {
			t.Fatalf("second release: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("someone else's hold is forbidden and untouched", func(t *testing.T) {
		t.Parallel()
		h, store, _ := newHoldFixture(t)
		created := seed(t, h, store, 1, model.SeatPosition{Row: 1, Seat: 1})
		body := fmt.Sprintf(`{"hold_ids":[%d]}`, created[0].ID)
		c, rec := newTestContext(http.MethodDelete, "/v1/holds", body, 2)
		if err := h.ReleaseHolds(c); err != nil {
			t.Fatalf("ReleaseHolds: %v", err)
		}
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
		}
		if !store.holds[created[0].ID].Active {
			t.Error("hold deactivated by non-owner")
		}
	})

	t.Run("release all never fails", func(t *testing.T) {
		t.Parallel()
		h, store, _ := newHoldFixture(t)
		c, rec := newTestContext(http.MethodDelete, "/v1/holds/all", "", 7)
		if err := h.ReleaseAllHolds(c); err != nil {
			t.Fatalf("ReleaseAllHolds: %v", err)
		}
		if rec.Code != http.StatusNoContent {
			t.Errorf("empty release status = %d, want %d", rec.Code, http.StatusNoContent)
		}

		seed(t, h, store, 7, model.SeatPosition{Row: 1, Seat: 1}, model.SeatPosition{Row: 1, Seat: 2})
		c, rec = newTestContext(http.MethodDelete, "/v1/holds/all", "", 7)
		if err := h.ReleaseAllHolds(c); err != nil {
			t.Fatalf("ReleaseAllHolds: %v", err)
		}
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
		for _, hold := range store.holds {
			if hold.UserID == 7 && hold.Active {
				t.Errorf("hold %d still active after release all", hold.ID)
			}
		}
	})
}

func TestListMyHolds(t *testing.T) {
	t.Parallel()

	t.Run("expired holds absent before the sweep", func(t *testing.T) {
		t.Parallel()
		h, store, clk := newHoldFixture(t)
		now := clk.Now()

		live, err := store.CreateBatch(context.Background(), 1, 1,
			[]model.SeatPosition{{Row: 1, Seat: 1}}, now.Add(15*time.Minute))
		if err != nil {
			t.Fatalf("seed live hold: %v", err)
		}
		// Expired but still active, as if the reaper has not run yet.
		store.holds[99] = model.SeatHold{
			ID: 99, UserID: 1, ScreeningID: 1, Row: 2, Seat: 2,
			Active: true, HeldAt: now.Add(-time.Hour), ExpiresAt: now.Add(-45 * time.Minute),
		}

		c, rec := newTestContext(http.MethodGet, "/v1/my-holds", "", 1)
		if err := h.ListMyHolds(c); err != nil {
			t.Fatalf("ListMyHolds: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp struct {
			Items []struct {
				HoldID uint64 `json:"hold_id"`
				Label  string `json:"label"`
			} `json:"items"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp.Items) != 1 {
			t.Fatalf("items = %v, want exactly the live hold", resp.Items)
		}
		if resp.Items[0].HoldID != live[0].ID {
			t.Errorf("item hold_id = %d, want %d", resp.Items[0].HoldID, live[0].ID)
		}
		if resp.Items[0].Label != "A1" {
			t.Errorf("label = %q, want %q", resp.Items[0].Label, "A1")
		}
	})
}
