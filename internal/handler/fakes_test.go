package handler

// In-memory store used across the handler tests.  A single memStore
// backs all four store interfaces behind one mutex, mirroring the
// database's role as the shared arbiter between concurrent requests.

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-system/internal/model"
	"github.com/iliyamo/cinema-ticket-system/internal/queue"
	"github.com/iliyamo/cinema-ticket-system/internal/repository"
)

type seatKey struct {
	screeningID uint64
	row, seat   uint32
}

type memStore struct {
	mu sync.Mutex

	screenings      map[uint64]model.Screening
	nextScreeningID uint64

	holds      map[uint64]model.SeatHold
	nextHoldID uint64

	reservations map[uint64]model.Reservation
	nextResID    uint64

	users map[uint64]model.User

	now func() time.Time
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		screenings:   map[uint64]model.Screening{},
		holds:        map[uint64]model.SeatHold{},
		reservations: map[uint64]model.Reservation{},
		users:        map[uint64]model.User{},
		now:          now,
	}
}

// ScreeningStore

func (m *memStore) Create(ctx context.Context, s *model.Screening) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextScreeningID++
	s.ID = m.nextScreeningID
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	m.screenings[s.ID] = *s
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.Screening, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.screenings[id]
	if !ok {
		return nil, repository.ErrScreeningNotFound
	}
	return &s, nil
}

func (m *memStore) ListAll(ctx context.Context) ([]model.Screening, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Screening, 0, len(m.screenings))
	for _, s := range m.screenings {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) Update(ctx context.Context, s *model.Screening) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.screenings[s.ID]; !ok {
		return repository.ErrScreeningNotFound
	}
	s.UpdatedAt = m.now()
	m.screenings[s.ID] = *s
	return nil
}

func (m *memStore) Delete(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.screenings[id]; !ok {
		return repository.ErrScreeningNotFound
	}
	delete(m.screenings, id)
	for hid, h := range m.holds {
		if h.ScreeningID == id {
			delete(m.holds, hid)
		}
	}
	for rid, r := range m.reservations {
		if r.ScreeningID == id {
			delete(m.reservations, rid)
		}
	}
	return nil
}

// HoldStore

func (m *memStore) CreateBatch(ctx context.Context, userID, screeningID uint64, seats []model.SeatPosition, expiresAt time.Time) ([]model.SeatHold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()

	taken := map[seatKey]bool{}
	for _, r := range m.reservations {
		taken[seatKey{r.ScreeningID, r.Row, r.Seat}] = true
	}
	for _, h := range m.holds {
		if h.Active && h.ExpiresAt.After(now) {
			taken[seatKey{h.ScreeningID, h.Row, h.Seat}] = true
		}
	}

	var unavailable []model.SeatPosition
	for _, p := range seats {
		if taken[seatKey{screeningID, p.Row, p.Seat}] {
			unavailable = append(unavailable, p)
		}
	}
	if len(unavailable) > 0 {
		return nil, &repository.SeatUnavailableError{Seats: unavailable}
	}

	created := make([]model.SeatHold, 0, len(seats))
	for _, p := range seats {
		m.nextHoldID++
		h := model.SeatHold{
			ID:          m.nextHoldID,
			UserID:      userID,
			ScreeningID: screeningID,
			Row:         p.Row,
			Seat:        p.Seat,
			Active:      true,
			HeldAt:      now,
			ExpiresAt:   expiresAt,
		}
		m.holds[h.ID] = h
		created = append(created, h)
	}
	return created, nil
}

func (m *memStore) Deactivate(ctx context.Context, userID uint64, holdIDs []uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range holdIDs {
		h, ok := m.holds[id]
		if !ok || !h.Active {
			return repository.ErrHoldNotFound
		}
		if h.UserID != userID {
			return repository.ErrForbidden
		}
	}
	for _, id := range holdIDs {
		h := m.holds[id]
		h.Active = false
		m.holds[id] = h
	}
	return nil
}

func (m *memStore) DeactivateAllForUser(ctx context.Context, userID uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, h := range m.holds {
		if h.UserID == userID && h.Active {
			h.Active = false
			m.holds[id] = h
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListActiveByUser(ctx context.Context, userID uint64) ([]model.SeatHold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SeatHold
	for _, h := range m.holds {
		if h.UserID == userID && h.Active {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListActiveByScreening(ctx context.Context, screeningID uint64) ([]model.SeatHold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var out []model.SeatHold
	for _, h := range m.holds {
		if h.ScreeningID == screeningID && h.Active && h.ExpiresAt.After(now) {
			out = append(out, h)
		}
	}
	return out, nil
}

// ReservationStore

func (m *memStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := seatKey{r.ScreeningID, r.Row, r.Seat}
	for _, existing := range m.reservations {
		if (seatKey{existing.ScreeningID, existing.Row, existing.Seat}) == key {
			return repository.ErrSeatAlreadyReserved
		}
	}
	m.nextResID++
	r.ID = m.nextResID
	r.Version = 0
	r.CreatedAt = m.now()
	m.reservations[r.ID] = *r
	return nil
}

func (m *memStore) DeleteReservation(ctx context.Context, userID, screeningID uint64, row, seat uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.reservations {
		if r.UserID == userID && r.ScreeningID == screeningID && r.Row == row && r.Seat == seat {
			delete(m.reservations, id)
			return nil
		}
	}
	return repository.ErrReservationNotFound
}

func (m *memStore) ListByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ReservationDetail
	for _, r := range m.reservations {
		if r.UserID != userID {
			continue
		}
		s := m.screenings[r.ScreeningID]
		out = append(out, model.ReservationDetail{
			Reservation:    r,
			ScreeningTitle: s.Title,
			StartsAt:       s.StartsAt,
			PriceCents:     s.PriceCents,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) ListByScreening(ctx context.Context, screeningID uint64) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.reservations {
		if r.ScreeningID == screeningID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) MarkPaid(ctx context.Context, userID, reservationID, expectedVersion uint64) (model.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[reservationID]
	if !ok || r.UserID != userID {
		return model.UpdateOK, repository.ErrReservationNotFound
	}
	if r.Version != expectedVersion {
		return model.UpdateVersionConflict, nil
	}
	r.Paid = true
	r.Version++
	m.reservations[reservationID] = r
	return model.UpdateOK, nil
}

// UserStore

func (m *memStore) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) UpdateProfile(ctx context.Context, userID uint64, fullName, email string, expectedVersion uint64) (model.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return model.UpdateOK, repository.ErrUserNotFound
	}
	if u.Version != expectedVersion {
		return model.UpdateVersionConflict, nil
	}
	u.FullName = fullName
	u.Email = email
	u.Version++
	m.users[userID] = u
	return model.UpdateOK, nil
}

// Adapter views so one memStore serves every interface despite the
// overlapping method names between the reservation and user stores.

type memReservations struct{ *memStore }

func (m memReservations) Create(ctx context.Context, r *model.Reservation) error {
	return m.CreateReservation(ctx, r)
}

func (m memReservations) Delete(ctx context.Context, userID, screeningID uint64, row, seat uint32) error {
	return m.DeleteReservation(ctx, userID, screeningID, row, seat)
}

type memUsers struct{ *memStore }

func (m memUsers) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return m.GetUserByID(ctx, id)
}

// capturingPublisher records every event it is handed.

type capturingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationConfirmedEvent
	fail   error
}

func (p *capturingPublisher) PublishReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, ev)
	return nil
}

// newTestContext builds an echo.Context for a JSON request with the
// given authenticated user already placed in the context.
func newTestContext(method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
		c.Set("role", "CUSTOMER")
	}
	return c, rec
}
