package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/repositories"
)

type UserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func NewUserStore(users ...models.User) *UserStore {
	s := &UserStore{users: make(map[primitive.ObjectID]models.User)}
	for _, u := range users {
		s.Add(u)
	}
	return s
}

// Add stores u, assigning an id when it has none, and returns the id.
func (s *UserStore) Add(u models.User) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = u
	return u.ID
}

func (s *UserStore) ListUserIDs(_ context.Context) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]primitive.ObjectID, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	return ids, nil
}

func (s *UserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) UpdateFCMToken(_ context.Context, id primitive.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.FCMToken = token
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

type BusStore struct {
	mu    sync.Mutex
	buses map[primitive.ObjectID]models.Bus
}

func NewBusStore() *BusStore {
	return &BusStore{buses: make(map[primitive.ObjectID]models.Bus)}
}

func (s *BusStore) Add(b models.Bus) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	s.buses[b.ID] = b
	return b.ID
}

func (s *BusStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	b.SeatsBooked = append([]int(nil), b.SeatsBooked...)
	return &b, nil
}

func (s *BusStore) ReserveSeats(_ context.Context, id primitive.ObjectID, seats []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buses[id]
	if !ok || b.HasBooked(seats) {
		return repositories.ErrNotFound
	}
	b.SeatsBooked = append(append([]int(nil), b.SeatsBooked...), seats...)
	s.buses[id] = b
	return nil
}

func (s *BusStore) ReleaseSeats(_ context.Context, id primitive.ObjectID, seats []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buses[id]
	if !ok {
		return nil
	}
	drop := make(map[int]struct{}, len(seats))
	for _, seat := range seats {
		drop[seat] = struct{}{}
	}
	kept := []int{}
	for _, seat := range b.SeatsBooked {
		if _, ok := drop[seat]; !ok {
			kept = append(kept, seat)
		}
	}
	b.SeatsBooked = kept
	s.buses[id] = b
	return nil
}

type BookingStore struct {
	mu       sync.Mutex
	buses    *BusStore
	bookings map[primitive.ObjectID]models.Booking
}

// NewBookingStore joins bookings against buses for ConfirmedForDate.
func NewBookingStore(buses *BusStore) *BookingStore {
	return &BookingStore{buses: buses, bookings: make(map[primitive.ObjectID]models.Booking)}
}

func (s *BookingStore) Insert(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	s.bookings[b.ID] = *b
	return nil
}

func (s *BookingStore) FindForUser(_ context.Context, userID, id primitive.ObjectID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.UserID != userID {
		return nil, repositories.ErrNotFound
	}
	return &b, nil
}

func (s *BookingStore) Cancel(_ context.Context, userID, id primitive.ObjectID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.UserID != userID || b.Status != models.BookingStatusConfirmed {
		return nil, repositories.ErrNotFound
	}
	b.Status = models.BookingStatusCancelled
	b.UpdatedAt = time.Now()
	s.bookings[id] = b
	return &b, nil
}

func (s *BookingStore) ConfirmedForDate(ctx context.Context, journeyDate string) ([]models.UpcomingBooking, error) {
	s.mu.Lock()
	bookings := make([]models.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if b.Status == models.BookingStatusConfirmed {
			bookings = append(bookings, b)
		}
	}
	s.mu.Unlock()

	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID.Hex() < bookings[j].ID.Hex() })

	var out []models.UpcomingBooking
	for _, b := range bookings {
		bus, err := s.buses.FindByID(ctx, b.BusID)
		if err != nil {
			continue
		}
		if bus.JourneyDate == journeyDate {
			out = append(out, models.UpcomingBooking{Booking: b, Bus: *bus})
		}
	}
	return out, nil
}
