package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"bookingcore/internal/gateway"
	"bookingcore/internal/model"
	"bookingcore/internal/repository"
)

// memState is the data held by memStore.
type memState struct {
	bookings      map[uint]model.Booking
	properties    map[uint]model.Property
	earnings      []model.ConnectorEarning
	notifications []model.Notification
	nextID        uint
}

func (s *memState) clone() *memState {
	c := &memState{
		bookings:      make(map[uint]model.Booking, len(s.bookings)),
		properties:    make(map[uint]model.Property, len(s.properties)),
		earnings:      append([]model.ConnectorEarning(nil), s.earnings...),
		notifications: append([]model.Notification(nil), s.notifications...),
		nextID:        s.nextID,
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.properties {
		c.properties[k] = v
	}
	return c
}

// memStore is an in-memory repository.Store. Transactions run one at a time
// against a copy of the state that is only kept when fn returns nil.
type memStore struct {
	mu    *sync.Mutex
	state *memState
	inTx  bool
	now   func() time.Time
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		mu:    &sync.Mutex{},
		state: &memState{bookings: map[uint]model.Booking{}, properties: map[uint]model.Property{}},
		now:   time.Now,
	}
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memStore{mu: s.mu, state: s.state.clone(), inTx: true, now: s.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	*s.state = *tx.state
	return nil
}

// locked runs fn under the store mutex unless already inside a transaction.
func (s *memStore) locked(fn func()) {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn()
}

func (s *memStore) Bookings() repository.BookingRepository { return memBookings{s} }

func (s *memStore) Properties() repository.PropertyRepository { return memProperties{s} }

func (s *memStore) Earnings() repository.EarningRepository { return memEarnings{s} }

func (s *memStore) Notifications() repository.NotificationRepository { return memNotifications{s} }

func (s *memStore) addProperty(p model.Property) {
	s.locked(func() { s.state.properties[p.ID] = p })
}

// seedBooking inserts a booking as is, keeping its CreatedAt.
func (s *memStore) seedBooking(b model.Booking) model.Booking {
	s.locked(func() {
		s.state.nextID++
		b.ID = s.state.nextID
		if b.BookingReference == "" {
			b.BookingReference = fmt.Sprintf("RES-SEED%04d", b.ID)
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = s.now()
		}
		s.state.bookings[b.ID] = b
	})
	return b
}

func (s *memStore) booking(id uint) (model.Booking, bool) {
	var b model.Booking
	var ok bool
	s.locked(func() { b, ok = s.state.bookings[id] })
	return b, ok
}

func (s *memStore) bookingCount() int {
	var n int
	s.locked(func() { n = len(s.state.bookings) })
	return n
}

func (s *memStore) allBookings() []model.Booking {
	var out []model.Booking
	s.locked(func() {
		for _, b := range s.state.bookings {
			out = append(out, b)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) earningCount() int {
	var n int
	s.locked(func() { n = len(s.state.earnings) })
	return n
}

func (s *memStore) notificationCount() int {
	var n int
	s.locked(func() { n = len(s.state.notifications) })
	return n
}

type memBookings struct{ s *memStore }

func (r memBookings) Create(_ context.Context, b *model.Booking) error {
	r.s.locked(func() {
		r.s.state.nextID++
		b.ID = r.s.state.nextID
		now := r.s.now()
		b.CreatedAt, b.UpdatedAt = now, now
		r.s.state.bookings[b.ID] = *b
	})
	return nil
}

func (r memBookings) Update(_ context.Context, b *model.Booking) error {
	r.s.locked(func() {
		b.UpdatedAt = r.s.now()
		r.s.state.bookings[b.ID] = *b
	})
	return nil
}

func (r memBookings) FindByID(_ context.Context, id uint) (*model.Booking, error) {
	b, ok := r.s.booking(id)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (r memBookings) FindByIDForUpdate(ctx context.Context, id uint) (*model.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r memBookings) FindByReference(_ context.Context, reference string) (*model.Booking, error) {
	for _, b := range r.s.allBookings() {
		if b.BookingReference == reference {
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memBookings) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	_, err := r.FindByReference(ctx, reference)
	return err == nil, nil
}

func (r memBookings) FindBlocking(_ context.Context, propertyID uint, checkIn, checkOut, pendingSince time.Time) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range r.s.allBookings() {
		if b.PropertyID != propertyID || !b.Overlaps(checkIn, checkOut) {
			continue
		}
		if b.Status.Blocking() || (b.Status == model.BookingStatusPending && b.CreatedAt.After(pendingSince)) {
			out = append(out, b)
		}
	}
	return out, nil
}

type memProperties struct{ s *memStore }

func (r memProperties) FindByID(_ context.Context, id uint) (*model.Property, error) {
	var p model.Property
	var ok bool
	r.s.locked(func() { p, ok = r.s.state.properties[id] })
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r memProperties) FindByIDForUpdate(ctx context.Context, id uint) (*model.Property, error) {
	return r.FindByID(ctx, id)
}

func (r memProperties) Upsert(_ context.Context, p *model.Property) (bool, error) {
	var created bool
	r.s.locked(func() {
		_, exists := r.s.state.properties[p.ID]
		created = !exists
		r.s.state.properties[p.ID] = *p
	})
	return created, nil
}

type memEarnings struct{ s *memStore }

func (r memEarnings) Create(_ context.Context, e *model.ConnectorEarning) error {
	var err error
	r.s.locked(func() {
		for _, existing := range r.s.state.earnings {
			if existing.BookingID == e.BookingID {
				err = fmt.Errorf("duplicate earning for booking %d", e.BookingID)
				return
			}
		}
		e.ID = uint(len(r.s.state.earnings) + 1)
		r.s.state.earnings = append(r.s.state.earnings, *e)
	})
	return err
}

func (r memEarnings) ExistsForBooking(_ context.Context, bookingID uint) (bool, error) {
	var found bool
	r.s.locked(func() {
		for _, e := range r.s.state.earnings {
			if e.BookingID == bookingID {
				found = true
			}
		}
	})
	return found, nil
}

type memNotifications struct{ s *memStore }

func (r memNotifications) Create(_ context.Context, n *model.Notification) error {
	r.s.locked(func() {
		for _, existing := range r.s.state.notifications {
			if existing.BookingID == n.BookingID && existing.Kind == n.Kind {
				return
			}
		}
		r.s.state.notifications = append(r.s.state.notifications, *n)
	})
	return nil
}

// eventSink collects recorded payment events.
type eventSink struct {
	mu     sync.Mutex
	events []model.PaymentEvent
}

func (e *eventSink) Record(_ context.Context, event model.PaymentEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *eventSink) outcomes() []model.PaymentEventOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.PaymentEventOutcome, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Outcome)
	}
	return out
}

// invalidations counts availability invalidations per property.
type invalidations struct {
	mu    sync.Mutex
	count map[uint]int
}

func (i *invalidations) Invalidate(_ context.Context, propertyID uint) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.count == nil {
		i.count = map[uint]int{}
	}
	i.count[propertyID]++
}

func (i *invalidations) of(propertyID uint) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.count[propertyID]
}

// MockInitiator is a mock implementation of gateway.Initiator.
type MockInitiator struct {
	mock.Mock
}

func (m *MockInitiator) Initiate(ctx context.Context, booking *model.Booking, callbackURL string) gateway.InitiateResult {
	args := m.Called(ctx, booking, callbackURL)
	return args.Get(0).(gateway.InitiateResult)
}

// MockStatusChecker is a mock implementation of gateway.StatusChecker.
type MockStatusChecker struct {
	mock.Mock
}

func (m *MockStatusChecker) CheckStatus(ctx context.Context, merchantTransactionID string) (*gateway.StatusResult, error) {
	args := m.Called(ctx, merchantTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.StatusResult), args.Error(1)
}

func nullLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func uintPtr(v uint) *uint { return &v }
