package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookingcore/internal/model"
)

// MockPaymentEventRepository is a mock implementation of PaymentEventRepository.
type MockPaymentEventRepository struct {
	mock.Mock
	mu      sync.Mutex
	written []model.PaymentEvent
}

func (m *MockPaymentEventRepository) Create(ctx context.Context, event *model.PaymentEvent) error {
	args := m.Called(ctx, event)
	m.mu.Lock()
	m.written = append(m.written, *event)
	m.mu.Unlock()
	return args.Error(0)
}

func (m *MockPaymentEventRepository) CreateBatch(ctx context.Context, events []model.PaymentEvent) error {
	args := m.Called(ctx, events)
	m.mu.Lock()
	m.written = append(m.written, events...)
	m.mu.Unlock()
	return args.Error(0)
}

func (m *MockPaymentEventRepository) ListByBooking(ctx context.Context, bookingID uint) ([]model.PaymentEvent, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentEvent), args.Error(1)
}

func (m *MockPaymentEventRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.written)
}

func TestPaymentEventRecorder_FlushesOnClose(t *testing.T) {
	repo := new(MockPaymentEventRepository)
	repo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	logger, _ := nullLogger()

	r := NewPaymentEventRecorder(repo, logger)
	for i := 0; i < 25; i++ {
		r.Record(context.Background(), model.PaymentEvent{Kind: model.PaymentEventCallback, Outcome: model.PaymentEventApplied})
	}
	r.Close()
	r.Close()

	assert.Equal(t, 25, repo.count())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentEventRecorder_FlushesOnTick(t *testing.T) {
	repo := new(MockPaymentEventRepository)
	repo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	logger, _ := nullLogger()

	r := NewPaymentEventRecorder(repo, logger)
	defer r.Close()
	r.Record(context.Background(), model.PaymentEvent{Kind: model.PaymentEventInitiation})

	assert.Eventually(t, func() bool { return repo.count() == 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestPaymentEventRecorder_WriteErrorsAreLogged(t *testing.T) {
	repo := new(MockPaymentEventRepository)
	repo.On("CreateBatch", mock.Anything, mock.Anything).Return(errors.New("db down"))
	logger, hook := nullLogger()

	r := NewPaymentEventRecorder(repo, logger)
	r.Record(context.Background(), model.PaymentEvent{})
	r.Close()

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "payment events dropped", hook.LastEntry().Message)
}

func TestPaymentEventRecorder_RecordAfterCloseWritesDirectly(t *testing.T) {
	repo := new(MockPaymentEventRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	logger, _ := nullLogger()

	r := NewPaymentEventRecorder(repo, logger)
	r.Close()

	require.NotPanics(t, func() {
		r.Record(context.Background(), model.PaymentEvent{Kind: model.PaymentEventCallback, Outcome: model.PaymentEventApplied})
	})
	assert.Equal(t, 1, repo.count())
	repo.AssertNumberOfCalls(t, "Create", 1)
	repo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestPaymentEventRecorder_RecordRacingClose(t *testing.T) {
	repo := new(MockPaymentEventRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	repo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil).Maybe()
	logger, _ := nullLogger()

	r := NewPaymentEventRecorder(repo, logger)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				r.Record(context.Background(), model.PaymentEvent{Kind: model.PaymentEventCallback})
			}
		}()
	}
	r.Close()
	wg.Wait()

	assert.Equal(t, 160, repo.count())
}
