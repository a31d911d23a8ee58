package service_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/repository/memory"
	"mould-rental-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFormatReceiptNumber(t *testing.T) {
	assert.Equal(t, "MRT-000001", service.FormatReceiptNumber("MRT-", 1))
	assert.Equal(t, "MRT-999999", service.FormatReceiptNumber("MRT-", 999999))
	assert.Equal(t, "MRT-1000000", service.FormatReceiptNumber("MRT-", 1000000))
}

func TestReceiptSequencer_Next(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRentalRepo)
	repo.On("MaxReceiptSuffix", ctx, "MRT-").Return(int64(0), nil).Once()
	repo.On("MaxReceiptSuffix", ctx, "MRT-").Return(int64(41), nil).Once()

	seq := service.NewReceiptSequencer(repo, "", 0)

	first, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MRT-000001", first)

	next, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MRT-000042", next)
	repo.AssertExpectations(t)
}

func TestReceiptSequencer_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("Retries after conflict", func(t *testing.T) {
		repo := new(MockRentalRepo)
		repo.On("MaxReceiptSuffix", ctx, "MRT-").Return(int64(5), nil).Once()
		// Someone else committed 6 meanwhile.
		repo.On("MaxReceiptSuffix", ctx, "MRT-").Return(int64(6), nil).Once()

		var tried []string
		seq := service.NewReceiptSequencer(repo, "MRT-", 10)
		receipt, err := seq.Issue(ctx, func(_ context.Context, receipt string) error {
			tried = append(tried, receipt)
			if receipt == "MRT-000006" {
				return domain.ErrDuplicateReceipt
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "MRT-000008", receipt)
		assert.Equal(t, []string{"MRT-000006", "MRT-000008"}, tried)
		repo.AssertExpectations(t)
	})

	t.Run("Exhausted", func(t *testing.T) {
		repo := new(MockRentalRepo)
		repo.On("MaxReceiptSuffix", ctx, "MRT-").Return(int64(0), nil)

		calls := 0
		seq := service.NewReceiptSequencer(repo, "MRT-", 3)
		_, err := seq.Issue(ctx, func(context.Context, string) error {
			calls++
			return domain.ErrDuplicateReceipt
		})

		assert.ErrorIs(t, err, domain.ErrExhaustedRetries)
		var exhausted *domain.ExhaustedRetriesError
		require.True(t, errors.As(err, &exhausted))
		assert.Equal(t, 3, exhausted.Attempts)
		assert.Equal(t, "MRT-000003", exhausted.LastCandidate)
		assert.Equal(t, 3, calls)
	})

	t.Run("Other errors stop immediately", func(t *testing.T) {
		repo := new(MockRentalRepo)
		repo.On("MaxReceiptSuffix", ctx, "MRT-").Return(int64(0), nil).Once()

		calls := 0
		seq := service.NewReceiptSequencer(repo, "MRT-", 10)
		_, err := seq.Issue(ctx, func(context.Context, string) error {
			calls++
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, calls)
		repo.AssertExpectations(t)
	})

	t.Run("Storage read failure", func(t *testing.T) {
		repo := new(MockRentalRepo)
		repo.On("MaxReceiptSuffix", mock.Anything, "MRT-").Return(int64(0), assert.AnError)

		seq := service.NewReceiptSequencer(repo, "MRT-", 10)
		_, err := seq.Issue(ctx, func(context.Context, string) error { return nil })
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestReceiptSequencer_ConcurrentIssue(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	customer := &domain.Customer{FullName: "Ama", ContactNumber: "024", IDCardNumber: "GHA-1"}
	require.NoError(t, store.CustomerRepository.FindOrCreate(ctx, customer))

	const n = 10
	seq := service.NewReceiptSequencer(store.RentalRepository, "MRT-", n)

	var wg sync.WaitGroup
	receipts := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			receipts[i], errs[i] = seq.Issue(ctx, func(ctx context.Context, receipt string) error {
				return store.RentalRepository.Create(ctx, &domain.Rental{
					ReceiptNumber: receipt,
					CustomerID:    customer.ID,
					Status:        domain.RentalStatusActive,
					PickupAt:      time.Now(),
				})
			})
		}()
	}
	wg.Wait()

	pattern := regexp.MustCompile(`^MRT-\d{6}$`)
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Regexp(t, pattern, receipts[i])
		assert.False(t, seen[receipts[i]], "receipt %s issued twice", receipts[i])
		seen[receipts[i]] = true
	}
}
