package service

import (
	"context"
	"errors"
	"fmt"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/repository"
)

const (
	DefaultReceiptPrefix      = "MRT-"
	DefaultReceiptMaxAttempts = 10
)

// FormatReceiptNumber renders n zero-padded to six digits. Wider numbers keep
// all their digits.
func FormatReceiptNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s%06d", prefix, n)
}

type receiptSequencer struct {
	rentalRepo  repository.RentalRepository
	prefix      string
	maxAttempts int
}

func NewReceiptSequencer(rentalRepo repository.RentalRepository, prefix string, maxAttempts int) ReceiptSequencer {
	if prefix == "" {
		prefix = DefaultReceiptPrefix
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultReceiptMaxAttempts
	}
	return &receiptSequencer{rentalRepo: rentalRepo, prefix: prefix, maxAttempts: maxAttempts}
}

func (s *receiptSequencer) Next(ctx context.Context) (string, error) {
	highest, err := s.rentalRepo.MaxReceiptSuffix(ctx, s.prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read receipt numbers: %w", err)
	}
	return FormatReceiptNumber(s.prefix, highest+1), nil
}

// Issue proposes max+1 and, after each conflict, re-reads the maximum and
// proposes max+1+attempts. Candidates strictly increase and every conflict
// means another rental committed in between, so with N concurrent issuers a
// bound of N attempts always suffices.
func (s *receiptSequencer) Issue(ctx context.Context, commit func(ctx context.Context, receipt string) error) (string, error) {
	highest, err := s.rentalRepo.MaxReceiptSuffix(ctx, s.prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read receipt numbers: %w", err)
	}

	var candidate string
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate = FormatReceiptNumber(s.prefix, highest+1+int64(attempt))
		err := commit(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, domain.ErrDuplicateReceipt) {
			return "", err
		}

		logger.Warn("Receipt number taken, retrying", "receipt_number", candidate, "attempt", attempt+1)
		if highest, err = s.rentalRepo.MaxReceiptSuffix(ctx, s.prefix); err != nil {
			return "", fmt.Errorf("failed to read receipt numbers: %w", err)
		}
	}

	logger.Error("Receipt number retries exhausted", "attempts", s.maxAttempts, "last_candidate", candidate)
	return "", &domain.ExhaustedRetriesError{Attempts: s.maxAttempts, LastCandidate: candidate}
}
