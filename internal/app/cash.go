/**
 * @description
 * Settlement-currency account operations. Cash is the engine's internal
 * funding rail for loan disbursements, repayments, and rent; deposits and
 * withdrawals model the external on/off ramp.
 */

package app

import (
	"context"
	"fmt"

	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/google/uuid"
)

// DepositCash credits the account's settlement-currency balance.
func (s *Service) DepositCash(ctx context.Context, accountID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("deposit amount must be positive: %w", store.ErrInvalidInput)
	}
	return s.repo.CreditCash(ctx, accountID, amount)
}

// WithdrawCash debits the account's settlement-currency balance.
func (s *Service) WithdrawCash(ctx context.Context, accountID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("withdrawal amount must be positive: %w", store.ErrInvalidInput)
	}
	return s.repo.DebitCash(ctx, accountID, amount)
}

// CashBalance returns the account's settlement-currency balance. Unknown
// accounts read as zero.
func (s *Service) CashBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return s.repo.CashBalance(ctx, accountID)
}
