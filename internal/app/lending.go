/**
 * @description
 * Collateralized lending operations: collateral deposits into custody,
 * borrowing against a fresh oracle price, repayment, and all-or-nothing
 * liquidation of unhealthy positions.
 *
 * @notes
 * - Every price-sensitive decision (borrow, liquidate, max-borrow quote)
 *   refuses to act on a price older than the configured staleness window.
 * - Repay and liquidate stay available while an asset is paused so positions
 *   can always be unwound; only new exposure is refused.
 */

package app

import (
	"context"
	"fmt"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/google/uuid"
)

// DepositCollateral moves property shares from the borrower into custody and
// grows their position. A borrower's position holds exactly one asset.
func (s *Service) DepositCollateral(ctx context.Context, borrowerID uuid.UUID, req domain.DepositCollateralRequest) error {
	if req.Amount <= 0 {
		return fmt.Errorf("collateral amount must be positive: %w", store.ErrInvalidInput)
	}
	asset, err := s.repo.GetAssetByID(ctx, req.AssetID)
	if err != nil {
		return err
	}
	switch asset.State {
	case domain.AssetVerified:
	case domain.AssetPaused:
		return fmt.Errorf("asset %d is paused: %w", req.AssetID, store.ErrAssetPaused)
	default:
		return fmt.Errorf("asset %d is %s: %w", req.AssetID, asset.State, store.ErrAssetUnverified)
	}
	if err := s.repo.DepositCollateralAtomic(ctx, borrowerID, s.custodyID, req.AssetID, req.Amount); err != nil {
		return err
	}
	s.publishBalanceChanged(ctx, req.AssetID, "transfer", &borrowerID, &s.custodyID, req.Amount)
	return nil
}

// Borrow draws settlement currency against the borrower's collateral, up to
// the LTV ceiling at the latest fresh price.
func (s *Service) Borrow(ctx context.Context, borrowerID uuid.UUID, req domain.BorrowRequest) error {
	if req.Amount <= 0 {
		return fmt.Errorf("borrow amount must be positive: %w", store.ErrInvalidInput)
	}
	position, err := s.repo.GetPositionByBorrower(ctx, borrowerID)
	if err != nil {
		return err
	}
	asset, err := s.repo.GetAssetByID(ctx, position.AssetID)
	if err != nil {
		return err
	}
	if asset.State == domain.AssetPaused {
		return fmt.Errorf("asset %d is paused: %w", position.AssetID, store.ErrAssetPaused)
	}
	quote, err := s.freshPrice(ctx, position.AssetID)
	if err != nil {
		return err
	}
	return s.repo.BorrowAtomic(ctx, borrowerID, req.Amount, quote.Value, s.ltvBps)
}

// Repay pays down the borrower's debt from their cash balance. Paying more
// than is owed is refused up front; the repository re-checks the debt under
// lock, so a concurrent repayment still cannot push it negative.
func (s *Service) Repay(ctx context.Context, borrowerID uuid.UUID, req domain.RepayRequest) error {
	if req.Amount <= 0 {
		return fmt.Errorf("repay amount must be positive: %w", store.ErrInvalidInput)
	}
	position, err := s.repo.GetPositionByBorrower(ctx, borrowerID)
	if err != nil {
		return err
	}
	if req.Amount > position.BorrowedAmount {
		return fmt.Errorf("repaying %d against a debt of %d: %w", req.Amount, position.BorrowedAmount, store.ErrOverRepayment)
	}
	return s.repo.RepayAtomic(ctx, borrowerID, req.Amount)
}

// Liquidate seizes and burns the full collateral of an unhealthy position and
// clears it. Callable by anyone; the repository re-checks health under lock
// and refuses with ErrPositionHealthy when the position is fine.
func (s *Service) Liquidate(ctx context.Context, req domain.LiquidateRequest) (*domain.Position, error) {
	position, err := s.repo.GetPositionByBorrower(ctx, req.BorrowerID)
	if err != nil {
		return nil, err
	}
	quote, err := s.freshPrice(ctx, position.AssetID)
	if err != nil {
		return nil, err
	}
	cleared, err := s.repo.LiquidateAtomic(ctx, req.BorrowerID, s.custodyID, quote.Value, s.ltvBps)
	if err != nil {
		return nil, err
	}
	s.publishBalanceChanged(ctx, cleared.AssetID, "burn", &s.custodyID, nil, cleared.CollateralAmount)
	s.publishEvent(ctx, "lending.position.liquidated", cleared)
	return cleared, nil
}

// CalculateMaxBorrow quotes the borrowing capacity for a hypothetical
// collateral amount at the latest fresh price.
func (s *Service) CalculateMaxBorrow(ctx context.Context, assetID, collateralAmount int64) (int64, error) {
	if collateralAmount <= 0 {
		return 0, nil
	}
	quote, err := s.freshPrice(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return domain.MaxBorrow(collateralAmount, quote.Value, s.ltvBps), nil
}

// GetPosition returns the borrower's open position.
func (s *Service) GetPosition(ctx context.Context, borrowerID uuid.UUID) (*domain.Position, error) {
	return s.repo.GetPositionByBorrower(ctx, borrowerID)
}
