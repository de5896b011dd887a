/**
 * @description
 * Rent distribution vault operations: paying rental income into a per-asset
 * pool and flushing the pool pro-rata to share holders once per distribution
 * period. The upkeep scheduler drives CheckUpkeep/Distribute; both are also
 * exposed over HTTP.
 */

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/google/uuid"
)

// DepositRent moves cash from the depositor into the asset's rent pool.
// Only Verified assets accept rent.
func (s *Service) DepositRent(ctx context.Context, depositorID uuid.UUID, req domain.DepositRentRequest) error {
	if req.Amount <= 0 {
		return fmt.Errorf("rent amount must be positive: %w", store.ErrInvalidInput)
	}
	asset, err := s.repo.GetAssetByID(ctx, req.AssetID)
	if err != nil {
		return err
	}
	if asset.State != domain.AssetVerified {
		return fmt.Errorf("asset %d is %s: %w", req.AssetID, asset.State, store.ErrAssetUnverified)
	}
	if err := s.repo.DepositRentAtomic(ctx, req.AssetID, depositorID, req.Amount); err != nil {
		return err
	}
	s.publishEvent(ctx, "rent.deposited", map[string]int64{"asset_id": req.AssetID, "amount": req.Amount})
	return nil
}

// CheckUpkeep reports whether the asset's pool is due for distribution: a
// positive accrued amount and a full period since the last run. Pools that
// have never distributed are due as soon as they hold funds.
func (s *Service) CheckUpkeep(ctx context.Context, assetID int64) (bool, error) {
	pool, err := s.repo.GetRentPool(ctx, assetID)
	if err != nil {
		if errors.Is(err, store.ErrRentPoolNotFound) {
			return false, nil
		}
		return false, err
	}
	if pool.AccruedAmount <= 0 {
		return false, nil
	}
	if pool.LastDistribution == nil {
		return true, nil
	}
	return s.now().Sub(*pool.LastDistribution) >= s.distributionPeriod, nil
}

// Distribute flushes the pool pro-rata to current holders. The repository
// re-checks eligibility under the pool lock, so concurrent triggers cannot
// double-pay; losers get ErrNothingToDistribute.
func (s *Service) Distribute(ctx context.Context, assetID int64) (*domain.DistributionResult, error) {
	due, err := s.CheckUpkeep(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if !due {
		return nil, fmt.Errorf("asset %d: %w", assetID, store.ErrNothingToDistribute)
	}
	result, err := s.repo.DistributeRentAtomic(ctx, assetID, s.distributionPeriod, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, "rent.distributed", result)
	return result, nil
}

// GetRentPool returns the pool state for an asset.
func (s *Service) GetRentPool(ctx context.Context, assetID int64) (*domain.RentPool, error) {
	return s.repo.GetRentPool(ctx, assetID)
}
