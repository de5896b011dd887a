/**
 * @description
 * Property registry operations: asset submission, the verifier-driven
 * lifecycle (verify, reject, pause, resume), and the reserve recheck that
 * auto-pauses assets whose proof-of-reserve attestation degrades.
 *
 * @notes
 * - Verification is the only path that mints initial supply, and it is gated
 *   on a fresh, passing reserve attestation plus a fresh valuation price. The
 *   transition and the mint commit in one repository transaction.
 */

package app

import (
	"context"
	"fmt"
	"log"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/Abbas-Dev-786/securitifi/pkg/oracleclient"
	"github.com/google/uuid"
)

// SubmitAsset records a new property in Pending state. Anyone may submit.
func (s *Service) SubmitAsset(ctx context.Context, ownerID uuid.UUID, req domain.SubmitAssetRequest) (*domain.Asset, error) {
	if req.DeclaredValue <= 0 {
		return nil, fmt.Errorf("declared value must be positive: %w", store.ErrInvalidInput)
	}
	if req.MetadataURI == "" {
		return nil, fmt.Errorf("metadata URI is required: %w", store.ErrInvalidInput)
	}
	asset := &domain.Asset{
		OwnerID:       ownerID,
		MetadataURI:   req.MetadataURI,
		DeclaredValue: req.DeclaredValue,
		State:         domain.AssetPending,
		ReserveFeedID: req.ReserveFeedID,
	}
	created, err := s.repo.CreateAsset(ctx, asset)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, "registry.asset.submitted", created)
	return created, nil
}

// VerifyAsset moves a Pending asset to Verified and mints the initial share
// supply to the owner. Requires the verifier role, a fresh passing reserve
// attestation, and a fresh valuation price.
func (s *Service) VerifyAsset(ctx context.Context, callerID uuid.UUID, assetID int64) (*domain.Asset, error) {
	if !s.roles.CanVerify(callerID) {
		return nil, fmt.Errorf("account %s lacks the verifier role: %w", callerID, store.ErrUnauthorized)
	}
	asset, err := s.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.State != domain.AssetPending {
		return nil, fmt.Errorf("asset %d is %s, only pending assets can be verified: %w", assetID, asset.State, store.ErrInvalidState)
	}

	status, err := s.oracle.LatestReserveStatus(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("reserve attestation for asset %d unavailable: %w: %v", assetID, store.ErrStaleData, err)
	}
	if status.Age(s.now()) > s.reserveMaxAge {
		return nil, fmt.Errorf("reserve attestation for asset %d is stale: %w", assetID, store.ErrStaleData)
	}
	if !s.attestationPasses(asset, status) {
		return nil, fmt.Errorf("reserve attestation for asset %d does not back the declared value: %w", assetID, store.ErrInvalidState)
	}

	quote, err := s.freshPrice(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.VerifyAssetAtomic(ctx, assetID, quote.Value); err != nil {
		return nil, err
	}
	verified, err := s.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, "registry.asset.verified", verified)
	s.publishBalanceChanged(ctx, assetID, "mint", nil, &verified.OwnerID, verified.InitialSupply())
	return verified, nil
}

// RejectAsset terminally rejects a Pending asset. No shares are ever minted
// for a rejected asset.
func (s *Service) RejectAsset(ctx context.Context, callerID uuid.UUID, assetID int64) error {
	if !s.roles.CanVerify(callerID) {
		return fmt.Errorf("account %s lacks the verifier role: %w", callerID, store.ErrUnauthorized)
	}
	if err := s.repo.TransitionAssetState(ctx, assetID, domain.AssetPending, domain.AssetRejected); err != nil {
		return err
	}
	s.publishEvent(ctx, "registry.asset.rejected", map[string]int64{"asset_id": assetID})
	return nil
}

// PauseAsset suspends a Verified asset. Existing balances and loan positions
// survive the pause; new exposure is refused while paused.
func (s *Service) PauseAsset(ctx context.Context, callerID uuid.UUID, assetID int64) error {
	if !s.roles.CanVerify(callerID) {
		return fmt.Errorf("account %s lacks the verifier role: %w", callerID, store.ErrUnauthorized)
	}
	if err := s.repo.TransitionAssetState(ctx, assetID, domain.AssetVerified, domain.AssetPaused); err != nil {
		return err
	}
	s.publishEvent(ctx, "registry.asset.paused", map[string]int64{"asset_id": assetID})
	return nil
}

// ResumeAsset returns a Paused asset to Verified after its reserve
// attestation is healthy again. The recheck is mandatory: resuming does not
// bypass the reserve gate.
func (s *Service) ResumeAsset(ctx context.Context, callerID uuid.UUID, assetID int64) error {
	if !s.roles.CanVerify(callerID) {
		return fmt.Errorf("account %s lacks the verifier role: %w", callerID, store.ErrUnauthorized)
	}
	asset, err := s.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if asset.State != domain.AssetPaused {
		return fmt.Errorf("asset %d is %s, only paused assets can be resumed: %w", assetID, asset.State, store.ErrInvalidState)
	}
	status, err := s.oracle.LatestReserveStatus(ctx, assetID)
	if err != nil {
		return fmt.Errorf("reserve attestation for asset %d unavailable: %w: %v", assetID, store.ErrStaleData, err)
	}
	if status.Age(s.now()) > s.reserveMaxAge {
		return fmt.Errorf("reserve attestation for asset %d is stale: %w", assetID, store.ErrStaleData)
	}
	if !s.attestationPasses(asset, status) {
		return fmt.Errorf("reserve attestation for asset %d still failing: %w", assetID, store.ErrInvalidState)
	}
	if err := s.repo.TransitionAssetState(ctx, assetID, domain.AssetPaused, domain.AssetVerified); err != nil {
		return err
	}
	s.publishEvent(ctx, "registry.asset.resumed", map[string]int64{"asset_id": assetID})
	return nil
}

// RecheckReserves re-reads the reserve attestation for a Verified asset and
// auto-pauses it when the attestation is failing. Invoked by the periodic
// upkeep job and exposed for manual triggering. A stale attestation is
// reported but does not pause the asset on its own.
func (s *Service) RecheckReserves(ctx context.Context, assetID int64) (*domain.Asset, error) {
	asset, err := s.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.State != domain.AssetVerified {
		return asset, nil
	}
	status, err := s.oracle.LatestReserveStatus(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("reserve attestation for asset %d unavailable: %w: %v", assetID, store.ErrStaleData, err)
	}
	if status.Age(s.now()) > s.reserveMaxAge {
		return nil, fmt.Errorf("reserve attestation for asset %d is stale: %w", assetID, store.ErrStaleData)
	}
	if s.attestationPasses(asset, status) {
		return asset, nil
	}
	log.Printf("level=warn component=registry msg=\"reserve attestation failing; pausing asset\" asset_id=%d attested_value=%d confidence=%d",
		assetID, status.AttestedValue, status.ConfidencePercent)
	if err := s.repo.TransitionAssetState(ctx, assetID, domain.AssetVerified, domain.AssetPaused); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, "registry.asset.paused", map[string]int64{"asset_id": assetID})
	return s.repo.GetAssetByID(ctx, assetID)
}

// GetAsset returns one asset by id.
func (s *Service) GetAsset(ctx context.Context, assetID int64) (*domain.Asset, error) {
	return s.repo.GetAssetByID(ctx, assetID)
}

// ListAssets returns all assets, optionally filtered to one owner.
func (s *Service) ListAssets(ctx context.Context, ownerID *uuid.UUID) ([]domain.Asset, error) {
	return s.repo.ListAssets(ctx, ownerID)
}

// attestationPasses applies the reserve acceptance rule: the attested value
// must cover the declared value and the attestor's confidence must meet the
// configured floor.
func (s *Service) attestationPasses(asset *domain.Asset, status *oracleclient.ReserveStatus) bool {
	return status.AttestedValue >= asset.DeclaredValue && status.ConfidencePercent >= s.minReserveConfidence
}
