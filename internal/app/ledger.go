/**
 * @description
 * Ownership ledger operations: transfers, batch transfers, operator
 * approvals, and balance queries over fractional asset shares. Supply never
 * changes here: mints and burns happen only inside the registry, lending, and
 * bridge repository transactions, so no HTTP caller can reach them.
 */

package app

import (
	"context"
	"fmt"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/google/uuid"
)

// Transfer moves shares between accounts. The caller must be the source
// account or an approved operator for it.
func (s *Service) Transfer(ctx context.Context, callerID uuid.UUID, req domain.TransferRequest) error {
	if req.Amount <= 0 {
		return fmt.Errorf("transfer amount must be positive: %w", store.ErrInvalidInput)
	}
	if req.From == req.To {
		return fmt.Errorf("transfer source and destination are the same account: %w", store.ErrInvalidInput)
	}
	if err := s.authorizeSpend(ctx, callerID, req.From); err != nil {
		return err
	}
	if err := s.consumeRateLimit(ctx, "ledger_transfer", callerID); err != nil {
		return err
	}
	if err := s.repo.TransferAtomic(ctx, req.AssetID, req.From, req.To, req.Amount); err != nil {
		return err
	}
	s.publishBalanceChanged(ctx, req.AssetID, "transfer", &req.From, &req.To, req.Amount)
	return nil
}

// BatchTransfer moves shares of several assets between one account pair in a
// single all-or-nothing operation.
func (s *Service) BatchTransfer(ctx context.Context, callerID uuid.UUID, req domain.BatchTransferRequest) error {
	if len(req.AssetIDs) == 0 || len(req.AssetIDs) != len(req.Amounts) {
		return fmt.Errorf("asset and amount lists must be non-empty and of equal length: %w", store.ErrInvalidInput)
	}
	for _, amount := range req.Amounts {
		if amount <= 0 {
			return fmt.Errorf("batch transfer amounts must be positive: %w", store.ErrInvalidInput)
		}
	}
	if req.From == req.To {
		return fmt.Errorf("transfer source and destination are the same account: %w", store.ErrInvalidInput)
	}
	if err := s.authorizeSpend(ctx, callerID, req.From); err != nil {
		return err
	}
	if err := s.consumeRateLimit(ctx, "ledger_transfer", callerID); err != nil {
		return err
	}
	if err := s.repo.BatchTransferAtomic(ctx, req.From, req.To, req.AssetIDs, req.Amounts); err != nil {
		return err
	}
	for i, assetID := range req.AssetIDs {
		s.publishBalanceChanged(ctx, assetID, "transfer", &req.From, &req.To, req.Amounts[i])
	}
	return nil
}

// SetApproval grants or revokes an operator's right to move all of the
// owner's shares.
func (s *Service) SetApproval(ctx context.Context, ownerID uuid.UUID, req domain.SetApprovalRequest) error {
	if req.OperatorID == uuid.Nil {
		return fmt.Errorf("operator account id is required: %w", store.ErrInvalidInput)
	}
	if req.OperatorID == ownerID {
		return fmt.Errorf("an account cannot be its own operator: %w", store.ErrInvalidInput)
	}
	return s.repo.SetApproval(ctx, ownerID, req.OperatorID, req.Approved)
}

// BalanceOf returns an account's share balance for one asset. Unknown
// account/asset pairs read as zero.
func (s *Service) BalanceOf(ctx context.Context, accountID uuid.UUID, assetID int64) (int64, error) {
	return s.repo.BalanceOf(ctx, accountID, assetID)
}

// BalanceOfBatch resolves several balance queries in one round trip.
func (s *Service) BalanceOfBatch(ctx context.Context, queries []domain.BalanceQuery) ([]int64, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("at least one balance query is required: %w", store.ErrInvalidInput)
	}
	return s.repo.BalanceOfBatch(ctx, queries)
}

// TotalSupply returns the outstanding share count for an asset.
func (s *Service) TotalSupply(ctx context.Context, assetID int64) (int64, error) {
	return s.repo.TotalSupply(ctx, assetID)
}

// authorizeSpend checks that the caller may move shares out of the given
// account, either as the owner or as an approved operator.
func (s *Service) authorizeSpend(ctx context.Context, callerID, from uuid.UUID) error {
	if callerID == from {
		return nil
	}
	approved, err := s.repo.IsApprovedOperator(ctx, from, callerID)
	if err != nil {
		return fmt.Errorf("checking operator approval: %w", err)
	}
	if !approved {
		return fmt.Errorf("caller %s is not an approved operator for %s: %w", callerID, from, store.ErrUnauthorized)
	}
	return nil
}

func (s *Service) publishBalanceChanged(ctx context.Context, assetID int64, operation string, from, to *uuid.UUID, amount int64) {
	s.publishEvent(ctx, "ledger.balance.changed", domain.BalanceChangedEvent{
		AssetID:   assetID,
		Operation: operation,
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: s.now().UTC(),
	})
}
