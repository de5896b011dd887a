/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access performed by the settlement engine. The interface decouples business
 * logic from PostgreSQL so the application service can be tested against
 * stubs.
 *
 * The ...Atomic methods are the serialization points of the engine: each one
 * runs as a single database transaction that locks the touched balance,
 * position, pool, or transfer rows, so concurrent calls against the same keys
 * are linearized and multi-step mutations either fully apply or have no
 * effect.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: Account and transfer identifiers.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/google/uuid"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Asset registry methods
	CreateAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error)
	GetAssetByID(ctx context.Context, assetID int64) (*domain.Asset, error)
	ListAssets(ctx context.Context, ownerID *uuid.UUID) ([]domain.Asset, error)
	// TransitionAssetState applies `from -> to` only when the stored state
	// still equals `from`; otherwise it returns ErrInvalidState.
	TransitionAssetState(ctx context.Context, assetID int64, from, to domain.VerificationState) error
	// VerifyAssetAtomic moves a Pending asset to Verified, fixes its initial
	// valuation index, and mints the initial supply to the owner in one
	// transaction. A failed mint rolls the transition back.
	VerifyAssetAtomic(ctx context.Context, assetID int64, valuationIndex int64) error

	// Ownership ledger methods
	BalanceOf(ctx context.Context, accountID uuid.UUID, assetID int64) (int64, error)
	BalanceOfBatch(ctx context.Context, queries []domain.BalanceQuery) ([]int64, error)
	TotalSupply(ctx context.Context, assetID int64) (int64, error)
	TransferAtomic(ctx context.Context, assetID int64, from, to uuid.UUID, amount int64) error
	// BatchTransferAtomic applies all legs in one transaction; any failing
	// leg aborts the whole batch.
	BatchTransferAtomic(ctx context.Context, from, to uuid.UUID, assetIDs []int64, amounts []int64) error
	SetApproval(ctx context.Context, ownerID, operatorID uuid.UUID, approved bool) error
	IsApprovedOperator(ctx context.Context, ownerID, operatorID uuid.UUID) (bool, error)

	// Settlement-currency (cash) methods
	CashBalance(ctx context.Context, accountID uuid.UUID) (int64, error)
	CreditCash(ctx context.Context, accountID uuid.UUID, amount int64) error
	DebitCash(ctx context.Context, accountID uuid.UUID, amount int64) error

	// Lending methods
	GetPositionByBorrower(ctx context.Context, borrowerID uuid.UUID) (*domain.Position, error)
	// DepositCollateralAtomic moves shares from the borrower to the custody
	// account and grows the position in one transaction.
	DepositCollateralAtomic(ctx context.Context, borrowerID, custodyID uuid.UUID, assetID, amount int64) error
	// BorrowAtomic locks the position row, enforces
	// borrowed+amount <= collateral*price*ltvBps/10000 (price has 8 fixed
	// decimals) and credits the borrower's cash balance.
	BorrowAtomic(ctx context.Context, borrowerID uuid.UUID, amount, price, ltvBps int64) error
	RepayAtomic(ctx context.Context, borrowerID uuid.UUID, amount int64) error
	// LiquidateAtomic burns the full collateral from custody and clears the
	// position, but only when the health check fails under the given price.
	LiquidateAtomic(ctx context.Context, borrowerID, custodyID uuid.UUID, price, ltvBps int64) (*domain.Position, error)

	// Rent distribution methods
	GetRentPool(ctx context.Context, assetID int64) (*domain.RentPool, error)
	DepositRentAtomic(ctx context.Context, assetID int64, depositorID uuid.UUID, amount int64) error
	// DistributeRentAtomic locks the pool and the asset's balance rows,
	// enumerates holders from that consistent snapshot, credits each holder's
	// floor pro-rata share in cash, and carries the remainder forward.
	DistributeRentAtomic(ctx context.Context, assetID int64, period time.Duration, now time.Time) (*domain.DistributionResult, error)

	// Bridge methods
	UpsertRoute(ctx context.Context, route *domain.BridgeRoute) error
	GetRouteByChainName(ctx context.Context, chainName string) (*domain.BridgeRoute, error)
	ListRoutes(ctx context.Context) ([]domain.BridgeRoute, error)
	GetTransferByID(ctx context.Context, transferID uuid.UUID) (*domain.InFlightTransfer, error)
	// LockAndSendAtomic burns the sender's balance and records the Locked
	// transfer in one transaction.
	LockAndSendAtomic(ctx context.Context, transfer *domain.InFlightTransfer) error
	// MarkTransferDelivered flips locked -> delivered. Returns false without
	// error when the transfer is already terminal (redelivered callback).
	MarkTransferDelivered(ctx context.Context, transferID uuid.UUID) (bool, error)
	// FailTransferAtomic flips locked -> failed and mints the amount back to
	// the sender in the same transaction. Returns false without error when
	// the transfer is already terminal.
	FailTransferAtomic(ctx context.Context, transferID uuid.UUID) (bool, error)
	// RecordInboundMintAtomic mints destination-side supply for a transfer
	// arriving from another chain, exactly once per transfer id. Returns
	// false without error when the transfer was already processed.
	RecordInboundMintAtomic(ctx context.Context, transferID uuid.UUID, recipientID uuid.UUID, assetID, amount int64) (bool, error)
}
