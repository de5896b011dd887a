/**
 * @description
 * PostgreSQL implementation of the `Repository` interface: asset registry,
 * ownership ledger, and settlement-currency accounts. Lending, rent, and
 * bridge methods live in sibling files.
 *
 * Concurrency model: every multi-step mutation runs in one pgx transaction
 * and takes row locks (SELECT ... FOR UPDATE) on the balances and supplies it
 * touches. Two concurrent operations on the same (account, asset) pair are
 * therefore processed one at a time, which is what keeps the
 * sum-of-balances == total-supply invariant intact.
 *
 * @dependencies
 * - context, errors, fmt, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - internal/domain: Domain models.
 */

package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a concrete implementation of the Repository interface.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateAsset inserts a new Pending asset and returns it with its assigned id.
func (r *PostgresRepository) CreateAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	query := `
		INSERT INTO assets (owner_id, metadata_uri, declared_value, state, reserve_feed_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		asset.OwnerID, asset.MetadataURI, asset.DeclaredValue, asset.State, asset.ReserveFeedID,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert asset: %w", err)
	}
	return asset, nil
}

// GetAssetByID retrieves one asset.
func (r *PostgresRepository) GetAssetByID(ctx context.Context, assetID int64) (*domain.Asset, error) {
	var a domain.Asset
	query := `
		SELECT id, owner_id, metadata_uri, declared_value, state, initial_valuation_index, reserve_feed_id, created_at, updated_at
		FROM assets WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, assetID).Scan(
		&a.ID, &a.OwnerID, &a.MetadataURI, &a.DeclaredValue, &a.State,
		&a.InitialValuationIndex, &a.ReserveFeedID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAssets returns all assets, optionally filtered by owner.
func (r *PostgresRepository) ListAssets(ctx context.Context, ownerID *uuid.UUID) ([]domain.Asset, error) {
	query := `
		SELECT id, owner_id, metadata_uri, declared_value, state, initial_valuation_index, reserve_feed_id, created_at, updated_at
		FROM assets
		WHERE ($1::uuid IS NULL OR owner_id = $1)
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(
			&a.ID, &a.OwnerID, &a.MetadataURI, &a.DeclaredValue, &a.State,
			&a.InitialValuationIndex, &a.ReserveFeedID, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// TransitionAssetState performs a guarded state update. The WHERE clause pins
// the expected source state so a concurrent transition loses cleanly with
// ErrInvalidState instead of clobbering the row.
func (r *PostgresRepository) TransitionAssetState(ctx context.Context, assetID int64, from, to domain.VerificationState) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE assets SET state = $1, updated_at = NOW() WHERE id = $2 AND state = $3`,
		to, assetID, from,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, lookupErr := r.GetAssetByID(ctx, assetID); lookupErr != nil {
			return lookupErr
		}
		return ErrInvalidState
	}
	return nil
}

// VerifyAssetAtomic moves a Pending asset to Verified, records the valuation
// index, and mints the initial supply to the owner in one transaction.
func (r *PostgresRepository) VerifyAssetAtomic(ctx context.Context, assetID int64, valuationIndex int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ownerID uuid.UUID
	var declaredValue int64
	var state domain.VerificationState
	err = tx.QueryRow(ctx,
		`SELECT owner_id, declared_value, state FROM assets WHERE id = $1 FOR UPDATE`,
		assetID,
	).Scan(&ownerID, &declaredValue, &state)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrAssetNotFound
		}
		return fmt.Errorf("failed to lock asset: %w", err)
	}
	if state != domain.AssetPending {
		return ErrInvalidState
	}

	_, err = tx.Exec(ctx,
		`UPDATE assets SET state = $1, initial_valuation_index = $2, updated_at = NOW() WHERE id = $3`,
		domain.AssetVerified, valuationIndex, assetID,
	)
	if err != nil {
		return fmt.Errorf("failed to verify asset: %w", err)
	}

	supply := (&domain.Asset{DeclaredValue: declaredValue}).InitialSupply()
	if err := creditShares(ctx, tx, assetID, ownerID, supply); err != nil {
		return fmt.Errorf("failed to mint initial supply: %w", err)
	}
	if err := growSupply(ctx, tx, assetID, supply); err != nil {
		return fmt.Errorf("failed to grow supply: %w", err)
	}

	return tx.Commit(ctx)
}

// BalanceOf returns the share balance for one (account, asset) pair. Missing
// rows read as zero.
func (r *PostgresRepository) BalanceOf(ctx context.Context, accountID uuid.UUID, assetID int64) (int64, error) {
	var amount int64
	err := r.db.QueryRow(ctx,
		`SELECT amount FROM balances WHERE account_id = $1 AND asset_id = $2`,
		accountID, assetID,
	).Scan(&amount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return amount, nil
}

// BalanceOfBatch resolves a list of (account, asset) queries in order.
func (r *PostgresRepository) BalanceOfBatch(ctx context.Context, queries []domain.BalanceQuery) ([]int64, error) {
	amounts := make([]int64, len(queries))
	for i, q := range queries {
		amount, err := r.BalanceOf(ctx, q.AccountID, q.AssetID)
		if err != nil {
			return nil, err
		}
		amounts[i] = amount
	}
	return amounts, nil
}

// TotalSupply returns the minted supply of one asset. Missing rows read as
// zero (never-minted asset).
func (r *PostgresRepository) TotalSupply(ctx context.Context, assetID int64) (int64, error) {
	var supply int64
	err := r.db.QueryRow(ctx,
		`SELECT total_supply FROM asset_supplies WHERE asset_id = $1`,
		assetID,
	).Scan(&supply)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return supply, nil
}

// TransferAtomic moves shares between two accounts, touching the two balance
// rows in account-id order so opposing transfers cannot deadlock.
func (r *PostgresRepository) TransferAtomic(ctx context.Context, assetID int64, from, to uuid.UUID, amount int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := moveShares(ctx, tx, assetID, from, to, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// BatchTransferAtomic moves several assets between the same two accounts in
// one transaction. Legs run in asset-id order and each leg touches its two
// balance rows in account-id order, so two concurrent batches, including
// opposing ones, always take their locks in the same sequence.
func (r *PostgresRepository) BatchTransferAtomic(ctx context.Context, from, to uuid.UUID, assetIDs []int64, amounts []int64) error {
	if len(assetIDs) != len(amounts) {
		return ErrInvalidInput
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, i := range sortedLegOrder(assetIDs) {
		if err := moveShares(ctx, tx, assetIDs[i], from, to, amounts[i]); err != nil {
			return fmt.Errorf("asset %d: %w", assetIDs[i], err)
		}
	}
	return tx.Commit(ctx)
}

// SetApproval records or clears an operator approval.
func (r *PostgresRepository) SetApproval(ctx context.Context, ownerID, operatorID uuid.UUID, approved bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO approvals (owner_id, operator_id, approved, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (owner_id, operator_id)
		DO UPDATE SET approved = EXCLUDED.approved, updated_at = NOW()
	`, ownerID, operatorID, approved)
	return err
}

// IsApprovedOperator reports whether the operator may move the owner's
// balances.
func (r *PostgresRepository) IsApprovedOperator(ctx context.Context, ownerID, operatorID uuid.UUID) (bool, error) {
	var approved bool
	err := r.db.QueryRow(ctx,
		`SELECT approved FROM approvals WHERE owner_id = $1 AND operator_id = $2`,
		ownerID, operatorID,
	).Scan(&approved)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return approved, nil
}

// CashBalance returns an account's settlement-currency balance. Missing rows
// read as zero.
func (r *PostgresRepository) CashBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx,
		`SELECT balance FROM cash_accounts WHERE account_id = $1`,
		accountID,
	).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

// CreditCash adds settlement currency to an account.
func (r *PostgresRepository) CreditCash(ctx context.Context, accountID uuid.UUID, amount int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO cash_accounts (account_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account_id)
		DO UPDATE SET balance = cash_accounts.balance + EXCLUDED.balance, updated_at = NOW()
	`, accountID, amount)
	return err
}

// DebitCash removes settlement currency from an account, failing with
// ErrInsufficientBalance when underfunded.
func (r *PostgresRepository) DebitCash(ctx context.Context, accountID uuid.UUID, amount int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE cash_accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE account_id = $1 AND balance >= $2
	`, accountID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// moveShares debits one balance row and credits another inside an open
// transaction. The rows are touched in ascending account-id order: opposing
// transfers between the same two accounts then contend on the first row
// instead of deadlocking on each other's second row.
func moveShares(ctx context.Context, tx pgx.Tx, assetID int64, from, to uuid.UUID, amount int64) error {
	if debitRowFirst(from, to) {
		if err := debitShares(ctx, tx, assetID, from, amount); err != nil {
			return err
		}
		return creditShares(ctx, tx, assetID, to, amount)
	}
	if err := creditShares(ctx, tx, assetID, to, amount); err != nil {
		return err
	}
	return debitShares(ctx, tx, assetID, from, amount)
}

// debitRowFirst reports whether the sender's balance row sorts before the
// recipient's, comparing account ids bytewise.
func debitRowFirst(from, to uuid.UUID) bool {
	return bytes.Compare(from[:], to[:]) < 0
}

// creditShares adds to one balance row inside an open transaction.
func creditShares(ctx context.Context, tx pgx.Tx, assetID int64, accountID uuid.UUID, amount int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO balances (account_id, asset_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, asset_id)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount
	`, accountID, assetID, amount)
	return err
}

// debitShares locks the sender's balance row and subtracts, failing with
// ErrInsufficientBalance when the row is missing or underfunded.
func debitShares(ctx context.Context, tx pgx.Tx, assetID int64, accountID uuid.UUID, amount int64) error {
	var current int64
	err := tx.QueryRow(ctx,
		`SELECT amount FROM balances WHERE account_id = $1 AND asset_id = $2 FOR UPDATE`,
		accountID, assetID,
	).Scan(&current)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrInsufficientBalance
		}
		return err
	}
	if current < amount {
		return ErrInsufficientBalance
	}
	_, err = tx.Exec(ctx,
		`UPDATE balances SET amount = amount - $3 WHERE account_id = $1 AND asset_id = $2`,
		accountID, assetID, amount,
	)
	return err
}

// growSupply adjusts an asset's total supply inside an open transaction.
// Negative deltas shrink the supply on burn.
func growSupply(ctx context.Context, tx pgx.Tx, assetID int64, delta int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO asset_supplies (asset_id, total_supply)
		VALUES ($1, $2)
		ON CONFLICT (asset_id)
		DO UPDATE SET total_supply = asset_supplies.total_supply + EXCLUDED.total_supply
	`, assetID, delta)
	return err
}

// sortedLegOrder returns batch indexes ordered by ascending asset id so row
// locks are always taken in the same order.
func sortedLegOrder(assetIDs []int64) []int {
	order := make([]int, len(assetIDs))
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && assetIDs[order[j-1]] > assetIDs[order[j]]; j-- {
			order[j-1], order[j] = order[j], order[j-1]
		}
	}
	return order
}
