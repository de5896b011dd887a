/**
 * @description
 * Rent distribution methods of the PostgreSQL repository. The payout run is
 * one transaction that locks the pool row and every balance row of the asset,
 * so no transfer can interleave with the holder enumeration: each holder is
 * paid from a single consistent snapshot.
 */

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetRentPool retrieves the income pool for one asset.
func (r *PostgresRepository) GetRentPool(ctx context.Context, assetID int64) (*domain.RentPool, error) {
	var p domain.RentPool
	query := `
		SELECT asset_id, accrued_amount, last_distribution, updated_at
		FROM rent_pools WHERE asset_id = $1
	`
	err := r.db.QueryRow(ctx, query, assetID).Scan(
		&p.AssetID, &p.AccruedAmount, &p.LastDistribution, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRentPoolNotFound
		}
		return nil, err
	}
	return &p, nil
}

// DepositRentAtomic debits the depositor's cash balance and grows the pool in
// one transaction.
func (r *PostgresRepository) DepositRentAtomic(ctx context.Context, assetID int64, depositorID uuid.UUID, amount int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE cash_accounts SET balance = balance - $2, updated_at = NOW()
		WHERE account_id = $1 AND balance >= $2
	`, depositorID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit depositor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rent_pools (asset_id, accrued_amount, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (asset_id)
		DO UPDATE SET accrued_amount = rent_pools.accrued_amount + EXCLUDED.accrued_amount, updated_at = NOW()
	`, assetID, amount)
	if err != nil {
		return fmt.Errorf("failed to grow pool: %w", err)
	}

	return tx.Commit(ctx)
}

// DistributeRentAtomic pays every holder their floor pro-rata share from the
// accrued pool. The upkeep condition is re-checked under the pool row lock so
// a concurrent distribution run resolves to ErrNothingToDistribute instead of
// double-paying. The rounding remainder stays in the pool for the next cycle.
func (r *PostgresRepository) DistributeRentAtomic(ctx context.Context, assetID int64, period time.Duration, now time.Time) (*domain.DistributionResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var accrued int64
	var last *time.Time
	err = tx.QueryRow(ctx,
		`SELECT accrued_amount, last_distribution FROM rent_pools WHERE asset_id = $1 FOR UPDATE`,
		assetID,
	).Scan(&accrued, &last)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNothingToDistribute
		}
		return nil, fmt.Errorf("failed to lock pool: %w", err)
	}

	if accrued <= 0 {
		return nil, ErrNothingToDistribute
	}
	if last != nil && now.Sub(*last) < period {
		return nil, ErrNothingToDistribute
	}

	var supply int64
	err = tx.QueryRow(ctx,
		`SELECT total_supply FROM asset_supplies WHERE asset_id = $1`,
		assetID,
	).Scan(&supply)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNothingToDistribute
		}
		return nil, fmt.Errorf("failed to read supply: %w", err)
	}
	if supply <= 0 {
		return nil, ErrNothingToDistribute
	}

	// Locking every balance row of the asset freezes the snapshot for the
	// duration of the payout.
	rows, err := tx.Query(ctx, `
		SELECT account_id, amount FROM balances
		WHERE asset_id = $1 AND amount > 0
		ORDER BY account_id
		FOR UPDATE
	`, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balances: %w", err)
	}

	var holders []domain.BalanceEntry
	for rows.Next() {
		var e domain.BalanceEntry
		e.AssetID = assetID
		if err := rows.Scan(&e.AccountID, &e.Amount); err != nil {
			rows.Close()
			return nil, err
		}
		holders = append(holders, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &domain.DistributionResult{
		AssetID:       assetID,
		DistributedAt: now,
	}
	for _, h := range holders {
		share := domain.ProRataShare(accrued, h.Amount, supply)
		if share == 0 {
			continue
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO cash_accounts (account_id, balance, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (account_id)
			DO UPDATE SET balance = cash_accounts.balance + EXCLUDED.balance, updated_at = NOW()
		`, h.AccountID, share)
		if err != nil {
			return nil, fmt.Errorf("failed to pay holder %s: %w", h.AccountID, err)
		}
		result.Payouts = append(result.Payouts, domain.RentPayout{HolderID: h.AccountID, Amount: share})
		result.Distributed += share
	}
	result.Remainder = accrued - result.Distributed

	_, err = tx.Exec(ctx, `
		UPDATE rent_pools
		SET accrued_amount = $2, last_distribution = $3, updated_at = NOW()
		WHERE asset_id = $1
	`, assetID, result.Remainder, now)
	if err != nil {
		return nil, fmt.Errorf("failed to reset pool: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
