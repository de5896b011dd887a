/**
 * @description
 * Lending methods of the PostgreSQL repository. Each state-changing operation
 * locks the borrower's position row (and the balance rows it moves) inside
 * one transaction, so the collateral-health invariant is checked and enforced
 * against the values actually being committed.
 */

package store

import (
	"context"
	"fmt"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetPositionByBorrower retrieves a borrower's open position.
func (r *PostgresRepository) GetPositionByBorrower(ctx context.Context, borrowerID uuid.UUID) (*domain.Position, error) {
	var p domain.Position
	query := `
		SELECT borrower_id, asset_id, collateral_amount, borrowed_amount, created_at, updated_at
		FROM loan_positions WHERE borrower_id = $1
	`
	err := r.db.QueryRow(ctx, query, borrowerID).Scan(
		&p.BorrowerID, &p.AssetID, &p.CollateralAmount, &p.BorrowedAmount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	return &p, nil
}

// DepositCollateralAtomic moves shares from the borrower into custody and
// grows the position in one transaction. A position holds collateral of a
// single asset; depositing a different asset is rejected.
func (r *PostgresRepository) DepositCollateralAtomic(ctx context.Context, borrowerID, custodyID uuid.UUID, assetID, amount int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingAsset int64
	err = tx.QueryRow(ctx,
		`SELECT asset_id FROM loan_positions WHERE borrower_id = $1 FOR UPDATE`,
		borrowerID,
	).Scan(&existingAsset)
	switch {
	case err == pgx.ErrNoRows:
		// First deposit creates the position below.
	case err != nil:
		return fmt.Errorf("failed to lock position: %w", err)
	case existingAsset != assetID:
		return ErrInvalidInput
	}

	if err := debitShares(ctx, tx, assetID, borrowerID, amount); err != nil {
		return err
	}
	if err := creditShares(ctx, tx, assetID, custodyID, amount); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO loan_positions (borrower_id, asset_id, collateral_amount, borrowed_amount, created_at, updated_at)
		VALUES ($1, $2, $3, 0, NOW(), NOW())
		ON CONFLICT (borrower_id)
		DO UPDATE SET collateral_amount = loan_positions.collateral_amount + EXCLUDED.collateral_amount, updated_at = NOW()
	`, borrowerID, assetID, amount)
	if err != nil {
		return fmt.Errorf("failed to grow position: %w", err)
	}

	return tx.Commit(ctx)
}

// BorrowAtomic increases the borrowed amount and credits the borrower's cash
// balance, enforcing the LTV ceiling under the position row lock.
func (r *PostgresRepository) BorrowAtomic(ctx context.Context, borrowerID uuid.UUID, amount, price, ltvBps int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var collateral, borrowed int64
	err = tx.QueryRow(ctx,
		`SELECT collateral_amount, borrowed_amount FROM loan_positions WHERE borrower_id = $1 FOR UPDATE`,
		borrowerID,
	).Scan(&collateral, &borrowed)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrPositionNotFound
		}
		return fmt.Errorf("failed to lock position: %w", err)
	}

	if borrowed+amount > domain.MaxBorrow(collateral, price, ltvBps) {
		return ErrInsufficientCollateral
	}

	_, err = tx.Exec(ctx,
		`UPDATE loan_positions SET borrowed_amount = borrowed_amount + $2, updated_at = NOW() WHERE borrower_id = $1`,
		borrowerID, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to record borrow: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO cash_accounts (account_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account_id)
		DO UPDATE SET balance = cash_accounts.balance + EXCLUDED.balance, updated_at = NOW()
	`, borrowerID, amount)
	if err != nil {
		return fmt.Errorf("failed to disburse cash: %w", err)
	}

	return tx.Commit(ctx)
}

// RepayAtomic decreases the borrowed amount. Payments above the outstanding
// debt are rejected with ErrOverRepayment to keep accounting exact; the cash
// debit happens in the same transaction.
func (r *PostgresRepository) RepayAtomic(ctx context.Context, borrowerID uuid.UUID, amount int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var borrowed int64
	err = tx.QueryRow(ctx,
		`SELECT borrowed_amount FROM loan_positions WHERE borrower_id = $1 FOR UPDATE`,
		borrowerID,
	).Scan(&borrowed)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrPositionNotFound
		}
		return fmt.Errorf("failed to lock position: %w", err)
	}
	if amount > borrowed {
		return ErrOverRepayment
	}

	tag, err := tx.Exec(ctx, `
		UPDATE cash_accounts SET balance = balance - $2, updated_at = NOW()
		WHERE account_id = $1 AND balance >= $2
	`, borrowerID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit repayment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx,
		`UPDATE loan_positions SET borrowed_amount = borrowed_amount - $2, updated_at = NOW() WHERE borrower_id = $1`,
		borrowerID, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to record repayment: %w", err)
	}

	return tx.Commit(ctx)
}

// LiquidateAtomic seizes the full collateral of an unhealthy position: the
// custody balance is burned (supply shrinks) and the position row is removed.
// Positions that pass the health check at the given price are left untouched.
func (r *PostgresRepository) LiquidateAtomic(ctx context.Context, borrowerID, custodyID uuid.UUID, price, ltvBps int64) (*domain.Position, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var p domain.Position
	err = tx.QueryRow(ctx, `
		SELECT borrower_id, asset_id, collateral_amount, borrowed_amount, created_at, updated_at
		FROM loan_positions WHERE borrower_id = $1 FOR UPDATE
	`, borrowerID).Scan(
		&p.BorrowerID, &p.AssetID, &p.CollateralAmount, &p.BorrowedAmount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to lock position: %w", err)
	}

	if domain.PositionHealthy(p.CollateralAmount, p.BorrowedAmount, price, ltvBps) {
		return nil, ErrPositionHealthy
	}

	if err := debitShares(ctx, tx, p.AssetID, custodyID, p.CollateralAmount); err != nil {
		return nil, fmt.Errorf("failed to seize collateral: %w", err)
	}
	if err := growSupply(ctx, tx, p.AssetID, -p.CollateralAmount); err != nil {
		return nil, fmt.Errorf("failed to burn collateral: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM loan_positions WHERE borrower_id = $1`, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear position: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}
