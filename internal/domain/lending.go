/**
 * @description
 * Domain models for the collateralized lending engine. A borrower has at most
 * one open position: deposited property shares held in custody plus the
 * outstanding borrowed amount of settlement currency.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Position is a borrower's collateral and debt. Maps to `loan_positions`.
// Invariant after every state-changing operation:
//
//	BorrowedAmount <= CollateralAmount * price * LTV / 10000 (floor)
//
// Positions that fall below the line after a price move are liquidatable.
type Position struct {
	BorrowerID       uuid.UUID `json:"borrower_id"`
	AssetID          int64     `json:"asset_id"`
	CollateralAmount int64     `json:"collateral_amount"`
	BorrowedAmount   int64     `json:"borrowed_amount"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DepositCollateralRequest is the DTO for adding collateral to a position.
type DepositCollateralRequest struct {
	AssetID int64 `json:"asset_id"`
	Amount  int64 `json:"amount"`
}

// BorrowRequest is the DTO for drawing settlement currency against collateral.
type BorrowRequest struct {
	Amount int64 `json:"amount"`
}

// RepayRequest is the DTO for paying down outstanding debt.
type RepayRequest struct {
	Amount int64 `json:"amount"`
}

// LiquidateRequest identifies the position to liquidate. Liquidation is
// all-or-nothing and callable by anyone once the health check fails.
type LiquidateRequest struct {
	BorrowerID uuid.UUID `json:"borrower_id"`
}
