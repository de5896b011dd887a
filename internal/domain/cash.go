/**
 * @description
 * The settlement-currency (cash) side of the ledger. Lending disbursements,
 * repayments, rent deposits, and rent payouts all move cash balances rather
 * than property shares.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// CashAccount is an account's settlement-currency balance in the smallest
// unit. Maps to `cash_accounts`.
type CashAccount struct {
	AccountID uuid.UUID `json:"account_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CashMovementRequest is the DTO for cash deposits and withdrawals.
type CashMovementRequest struct {
	Amount int64 `json:"amount"`
}
