/**
 * @description
 * Domain models for the multi-asset ownership ledger: balance entries keyed by
 * (account, asset), operator approvals, and the DTOs and event payloads used
 * by the transfer endpoints and the event stream.
 *
 * @notes
 * - Amounts are int64 in the smallest share unit; no floating point is used
 *   anywhere in balance accounting.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// BalanceEntry is one (account, asset) -> amount row of the ledger.
type BalanceEntry struct {
	AccountID uuid.UUID `json:"account_id"`
	AssetID   int64     `json:"asset_id"`
	Amount    int64     `json:"amount"`
}

// Approval grants an operator permission to move an owner's balances.
type Approval struct {
	OwnerID    uuid.UUID `json:"owner_id"`
	OperatorID uuid.UUID `json:"operator_id"`
	Approved   bool      `json:"approved"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TransferRequest is the DTO for a single-asset share transfer.
type TransferRequest struct {
	From    uuid.UUID `json:"from"`
	To      uuid.UUID `json:"to"`
	AssetID int64     `json:"asset_id"`
	Amount  int64     `json:"amount"`
}

// BatchTransferRequest moves several assets between the same two accounts in
// one atomic operation. AssetIDs and Amounts are parallel slices.
type BatchTransferRequest struct {
	From     uuid.UUID `json:"from"`
	To       uuid.UUID `json:"to"`
	AssetIDs []int64   `json:"asset_ids"`
	Amounts  []int64   `json:"amounts"`
}

// SetApprovalRequest is the DTO for granting or revoking operator rights.
type SetApprovalRequest struct {
	OperatorID uuid.UUID `json:"operator_id"`
	Approved   bool      `json:"approved"`
}

// BalanceQuery identifies one (account, asset) pair in a batch balance read.
type BalanceQuery struct {
	AccountID uuid.UUID `json:"account_id"`
	AssetID   int64     `json:"asset_id"`
}

// BalanceChangedEvent is published for every asset touched by a mutating
// ledger call. Downstream consumers (e.g. indexers, the lending health
// monitor) react lazily; the ledger never pushes state into them.
type BalanceChangedEvent struct {
	AssetID   int64      `json:"asset_id"`
	Operation string     `json:"operation"` // mint, burn, transfer
	From      *uuid.UUID `json:"from,omitempty"`
	To        *uuid.UUID `json:"to,omitempty"`
	Amount    int64      `json:"amount"`
	Timestamp time.Time  `json:"timestamp"`
}
