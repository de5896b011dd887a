/**
 * @description
 * Domain models for the rent distribution vault: the per-asset income pool
 * and the result of a pro-rata payout run.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// RentPool accumulates rental income for one asset between distributions.
// Maps to `rent_pools`. AccruedAmount only grows between payouts and resets
// to the rounding remainder afterwards; LastDistribution never decreases.
type RentPool struct {
	AssetID          int64      `json:"asset_id"`
	AccruedAmount    int64      `json:"accrued_amount"`
	LastDistribution *time.Time `json:"last_distribution,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DepositRentRequest is the DTO for paying rental income into a pool.
type DepositRentRequest struct {
	AssetID int64 `json:"asset_id"`
	Amount  int64 `json:"amount"`
}

// RentPayout is one holder's share of a distribution run.
type RentPayout struct {
	HolderID uuid.UUID `json:"holder_id"`
	Amount   int64     `json:"amount"`
}

// DistributionResult summarizes a completed distribution run.
type DistributionResult struct {
	AssetID       int64        `json:"asset_id"`
	Distributed   int64        `json:"distributed"`
	Remainder     int64        `json:"remainder"`
	Payouts       []RentPayout `json:"payouts"`
	DistributedAt time.Time    `json:"distributed_at"`
}
