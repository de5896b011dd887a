/**
 * @description
 * This file defines the property asset entity and its verification state
 * machine. Every tokenized property moves through an explicit lifecycle:
 * submitted properties start Pending, an authorized verifier moves them to
 * Verified (which triggers the initial share mint) or Rejected, and verified
 * assets can be paused and resumed when their reserve attestation degrades.
 *
 * @notes
 * - State transitions are validated through CanTransitionTo so that illegal
 *   edges (e.g. Rejected -> Verified) are unrepresentable in the rest of the
 *   codebase.
 * - DeclaredValue is denominated in the smallest currency unit and is
 *   immutable after submission. The initial share supply is derived from it.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationState is the lifecycle state of a tokenized property.
type VerificationState string

const (
	AssetPending  VerificationState = "pending"
	AssetVerified VerificationState = "verified"
	AssetRejected VerificationState = "rejected"
	AssetPaused   VerificationState = "paused"
)

// CanTransitionTo reports whether the state machine permits moving from the
// current state to the target state. Rejected is terminal; Pending can only
// resolve to Verified or Rejected; Verified and Paused toggle between each
// other.
func (s VerificationState) CanTransitionTo(target VerificationState) bool {
	switch s {
	case AssetPending:
		return target == AssetVerified || target == AssetRejected
	case AssetVerified:
		return target == AssetPaused
	case AssetPaused:
		return target == AssetVerified
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s VerificationState) IsTerminal() bool {
	return s == AssetRejected
}

// Asset represents one real-world property tokenized into fractional shares.
// It maps to the `assets` table.
type Asset struct {
	ID            int64             `json:"id"`
	OwnerID       uuid.UUID         `json:"owner_id"`
	MetadataURI   string            `json:"metadata_uri"` // opaque locator, never parsed
	DeclaredValue int64             `json:"declared_value"`
	State         VerificationState `json:"state"`
	// InitialValuationIndex is the oracle price fixed at first verification.
	// Nil until the asset has been verified.
	InitialValuationIndex *int64    `json:"initial_valuation_index,omitempty"`
	ReserveFeedID         *string   `json:"reserve_feed_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// InitialSupply derives the share supply minted when the asset is verified.
// One share per smallest declared-value unit keeps share math exact.
func (a *Asset) InitialSupply() int64 {
	return a.DeclaredValue
}

// SubmitAssetRequest is the DTO for submitting a new property.
type SubmitAssetRequest struct {
	MetadataURI   string  `json:"metadata_uri"`
	DeclaredValue int64   `json:"declared_value"`
	ReserveFeedID *string `json:"reserve_feed_id,omitempty"`
}
