/**
 * @description
 * Domain models for the cross-chain lock-and-mint bridge: destination routes,
 * in-flight transfer records, and the message payloads exchanged with the
 * transport channel.
 *
 * @notes
 * - The transport is at-least-once with no ordering guarantee, so every
 *   in-flight transfer carries its own terminal-state machine and callbacks
 *   for already-terminal transfers are treated as redeliveries, not errors.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferStatus is the lifecycle state of an outbound bridge transfer.
type TransferStatus string

const (
	TransferLocked    TransferStatus = "locked"
	TransferDelivered TransferStatus = "delivered"
	TransferFailed    TransferStatus = "failed"
)

// IsTerminal reports whether the transfer can change state again. Delivered
// and Failed are both terminal; a Locked transfer stays pending indefinitely
// until a callback arrives.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferDelivered || s == TransferFailed
}

// CanTransitionTo validates a status edge. Only Locked -> Delivered and
// Locked -> Failed are legal.
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	return s == TransferLocked && target.IsTerminal()
}

// BridgeRoute maps a destination chain name to its transport selector and the
// bridge deployment address on that chain. Maps to `bridge_routes`.
type BridgeRoute struct {
	ChainName          string    `json:"chain_name"`
	ChainSelector      uint64    `json:"chain_selector"`
	DestinationAddress string    `json:"destination_address"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// InFlightTransfer is the source-side record of a lock-and-mint transfer.
// Maps to `bridge_transfers`.
type InFlightTransfer struct {
	ID               uuid.UUID      `json:"id"`
	SenderID         uuid.UUID      `json:"sender_id"`
	AssetID          int64          `json:"asset_id"`
	Amount           int64          `json:"amount"`
	DestinationChain string         `json:"destination_chain"`
	Status           TransferStatus `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// RegisterRouteRequest is the DTO for the privileged route configuration call.
type RegisterRouteRequest struct {
	ChainName          string `json:"chain_name"`
	ChainSelector      uint64 `json:"chain_selector"`
	DestinationAddress string `json:"destination_address"`
}

// LockAndSendRequest is the DTO for initiating an outbound transfer.
type LockAndSendRequest struct {
	AssetID          int64  `json:"asset_id"`
	Amount           int64  `json:"amount"`
	DestinationChain string `json:"destination_chain"`
}

// OutboundTransferMessage is the payload handed to the transport channel for
// destination-side minting.
type OutboundTransferMessage struct {
	TransferID          uuid.UUID `json:"transfer_id"`
	SenderID            uuid.UUID `json:"sender_id"`
	AssetID             int64     `json:"asset_id"`
	Amount              int64     `json:"amount"`
	SourceSelector      uint64    `json:"source_selector"`
	DestinationSelector uint64    `json:"destination_selector"`
}

// DeliveryCallbackEvent is the inbound notification that a transfer was
// minted (or definitively not minted) on the destination chain.
type DeliveryCallbackEvent struct {
	TransferID uuid.UUID `json:"transfer_id"`
	Outcome    string    `json:"outcome"` // delivered | failed
	Reason     string    `json:"reason,omitempty"`
}
