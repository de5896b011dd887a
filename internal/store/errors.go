/**
 * @description
 * Sentinel errors shared by the repository implementation and the application
 * service. Every public operation of the settlement engine resolves to either
 * a success value or one of these named failures; the API layer maps them to
 * HTTP statuses. Callers wrap them with the offending entity id via fmt.Errorf
 * and test with errors.Is.
 */

package store

import "errors"

var (
	// Argument and state-machine failures.
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("operation not legal in current state")

	// Authorization failures.
	ErrUnauthorized = errors.New("caller lacks required role or approval")

	// Value-conservation failures.
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInsufficientCollateral = errors.New("insufficient collateral")
	ErrOverRepayment          = errors.New("repayment exceeds outstanding debt")

	// Oracle and asset-eligibility failures.
	ErrStaleData       = errors.New("oracle data too old to act on")
	ErrAssetPaused     = errors.New("asset is paused")
	ErrAssetUnverified = errors.New("asset is not verified")

	// Lending and distribution outcomes.
	ErrPositionHealthy     = errors.New("position is healthy")
	ErrNothingToDistribute = errors.New("nothing to distribute")

	// Bridge failures.
	ErrUnknownDestination = errors.New("no route registered for destination chain")

	// Not-found sentinels.
	ErrAssetNotFound    = errors.New("asset not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrRentPoolNotFound = errors.New("rent pool not found")
	ErrTransferNotFound = errors.New("transfer not found")
	ErrAccountNotFound  = errors.New("account not found")
)
