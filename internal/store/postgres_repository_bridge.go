/**
 * @description
 * Bridge methods of the PostgreSQL repository. Outbound locks burn the
 * sender's balance and create the in-flight transfer record in one
 * transaction; delivery callbacks use guarded status updates so the
 * at-least-once transport can redeliver notifications without double
 * compensation. Inbound mints are deduplicated through a dedicated table
 * keyed by the source-side transfer id.
 */

package store

import (
	"context"
	"fmt"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UpsertRoute creates or updates the route for one destination chain.
func (r *PostgresRepository) UpsertRoute(ctx context.Context, route *domain.BridgeRoute) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bridge_routes (chain_name, chain_selector, destination_address, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (chain_name)
		DO UPDATE SET chain_selector = EXCLUDED.chain_selector, destination_address = EXCLUDED.destination_address, updated_at = NOW()
	`, route.ChainName, route.ChainSelector, route.DestinationAddress)
	return err
}

// GetRouteByChainName resolves a destination chain to its selector and bridge
// address, failing with ErrUnknownDestination when unregistered.
func (r *PostgresRepository) GetRouteByChainName(ctx context.Context, chainName string) (*domain.BridgeRoute, error) {
	var route domain.BridgeRoute
	err := r.db.QueryRow(ctx,
		`SELECT chain_name, chain_selector, destination_address, updated_at FROM bridge_routes WHERE chain_name = $1`,
		chainName,
	).Scan(&route.ChainName, &route.ChainSelector, &route.DestinationAddress, &route.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUnknownDestination
		}
		return nil, err
	}
	return &route, nil
}

// ListRoutes returns all registered destination routes.
func (r *PostgresRepository) ListRoutes(ctx context.Context) ([]domain.BridgeRoute, error) {
	rows, err := r.db.Query(ctx,
		`SELECT chain_name, chain_selector, destination_address, updated_at FROM bridge_routes ORDER BY chain_name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []domain.BridgeRoute
	for rows.Next() {
		var route domain.BridgeRoute
		if err := rows.Scan(&route.ChainName, &route.ChainSelector, &route.DestinationAddress, &route.UpdatedAt); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// GetTransferByID retrieves one in-flight transfer.
func (r *PostgresRepository) GetTransferByID(ctx context.Context, transferID uuid.UUID) (*domain.InFlightTransfer, error) {
	var t domain.InFlightTransfer
	query := `
		SELECT id, sender_id, asset_id, amount, destination_chain, status, created_at, updated_at
		FROM bridge_transfers WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, transferID).Scan(
		&t.ID, &t.SenderID, &t.AssetID, &t.Amount, &t.DestinationChain, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	return &t, nil
}

// LockAndSendAtomic burns the sender's balance and records the Locked
// transfer in one transaction, so a transfer id exists if and only if the
// source-side supply was actually removed.
func (r *PostgresRepository) LockAndSendAtomic(ctx context.Context, transfer *domain.InFlightTransfer) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := debitShares(ctx, tx, transfer.AssetID, transfer.SenderID, transfer.Amount); err != nil {
		return err
	}
	if err := growSupply(ctx, tx, transfer.AssetID, -transfer.Amount); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO bridge_transfers (id, sender_id, asset_id, amount, destination_chain, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`, transfer.ID, transfer.SenderID, transfer.AssetID, transfer.Amount, transfer.DestinationChain, domain.TransferLocked,
	).Scan(&transfer.CreatedAt, &transfer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}
	transfer.Status = domain.TransferLocked

	return tx.Commit(ctx)
}

// MarkTransferDelivered flips locked -> delivered. The guarded WHERE makes a
// redelivered confirmation a no-op rather than an error.
func (r *PostgresRepository) MarkTransferDelivered(ctx context.Context, transferID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE bridge_transfers SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		domain.TransferDelivered, transferID, domain.TransferLocked,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		if _, lookupErr := r.GetTransferByID(ctx, transferID); lookupErr != nil {
			return false, lookupErr
		}
		return false, nil
	}
	return true, nil
}

// FailTransferAtomic flips locked -> failed and mints the amount back to the
// sender as compensation, all in one transaction. Already-terminal transfers
// are left untouched and reported as unchanged.
func (r *PostgresRepository) FailTransferAtomic(ctx context.Context, transferID uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var t domain.InFlightTransfer
	err = tx.QueryRow(ctx, `
		SELECT id, sender_id, asset_id, amount, status
		FROM bridge_transfers WHERE id = $1 FOR UPDATE
	`, transferID).Scan(&t.ID, &t.SenderID, &t.AssetID, &t.Amount, &t.Status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, ErrTransferNotFound
		}
		return false, fmt.Errorf("failed to lock transfer: %w", err)
	}
	if t.Status.IsTerminal() {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE bridge_transfers SET status = $1, updated_at = NOW() WHERE id = $2`,
		domain.TransferFailed, transferID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark transfer failed: %w", err)
	}

	if err := creditShares(ctx, tx, t.AssetID, t.SenderID, t.Amount); err != nil {
		return false, fmt.Errorf("failed to restore sender balance: %w", err)
	}
	if err := growSupply(ctx, tx, t.AssetID, t.Amount); err != nil {
		return false, fmt.Errorf("failed to restore supply: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// RecordInboundMintAtomic mints destination-side supply for a transfer from
// another chain, exactly once per source transfer id. The dedup insert and
// the mint share one transaction, so a redelivered message can never mint
// twice.
func (r *PostgresRepository) RecordInboundMintAtomic(ctx context.Context, transferID uuid.UUID, recipientID uuid.UUID, assetID, amount int64) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO bridge_inbound_mints (transfer_id, recipient_id, asset_id, amount, minted_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (transfer_id) DO NOTHING
	`, transferID, recipientID, assetID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to record inbound mint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := creditShares(ctx, tx, assetID, recipientID, amount); err != nil {
		return false, err
	}
	if err := growSupply(ctx, tx, assetID, amount); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
