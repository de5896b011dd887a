/**
 * @description
 * Cross-chain bridge operations on the source side: privileged route
 * configuration and the lock-and-send flow that burns shares locally and
 * hands an outbound transfer message to the transport channel. Destination
 * callbacks and inbound mints are handled in consumer.go.
 *
 * @notes
 * - The lock commits before the message is published. If publishing fails the
 *   transfer stays Locked and is replayable; funds are never both local and
 *   in flight.
 */

package app

import (
	"context"
	"fmt"
	"log"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/google/uuid"
)

// RegisterRoute creates or updates a destination chain route. Requires the
// bridge configurator role.
func (s *Service) RegisterRoute(ctx context.Context, callerID uuid.UUID, req domain.RegisterRouteRequest) (*domain.BridgeRoute, error) {
	if !s.roles.CanConfigureBridge(callerID) {
		return nil, fmt.Errorf("account %s lacks the bridge configurator role: %w", callerID, store.ErrUnauthorized)
	}
	if req.ChainName == "" || req.DestinationAddress == "" {
		return nil, fmt.Errorf("chain name and destination address are required: %w", store.ErrInvalidInput)
	}
	if req.ChainSelector == 0 {
		return nil, fmt.Errorf("chain selector must be non-zero: %w", store.ErrInvalidInput)
	}
	if req.ChainSelector == s.chainSelector {
		return nil, fmt.Errorf("cannot register a route to the local chain: %w", store.ErrInvalidInput)
	}
	route := &domain.BridgeRoute{
		ChainName:          req.ChainName,
		ChainSelector:      req.ChainSelector,
		DestinationAddress: req.DestinationAddress,
	}
	if err := s.repo.UpsertRoute(ctx, route); err != nil {
		return nil, err
	}
	return s.repo.GetRouteByChainName(ctx, req.ChainName)
}

// ListRoutes returns all registered destination routes.
func (s *Service) ListRoutes(ctx context.Context) ([]domain.BridgeRoute, error) {
	return s.repo.ListRoutes(ctx)
}

// LockAndSend burns the sender's shares, records a Locked transfer, and
// publishes the outbound message for destination-side minting.
func (s *Service) LockAndSend(ctx context.Context, senderID uuid.UUID, req domain.LockAndSendRequest) (*domain.InFlightTransfer, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive: %w", store.ErrInvalidInput)
	}
	if err := s.consumeRateLimit(ctx, "bridge_transfer", senderID); err != nil {
		return nil, err
	}
	route, err := s.repo.GetRouteByChainName(ctx, req.DestinationChain)
	if err != nil {
		return nil, err
	}
	asset, err := s.repo.GetAssetByID(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}
	switch asset.State {
	case domain.AssetVerified:
	case domain.AssetPaused:
		return nil, fmt.Errorf("asset %d is paused: %w", req.AssetID, store.ErrAssetPaused)
	default:
		return nil, fmt.Errorf("asset %d is %s: %w", req.AssetID, asset.State, store.ErrAssetUnverified)
	}

	transfer := &domain.InFlightTransfer{
		ID:               uuid.New(),
		SenderID:         senderID,
		AssetID:          req.AssetID,
		Amount:           req.Amount,
		DestinationChain: route.ChainName,
		Status:           domain.TransferLocked,
	}
	if err := s.repo.LockAndSendAtomic(ctx, transfer); err != nil {
		return nil, err
	}
	s.publishBalanceChanged(ctx, req.AssetID, "burn", &senderID, nil, req.Amount)

	message := domain.OutboundTransferMessage{
		TransferID:          transfer.ID,
		SenderID:            senderID,
		AssetID:             req.AssetID,
		Amount:              req.Amount,
		SourceSelector:      s.chainSelector,
		DestinationSelector: route.ChainSelector,
	}
	routingKey := fmt.Sprintf("bridge.outbound.%d", route.ChainSelector)
	if s.eventProducer == nil {
		log.Printf("level=error component=bridge msg=\"no transport configured; transfer stays locked\" transfer_id=%s", transfer.ID)
		return transfer, nil
	}
	if err := s.eventProducer.Publish(ctx, BridgeExchange, routingKey, message); err != nil {
		// The burn has committed; the transfer record stays Locked and the
		// message can be replayed from it.
		log.Printf("level=error component=bridge msg=\"outbound publish failed; transfer stays locked\" transfer_id=%s err=%v", transfer.ID, err)
	}
	return transfer, nil
}

// GetTransfer returns an in-flight or terminal transfer by id.
func (s *Service) GetTransfer(ctx context.Context, transferID uuid.UUID) (*domain.InFlightTransfer, error) {
	return s.repo.GetTransferByID(ctx, transferID)
}
