package app

import (
	"context"
	"errors"
	"testing"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/google/uuid"
)

type bridgeRepoStub struct {
	store.Repository

	asset *domain.Asset
	route *domain.BridgeRoute

	upsertCalled bool
	lockCalled   bool
	lockedXfer   *domain.InFlightTransfer
}

func (s *bridgeRepoStub) GetAssetByID(ctx context.Context, assetID int64) (*domain.Asset, error) {
	if s.asset == nil {
		return nil, store.ErrAssetNotFound
	}
	copied := *s.asset
	return &copied, nil
}

func (s *bridgeRepoStub) UpsertRoute(ctx context.Context, route *domain.BridgeRoute) error {
	s.upsertCalled = true
	s.route = route
	return nil
}

func (s *bridgeRepoStub) GetRouteByChainName(ctx context.Context, chainName string) (*domain.BridgeRoute, error) {
	if s.route == nil || s.route.ChainName != chainName {
		return nil, store.ErrUnknownDestination
	}
	copied := *s.route
	return &copied, nil
}

func (s *bridgeRepoStub) LockAndSendAtomic(ctx context.Context, transfer *domain.InFlightTransfer) error {
	s.lockCalled = true
	s.lockedXfer = transfer
	return nil
}

func TestRegisterRouteRequiresConfiguratorRole(t *testing.T) {
	repo := &bridgeRepoStub{}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)

	_, err := svc.RegisterRoute(context.Background(), uuid.New(), domain.RegisterRouteRequest{
		ChainName: "meridian", ChainSelector: 2000, DestinationAddress: "0xabc",
	})
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if repo.upsertCalled {
		t.Fatal("route must not be stored")
	}
}

func TestRegisterRouteRejectsLocalSelector(t *testing.T) {
	configurator := uuid.New()
	repo := &bridgeRepoStub{}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, NewRoles(nil, []string{configurator.String()}))

	// 1000 is the local chain selector in the test fixture.
	_, err := svc.RegisterRoute(context.Background(), configurator, domain.RegisterRouteRequest{
		ChainName: "atlas-2", ChainSelector: 1000, DestinationAddress: "0xabc",
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLockAndSendUnknownDestination(t *testing.T) {
	repo := &bridgeRepoStub{asset: verifiedAsset(1)}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)

	_, err := svc.LockAndSend(context.Background(), uuid.New(), domain.LockAndSendRequest{
		AssetID: 1, Amount: 50, DestinationChain: "nowhere",
	})
	if !errors.Is(err, store.ErrUnknownDestination) {
		t.Fatalf("expected ErrUnknownDestination, got %v", err)
	}
	if repo.lockCalled {
		t.Fatal("lock must not reach the repository")
	}
}

func TestLockAndSendRefusesPausedAsset(t *testing.T) {
	asset := verifiedAsset(1)
	asset.State = domain.AssetPaused
	repo := &bridgeRepoStub{
		asset: asset,
		route: &domain.BridgeRoute{ChainName: "meridian", ChainSelector: 2000, DestinationAddress: "0xabc"},
	}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)

	_, err := svc.LockAndSend(context.Background(), uuid.New(), domain.LockAndSendRequest{
		AssetID: 1, Amount: 50, DestinationChain: "meridian",
	})
	if !errors.Is(err, store.ErrAssetPaused) {
		t.Fatalf("expected ErrAssetPaused, got %v", err)
	}
}

func TestLockAndSendPublishesOutboundMessage(t *testing.T) {
	sender := uuid.New()
	repo := &bridgeRepoStub{
		asset: verifiedAsset(1),
		route: &domain.BridgeRoute{ChainName: "meridian", ChainSelector: 2000, DestinationAddress: "0xabc"},
	}
	producer := &publisherStub{}
	svc := newTestService(repo, &oracleStub{}, producer, nil)

	transfer, err := svc.LockAndSend(context.Background(), sender, domain.LockAndSendRequest{
		AssetID: 1, Amount: 50, DestinationChain: "meridian",
	})
	if err != nil {
		t.Fatalf("LockAndSend: %v", err)
	}
	if transfer.Status != domain.TransferLocked {
		t.Fatalf("transfer status = %s, want locked", transfer.Status)
	}
	if !repo.lockCalled {
		t.Fatal("expected LockAndSendAtomic to be called")
	}

	outbound := producer.byRoutingKey("bridge.outbound.2000")
	if len(outbound) != 1 {
		t.Fatalf("expected one outbound message, got %d", len(outbound))
	}
	if outbound[0].exchange != BridgeExchange {
		t.Fatalf("published to %q, want %q", outbound[0].exchange, BridgeExchange)
	}
	msg := outbound[0].body.(domain.OutboundTransferMessage)
	if msg.TransferID != transfer.ID || msg.SourceSelector != 1000 || msg.DestinationSelector != 2000 || msg.Amount != 50 {
		t.Fatalf("unexpected outbound message %+v", msg)
	}

	burns := producer.byRoutingKey("ledger.balance.changed")
	if len(burns) != 1 {
		t.Fatalf("expected one burn event, got %d", len(burns))
	}
}

func TestLockAndSendSurvivesPublishFailure(t *testing.T) {
	sender := uuid.New()
	repo := &bridgeRepoStub{
		asset: verifiedAsset(1),
		route: &domain.BridgeRoute{ChainName: "meridian", ChainSelector: 2000, DestinationAddress: "0xabc"},
	}
	producer := &publisherStub{err: errors.New("broker down")}
	svc := newTestService(repo, &oracleStub{}, producer, nil)

	transfer, err := svc.LockAndSend(context.Background(), sender, domain.LockAndSendRequest{
		AssetID: 1, Amount: 50, DestinationChain: "meridian",
	})
	if err != nil {
		t.Fatalf("LockAndSend: %v", err)
	}
	// The lock committed; the transfer stays replayable.
	if transfer.Status != domain.TransferLocked {
		t.Fatalf("transfer status = %s, want locked", transfer.Status)
	}
}
