package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/google/uuid"
)

type consumerRepoStub struct {
	store.Repository

	transfer *domain.InFlightTransfer
	asset    *domain.Asset

	markDeliveredCalls int
	failCalls          int
	inboundCalls       int
	inboundMinted      bool
}

func (s *consumerRepoStub) GetTransferByID(ctx context.Context, transferID uuid.UUID) (*domain.InFlightTransfer, error) {
	if s.transfer == nil {
		return nil, store.ErrTransferNotFound
	}
	copied := *s.transfer
	return &copied, nil
}

func (s *consumerRepoStub) MarkTransferDelivered(ctx context.Context, transferID uuid.UUID) (bool, error) {
	s.markDeliveredCalls++
	if s.transfer == nil {
		return false, store.ErrTransferNotFound
	}
	if s.transfer.Status.IsTerminal() {
		return false, nil
	}
	s.transfer.Status = domain.TransferDelivered
	return true, nil
}

func (s *consumerRepoStub) FailTransferAtomic(ctx context.Context, transferID uuid.UUID) (bool, error) {
	s.failCalls++
	if s.transfer == nil {
		return false, store.ErrTransferNotFound
	}
	if s.transfer.Status.IsTerminal() {
		return false, nil
	}
	s.transfer.Status = domain.TransferFailed
	return true, nil
}

func (s *consumerRepoStub) GetAssetByID(ctx context.Context, assetID int64) (*domain.Asset, error) {
	if s.asset == nil {
		return nil, store.ErrAssetNotFound
	}
	copied := *s.asset
	return &copied, nil
}

func (s *consumerRepoStub) RecordInboundMintAtomic(ctx context.Context, transferID uuid.UUID, recipientID uuid.UUID, assetID, amount int64) (bool, error) {
	s.inboundCalls++
	if s.inboundMinted {
		return false, nil
	}
	s.inboundMinted = true
	return true, nil
}

func newBridgeConsumerFixture(repo *consumerRepoStub) (*BridgeConsumer, *publisherStub) {
	producer := &publisherStub{}
	svc := newTestService(repo, &oracleStub{}, producer, nil)
	return svc.BridgeConsumer(), producer
}

func lockedTransfer() *domain.InFlightTransfer {
	return &domain.InFlightTransfer{
		ID:               uuid.New(),
		SenderID:         uuid.New(),
		AssetID:          1,
		Amount:           50,
		DestinationChain: "meridian",
		Status:           domain.TransferLocked,
	}
}

func TestDeliveryCallbackFinalizesTransfer(t *testing.T) {
	repo := &consumerRepoStub{transfer: lockedTransfer()}
	consumer, producer := newBridgeConsumerFixture(repo)

	body, _ := json.Marshal(domain.DeliveryCallbackEvent{TransferID: repo.transfer.ID, Outcome: "delivered"})
	if ack := consumer.HandleDeliveryCallback(body); !ack {
		t.Fatal("expected ack")
	}
	if repo.transfer.Status != domain.TransferDelivered {
		t.Fatalf("transfer status = %s, want delivered", repo.transfer.Status)
	}
	if got := producer.byRoutingKey("bridge.transfer.delivered"); len(got) != 1 {
		t.Fatalf("expected one delivered event, got %d", len(got))
	}
}

func TestFailedCallbackRemintsToSender(t *testing.T) {
	repo := &consumerRepoStub{transfer: lockedTransfer()}
	consumer, producer := newBridgeConsumerFixture(repo)

	body, _ := json.Marshal(domain.DeliveryCallbackEvent{TransferID: repo.transfer.ID, Outcome: "failed", Reason: "destination refused"})
	if ack := consumer.HandleDeliveryCallback(body); !ack {
		t.Fatal("expected ack")
	}
	if repo.transfer.Status != domain.TransferFailed {
		t.Fatalf("transfer status = %s, want failed", repo.transfer.Status)
	}
	mints := producer.byRoutingKey("ledger.balance.changed")
	if len(mints) != 1 {
		t.Fatalf("expected one compensation mint event, got %d", len(mints))
	}
	event := mints[0].body.(domain.BalanceChangedEvent)
	if event.Operation != "mint" || *event.To != repo.transfer.SenderID || event.Amount != 50 {
		t.Fatalf("unexpected compensation event %+v", event)
	}
}

func TestRedeliveredCallbackIsIdempotent(t *testing.T) {
	repo := &consumerRepoStub{transfer: lockedTransfer()}
	consumer, producer := newBridgeConsumerFixture(repo)

	body, _ := json.Marshal(domain.DeliveryCallbackEvent{TransferID: repo.transfer.ID, Outcome: "failed"})
	if ack := consumer.HandleDeliveryCallback(body); !ack {
		t.Fatal("expected ack on first delivery")
	}
	if ack := consumer.HandleDeliveryCallback(body); !ack {
		t.Fatal("expected ack on redelivery")
	}
	if repo.failCalls != 2 {
		t.Fatalf("fail calls = %d, want 2", repo.failCalls)
	}
	// Only the first delivery compensates.
	if mints := producer.byRoutingKey("ledger.balance.changed"); len(mints) != 1 {
		t.Fatalf("expected one compensation mint, got %d", len(mints))
	}
}

func TestCallbackForUnknownTransferIsDropped(t *testing.T) {
	repo := &consumerRepoStub{}
	consumer, _ := newBridgeConsumerFixture(repo)

	body, _ := json.Marshal(domain.DeliveryCallbackEvent{TransferID: uuid.New(), Outcome: "delivered"})
	if ack := consumer.HandleDeliveryCallback(body); !ack {
		t.Fatal("unknown transfers must be acked, not requeued")
	}
}

func TestMalformedCallbackIsDropped(t *testing.T) {
	repo := &consumerRepoStub{transfer: lockedTransfer()}
	consumer, _ := newBridgeConsumerFixture(repo)

	if ack := consumer.HandleDeliveryCallback([]byte("{not json")); !ack {
		t.Fatal("malformed payloads must be acked, not requeued")
	}
	if repo.markDeliveredCalls != 0 || repo.failCalls != 0 {
		t.Fatal("malformed payloads must not touch the repository")
	}
}

func TestInboundTransferMintsOnceAndConfirms(t *testing.T) {
	repo := &consumerRepoStub{asset: verifiedAsset(1)}
	consumer, producer := newBridgeConsumerFixture(repo)

	msg := domain.OutboundTransferMessage{
		TransferID:          uuid.New(),
		SenderID:            uuid.New(),
		AssetID:             1,
		Amount:              50,
		SourceSelector:      2000,
		DestinationSelector: 1000,
	}
	body, _ := json.Marshal(msg)

	if ack := consumer.HandleInboundTransfer(body); !ack {
		t.Fatal("expected ack on first delivery")
	}
	if ack := consumer.HandleInboundTransfer(body); !ack {
		t.Fatal("expected ack on redelivery")
	}
	if repo.inboundCalls != 2 {
		t.Fatalf("inbound mint attempts = %d, want 2", repo.inboundCalls)
	}
	// One mint event, but a confirmation per delivery: the source side
	// deduplicates callbacks.
	if mints := producer.byRoutingKey("ledger.balance.changed"); len(mints) != 1 {
		t.Fatalf("expected one mint event, got %d", len(mints))
	}
	callbacks := producer.byRoutingKey("bridge.delivery.2000")
	if len(callbacks) != 2 {
		t.Fatalf("expected two confirmations, got %d", len(callbacks))
	}
	callback := callbacks[0].body.(domain.DeliveryCallbackEvent)
	if callback.TransferID != msg.TransferID || callback.Outcome != "delivered" {
		t.Fatalf("unexpected callback %+v", callback)
	}
}

func TestInboundTransferRefusesUnverifiedAsset(t *testing.T) {
	states := []domain.VerificationState{domain.AssetPending, domain.AssetPaused, domain.AssetRejected}
	for _, state := range states {
		t.Run(string(state), func(t *testing.T) {
			asset := verifiedAsset(1)
			asset.State = state
			repo := &consumerRepoStub{asset: asset}
			consumer, producer := newBridgeConsumerFixture(repo)

			msg := domain.OutboundTransferMessage{
				TransferID:          uuid.New(),
				SenderID:            uuid.New(),
				AssetID:             1,
				Amount:              50,
				SourceSelector:      2000,
				DestinationSelector: 1000,
			}
			body, _ := json.Marshal(msg)

			if ack := consumer.HandleInboundTransfer(body); !ack {
				t.Fatal("expected ack")
			}
			if repo.inboundCalls != 0 {
				t.Fatalf("mint must not be attempted while the asset is %s", state)
			}
			if mints := producer.byRoutingKey("ledger.balance.changed"); len(mints) != 0 {
				t.Fatalf("expected no mint events, got %d", len(mints))
			}
			callbacks := producer.byRoutingKey("bridge.delivery.2000")
			if len(callbacks) != 1 {
				t.Fatalf("expected one failure callback, got %d", len(callbacks))
			}
			callback := callbacks[0].body.(domain.DeliveryCallbackEvent)
			if callback.TransferID != msg.TransferID || callback.Outcome != "failed" {
				t.Fatalf("unexpected callback %+v", callback)
			}
		})
	}
}

func TestInboundTransferForUnknownAssetFails(t *testing.T) {
	repo := &consumerRepoStub{}
	consumer, producer := newBridgeConsumerFixture(repo)

	msg := domain.OutboundTransferMessage{
		TransferID:          uuid.New(),
		SenderID:            uuid.New(),
		AssetID:             99,
		Amount:              50,
		SourceSelector:      2000,
		DestinationSelector: 1000,
	}
	body, _ := json.Marshal(msg)

	if ack := consumer.HandleInboundTransfer(body); !ack {
		t.Fatal("expected ack")
	}
	if repo.inboundCalls != 0 {
		t.Fatal("mint must not be attempted for an unknown asset")
	}
	callbacks := producer.byRoutingKey("bridge.delivery.2000")
	if len(callbacks) != 1 {
		t.Fatalf("expected one failure callback, got %d", len(callbacks))
	}
	callback := callbacks[0].body.(domain.DeliveryCallbackEvent)
	if callback.Outcome != "failed" {
		t.Fatalf("callback outcome = %q, want failed", callback.Outcome)
	}
}
