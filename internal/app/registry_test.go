package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/google/uuid"
)

type registryRepoStub struct {
	store.Repository

	asset *domain.Asset

	verifyCalled     bool
	verifiedIndex    int64
	transitionCalled bool
	transitionFrom   domain.VerificationState
	transitionTo     domain.VerificationState
	createdAsset     *domain.Asset
}

func (s *registryRepoStub) GetAssetByID(ctx context.Context, assetID int64) (*domain.Asset, error) {
	if s.asset == nil {
		return nil, store.ErrAssetNotFound
	}
	copied := *s.asset
	return &copied, nil
}

func (s *registryRepoStub) CreateAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	created := *asset
	created.ID = 42
	s.createdAsset = &created
	return &created, nil
}

func (s *registryRepoStub) VerifyAssetAtomic(ctx context.Context, assetID int64, valuationIndex int64) error {
	s.verifyCalled = true
	s.verifiedIndex = valuationIndex
	s.asset.State = domain.AssetVerified
	s.asset.InitialValuationIndex = &valuationIndex
	return nil
}

func (s *registryRepoStub) TransitionAssetState(ctx context.Context, assetID int64, from, to domain.VerificationState) error {
	s.transitionCalled = true
	s.transitionFrom = from
	s.transitionTo = to
	if s.asset == nil || s.asset.State != from {
		return store.ErrInvalidState
	}
	s.asset.State = to
	return nil
}

func pendingAsset(declaredValue int64) *domain.Asset {
	return &domain.Asset{
		ID:            7,
		OwnerID:       uuid.New(),
		MetadataURI:   "ipfs://meta/7",
		DeclaredValue: declaredValue,
		State:         domain.AssetPending,
	}
}

func TestSubmitAssetRejectsNonPositiveValue(t *testing.T) {
	repo := &registryRepoStub{}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)

	_, err := svc.SubmitAsset(context.Background(), uuid.New(), domain.SubmitAssetRequest{
		MetadataURI:   "ipfs://meta/x",
		DeclaredValue: 0,
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if repo.createdAsset != nil {
		t.Fatal("asset should not have been created")
	}
}

func TestVerifyAssetRequiresVerifierRole(t *testing.T) {
	repo := &registryRepoStub{asset: pendingAsset(1000)}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)

	_, err := svc.VerifyAsset(context.Background(), uuid.New(), 7)
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if repo.verifyCalled {
		t.Fatal("verification should not have reached the repository")
	}
}

func TestVerifyAssetRefusesStaleReserveAttestation(t *testing.T) {
	verifier := uuid.New()
	repo := &registryRepoStub{asset: pendingAsset(1000)}
	staleReserve := freshReserve(2000, 95)
	staleReserve.Timestamp = testNow.Add(-2 * time.Hour)
	oracle := &oracleStub{reserve: staleReserve, price: freshQuote(100000000)}
	svc := newTestService(repo, oracle, &publisherStub{}, NewRoles([]string{verifier.String()}, nil))

	_, err := svc.VerifyAsset(context.Background(), verifier, 7)
	if !errors.Is(err, store.ErrStaleData) {
		t.Fatalf("expected ErrStaleData, got %v", err)
	}
	if repo.verifyCalled {
		t.Fatal("stale attestation must block verification")
	}
	if repo.asset.State != domain.AssetPending {
		t.Fatalf("asset state changed to %s", repo.asset.State)
	}
}

func TestVerifyAssetRefusesLowConfidenceAttestation(t *testing.T) {
	verifier := uuid.New()
	repo := &registryRepoStub{asset: pendingAsset(1000)}
	oracle := &oracleStub{reserve: freshReserve(2000, 50), price: freshQuote(100000000)}
	svc := newTestService(repo, oracle, &publisherStub{}, NewRoles([]string{verifier.String()}, nil))

	_, err := svc.VerifyAsset(context.Background(), verifier, 7)
	if !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if repo.verifyCalled {
		t.Fatal("failing attestation must block verification")
	}
}

func TestVerifyAssetMintsAtOraclePrice(t *testing.T) {
	verifier := uuid.New()
	repo := &registryRepoStub{asset: pendingAsset(1000)}
	oracle := &oracleStub{reserve: freshReserve(1500, 90), price: freshQuote(250000000)}
	producer := &publisherStub{}
	svc := newTestService(repo, oracle, producer, NewRoles([]string{verifier.String()}, nil))

	verified, err := svc.VerifyAsset(context.Background(), verifier, 7)
	if err != nil {
		t.Fatalf("VerifyAsset: %v", err)
	}
	if !repo.verifyCalled {
		t.Fatal("expected VerifyAssetAtomic to be called")
	}
	if repo.verifiedIndex != 250000000 {
		t.Fatalf("valuation index = %d, want 250000000", repo.verifiedIndex)
	}
	if verified.State != domain.AssetVerified {
		t.Fatalf("asset state = %s, want verified", verified.State)
	}
	if got := producer.byRoutingKey("registry.asset.verified"); len(got) != 1 {
		t.Fatalf("expected one verified event, got %d", len(got))
	}
	if got := producer.byRoutingKey("ledger.balance.changed"); len(got) != 1 {
		t.Fatalf("expected one mint event, got %d", len(got))
	}
}

func TestRecheckReservesAutoPausesFailingAsset(t *testing.T) {
	asset := pendingAsset(1000)
	asset.State = domain.AssetVerified
	repo := &registryRepoStub{asset: asset}
	// Attested value no longer covers the declared value.
	oracle := &oracleStub{reserve: freshReserve(400, 95)}
	producer := &publisherStub{}
	svc := newTestService(repo, oracle, producer, nil)

	rechecked, err := svc.RecheckReserves(context.Background(), 7)
	if err != nil {
		t.Fatalf("RecheckReserves: %v", err)
	}
	if rechecked.State != domain.AssetPaused {
		t.Fatalf("asset state = %s, want paused", rechecked.State)
	}
	if repo.transitionFrom != domain.AssetVerified || repo.transitionTo != domain.AssetPaused {
		t.Fatalf("unexpected transition %s -> %s", repo.transitionFrom, repo.transitionTo)
	}
	if got := producer.byRoutingKey("registry.asset.paused"); len(got) != 1 {
		t.Fatalf("expected one paused event, got %d", len(got))
	}
}

func TestRecheckReservesLeavesHealthyAssetAlone(t *testing.T) {
	asset := pendingAsset(1000)
	asset.State = domain.AssetVerified
	repo := &registryRepoStub{asset: asset}
	oracle := &oracleStub{reserve: freshReserve(1200, 95)}
	svc := newTestService(repo, oracle, &publisherStub{}, nil)

	rechecked, err := svc.RecheckReserves(context.Background(), 7)
	if err != nil {
		t.Fatalf("RecheckReserves: %v", err)
	}
	if rechecked.State != domain.AssetVerified {
		t.Fatalf("asset state = %s, want verified", rechecked.State)
	}
	if repo.transitionCalled {
		t.Fatal("no transition expected for a healthy attestation")
	}
}

func TestRejectAssetRequiresVerifierRole(t *testing.T) {
	repo := &registryRepoStub{asset: pendingAsset(1000)}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)

	if err := svc.RejectAsset(context.Background(), uuid.New(), 7); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
