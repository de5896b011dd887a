package app

import (
	"context"
	"errors"
	"testing"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/google/uuid"
)

type ledgerRepoStub struct {
	store.Repository

	approved bool

	transferCalled bool
	batchCalled    bool
	batchAssetIDs  []int64
	batchAmounts   []int64
}

func (s *ledgerRepoStub) IsApprovedOperator(ctx context.Context, ownerID, operatorID uuid.UUID) (bool, error) {
	return s.approved, nil
}

func (s *ledgerRepoStub) TransferAtomic(ctx context.Context, assetID int64, from, to uuid.UUID, amount int64) error {
	s.transferCalled = true
	return nil
}

func (s *ledgerRepoStub) BatchTransferAtomic(ctx context.Context, from, to uuid.UUID, assetIDs []int64, amounts []int64) error {
	s.batchCalled = true
	s.batchAssetIDs = assetIDs
	s.batchAmounts = amounts
	return nil
}

func TestTransferByOwnerSucceeds(t *testing.T) {
	repo := &ledgerRepoStub{}
	producer := &publisherStub{}
	svc := newTestService(repo, &oracleStub{}, producer, nil)

	owner := uuid.New()
	err := svc.Transfer(context.Background(), owner, domain.TransferRequest{
		From: owner, To: uuid.New(), AssetID: 1, Amount: 25,
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !repo.transferCalled {
		t.Fatal("expected TransferAtomic to be called")
	}
	if got := producer.byRoutingKey("ledger.balance.changed"); len(got) != 1 {
		t.Fatalf("expected one balance event, got %d", len(got))
	}
}

func TestTransferByStrangerIsUnauthorized(t *testing.T) {
	repo := &ledgerRepoStub{approved: false}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)

	err := svc.Transfer(context.Background(), uuid.New(), domain.TransferRequest{
		From: uuid.New(), To: uuid.New(), AssetID: 1, Amount: 25,
	})
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if repo.transferCalled {
		t.Fatal("unauthorized transfer must not reach the repository")
	}
}

func TestTransferByApprovedOperatorSucceeds(t *testing.T) {
	repo := &ledgerRepoStub{approved: true}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)

	err := svc.Transfer(context.Background(), uuid.New(), domain.TransferRequest{
		From: uuid.New(), To: uuid.New(), AssetID: 1, Amount: 25,
	})
	if err != nil {
		t.Fatalf("Transfer by operator: %v", err)
	}
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	repo := &ledgerRepoStub{}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)

	owner := uuid.New()
	err := svc.Transfer(context.Background(), owner, domain.TransferRequest{
		From: owner, To: uuid.New(), AssetID: 1, Amount: 0,
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBatchTransferValidatesParallelSlices(t *testing.T) {
	repo := &ledgerRepoStub{}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)
	owner := uuid.New()

	cases := []struct {
		name     string
		assetIDs []int64
		amounts  []int64
	}{
		{"empty", nil, nil},
		{"length mismatch", []int64{1, 2}, []int64{10}},
		{"zero amount", []int64{1, 2}, []int64{10, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.BatchTransfer(context.Background(), owner, domain.BatchTransferRequest{
				From: owner, To: uuid.New(), AssetIDs: tc.assetIDs, Amounts: tc.amounts,
			})
			if !errors.Is(err, store.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if repo.batchCalled {
				t.Fatal("invalid batch must not reach the repository")
			}
		})
	}
}

func TestBatchTransferPublishesPerAsset(t *testing.T) {
	repo := &ledgerRepoStub{}
	producer := &publisherStub{}
	svc := newTestService(repo, &oracleStub{}, producer, nil)

	owner := uuid.New()
	err := svc.BatchTransfer(context.Background(), owner, domain.BatchTransferRequest{
		From: owner, To: uuid.New(), AssetIDs: []int64{3, 1, 2}, Amounts: []int64{10, 20, 30},
	})
	if err != nil {
		t.Fatalf("BatchTransfer: %v", err)
	}
	if got := producer.byRoutingKey("ledger.balance.changed"); len(got) != 3 {
		t.Fatalf("expected three balance events, got %d", len(got))
	}
}

func TestSetApprovalRejectsSelfApproval(t *testing.T) {
	repo := &ledgerRepoStub{}
	svc := newTestService(repo, &oracleStub{}, &publisherStub{}, nil)

	owner := uuid.New()
	err := svc.SetApproval(context.Background(), owner, domain.SetApprovalRequest{OperatorID: owner, Approved: true})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
