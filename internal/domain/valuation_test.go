package domain

import "testing"

func TestMaxBorrowFloorsConservatively(t *testing.T) {
	// 100 shares at price 1.00000000 with a 75% ceiling -> 75.
	if got := MaxBorrow(100, 100_000_000, 7500); got != 75 {
		t.Fatalf("expected 75, got %d", got)
	}
	// 3 shares at price 0.50000000 with a 75% ceiling -> floor(1.125) = 1.
	if got := MaxBorrow(3, 50_000_000, 7500); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestMaxBorrowLargeValuesDoNotOverflow(t *testing.T) {
	// 10^12 shares at price 10^6 * 10^8: the intermediate product exceeds
	// int64 but the ceiling must still come out exact.
	got := MaxBorrow(1_000_000_000_000, 100_000_000_000_000, 5000)
	want := int64(500_000_000_000_000_000)
	if got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMaxBorrowDegenerateInputs(t *testing.T) {
	if MaxBorrow(0, 100_000_000, 7500) != 0 {
		t.Fatal("zero collateral must yield zero ceiling")
	}
	if MaxBorrow(100, 0, 7500) != 0 {
		t.Fatal("zero price must yield zero ceiling")
	}
	if MaxBorrow(100, 100_000_000, 0) != 0 {
		t.Fatal("zero ltv must yield zero ceiling")
	}
}

func TestPositionHealthy(t *testing.T) {
	// collateral=100, borrowed=80: healthy at price 1.20, unhealthy at 1.00.
	if !PositionHealthy(100, 80, 120_000_000, 7500) {
		t.Fatal("expected healthy position at high price")
	}
	if PositionHealthy(100, 80, 100_000_000, 7500) {
		t.Fatal("expected unhealthy position after price drop")
	}
}

func TestProRataShareExactDivision(t *testing.T) {
	// Holders {A: 60, B: 40}, supply 100, accrued 1000 -> 600 and 400.
	if got := ProRataShare(1000, 60, 100); got != 600 {
		t.Fatalf("expected 600, got %d", got)
	}
	if got := ProRataShare(1000, 40, 100); got != 400 {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestProRataShareFloorsRemainder(t *testing.T) {
	// Supply 3, accrued 100: each unit holder gets floor(33.3) = 33.
	if got := ProRataShare(100, 1, 3); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
}
