package domain

import "testing"

func TestVerificationStateTransitions(t *testing.T) {
	tests := []struct {
		name string
		from VerificationState
		to   VerificationState
		want bool
	}{
		{"pending to verified", AssetPending, AssetVerified, true},
		{"pending to rejected", AssetPending, AssetRejected, true},
		{"pending to paused", AssetPending, AssetPaused, false},
		{"verified to paused", AssetVerified, AssetPaused, true},
		{"verified to rejected", AssetVerified, AssetRejected, false},
		{"verified to pending", AssetVerified, AssetPending, false},
		{"paused to verified", AssetPaused, AssetVerified, true},
		{"paused to rejected", AssetPaused, AssetRejected, false},
		{"rejected to verified", AssetRejected, AssetVerified, false},
		{"rejected to pending", AssetRejected, AssetPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %t, want %t", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestVerificationStateTerminal(t *testing.T) {
	if !AssetRejected.IsTerminal() {
		t.Fatal("expected rejected to be terminal")
	}
	for _, s := range []VerificationState{AssetPending, AssetVerified, AssetPaused} {
		if s.IsTerminal() {
			t.Fatalf("did not expect %s to be terminal", s)
		}
	}
}

func TestAssetInitialSupplyDerivation(t *testing.T) {
	a := &Asset{DeclaredValue: 1_000_000}
	if got := a.InitialSupply(); got != 1_000_000 {
		t.Fatalf("expected initial supply 1000000, got %d", got)
	}
}
