package domain

import "testing"

func TestTierFor(t *testing.T) {
	cases := []struct {
		score int
		want  Tier
	}{
		{0, TierBronze},
		{149, TierBronze},
		{150, TierSilver},
		{299, TierSilver},
		{300, TierGold},
		{1000, TierGold},
	}
	for _, tc := range cases {
		if got := TierFor(tc.score); got != tc.want {
			t.Errorf("TierFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestMedal(t *testing.T) {
	if TierGold.Medal() != "🥇" || TierSilver.Medal() != "🥈" || TierBronze.Medal() != "🥉" {
		t.Fatalf("unexpected medal mapping")
	}
}
