package user

import "testing"

func TestLevelForXP(t *testing.T) {
	cases := map[int]int{0: 1, 99: 1, 100: 2, 250: 3, 1000: 11, -40: 1}
	for xp, want := range cases {
		if got := LevelForXP(xp); got != want {
			t.Fatalf("LevelForXP(%d): want=%d got=%d", xp, want, got)
		}
	}
}

func TestClampXPNeverNegative(t *testing.T) {
	if got := ClampXP(30, -50); got != 0 {
		t.Fatalf("ClampXP(30,-50): want=0 got=%d", got)
	}
	if got := ClampXP(30, 75); got != 105 {
		t.Fatalf("ClampXP(30,75): want=105 got=%d", got)
	}
}

func TestClampPercent(t *testing.T) {
	for in, want := range map[int]int{-5: 0, 0: 0, 55: 55, 100: 100, 140: 100} {
		if got := ClampPercent(in); got != want {
			t.Fatalf("ClampPercent(%d): want=%d got=%d", in, want, got)
		}
	}
}
