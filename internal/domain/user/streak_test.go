package user

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.Add(15 * time.Hour)
}

func TestStreakAdvance(t *testing.T) {
	cases := []struct {
		name    string
		in      Streak
		today   string
		want    Streak
		changed bool
	}{
		{"first ever", Streak{}, "2026-03-10", Streak{Current: 1, Longest: 1, LastDay: "2026-03-10"}, true},
		{"same day", Streak{Current: 3, Longest: 5, LastDay: "2026-03-10"}, "2026-03-10", Streak{Current: 3, Longest: 5, LastDay: "2026-03-10"}, false},
		{"next day", Streak{Current: 3, Longest: 3, LastDay: "2026-03-09"}, "2026-03-10", Streak{Current: 4, Longest: 4, LastDay: "2026-03-10"}, true},
		{"gap resets", Streak{Current: 9, Longest: 9, LastDay: "2026-03-01"}, "2026-03-10", Streak{Current: 1, Longest: 9, LastDay: "2026-03-10"}, true},
		{"month boundary", Streak{Current: 2, Longest: 6, LastDay: "2026-02-28"}, "2026-03-01", Streak{Current: 3, Longest: 6, LastDay: "2026-03-01"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := tc.in.Advance(day(tc.today))
			if changed != tc.changed {
				t.Fatalf("changed: want=%v got=%v", tc.changed, changed)
			}
			if got != tc.want {
				t.Fatalf("streak: want=%+v got=%+v", tc.want, got)
			}
		})
	}
}

func TestStreakLongestNeverBelowCurrent(t *testing.T) {
	s := Streak{}
	start := day("2026-01-01")
	for i := 0; i < 40; i++ {
		if i%7 == 6 {
			continue
		}
		s, _ = s.Advance(start.AddDate(0, 0, i))
		if s.Longest < s.Current {
			t.Fatalf("day %d: longest=%d < current=%d", i, s.Longest, s.Current)
		}
	}
}
