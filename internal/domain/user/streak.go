package user

import "time"

const dayLayout = "2006-01-02"

// DayKey is the UTC calendar day used for streak bookkeeping.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

type Streak struct {
	Current int
	Longest int
	LastDay string
}

// Advance records qualifying activity on today. Same day leaves the streak
// untouched, the day after LastDay extends it, anything else restarts at 1.
func (s Streak) Advance(today time.Time) (Streak, bool) {
	key := DayKey(today)
	if s.LastDay == key {
		return s, false
	}
	next := s
	next.LastDay = key
	if last, err := time.Parse(dayLayout, s.LastDay); err == nil && DayKey(last.AddDate(0, 0, 1)) == key {
		next.Current = s.Current + 1
	} else {
		next.Current = 1
	}
	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	return next, true
}

func (u *User) LoginStreakState() Streak {
	return Streak{Current: u.LoginStreak, Longest: u.LongestLoginStreak, LastDay: u.LastLoginOn}
}

func (u *User) ActivityStreakState() Streak {
	return Streak{Current: u.ActivityStreak, Longest: u.LongestActivityStreak, LastDay: u.LastActiveOn}
}
