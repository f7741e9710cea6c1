package user

// XPPerLevel is the amount of XP between two consecutive levels.
const XPPerLevel = 100

// LevelForXP returns floor(xp/100)+1. Negative input is treated as zero.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// ClampXP applies a signed delta and floors the result at zero.
func ClampXP(xp, delta int) int {
	next := xp + delta
	if next < 0 {
		return 0
	}
	return next
}
