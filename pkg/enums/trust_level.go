package enums

// TrustLevel is the tier derived from a trust score.
type TrustLevel string

const (
	TrustLevelBronze TrustLevel = "Bronze"
	TrustLevelSilver TrustLevel = "Silver"
	TrustLevelGold   TrustLevel = "Gold"
)

func (l TrustLevel) String() string {
	return string(l)
}

// TrustLevelFor buckets a score: Gold above 80, Silver above 50, else Bronze.
func TrustLevelFor(score float64) TrustLevel {
	switch {
	case score > 80:
		return TrustLevelGold
	case score > 50:
		return TrustLevelSilver
	default:
		return TrustLevelBronze
	}
}
