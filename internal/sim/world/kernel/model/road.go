package model

type Tier uint8

const (
	TierSecondary Tier = iota
	TierMain
)

func (t Tier) String() string {
	if t == TierMain {
		return "main"
	}
	return "secondary"
}

func ParseTier(s string) Tier {
	if s == "main" {
		return TierMain
	}
	return TierSecondary
}

// RoadNode is an intersection in the road graph. Identity is (World, X, Z).
type RoadNode struct {
	World string
	X     int
	Y     int
	Z     int
	Tier  Tier
	// Keys of linked nodes, sorted.
	Links []string
}
