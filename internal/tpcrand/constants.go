package tpcrand

import "math/rand"

// Constants are the NURand "C" values. A single set must be used for a whole
// run, otherwise the skew of the generated keys drifts between terminals.
type Constants struct {
	CLast   int
	CID     int
	CItemID int
}

// DefaultConstants is used by the data loader.
var DefaultConstants = Constants{CLast: 100, CID: 100, CItemID: 100}

// For returns the constant that pairs with a NURand mask.
func (c Constants) For(mask int) int {
	switch mask {
	case MaskLastName:
		return c.CLast
	case MaskItemID:
		return c.CItemID
	default:
		return c.CID
	}
}

// NewRunConstants picks constants for a measurement run. CLast keeps a
// distance in [65, 119], excluding 96 and 112, from the load-time value.
func NewRunConstants(load Constants, r *rand.Rand) Constants {
	var cLast int
	for {
		cLast = r.Intn(256)
		delta := cLast - load.CLast
		if delta < 0 {
			delta = -delta
		}
		if delta >= 65 && delta <= 119 && delta != 96 && delta != 112 {
			break
		}
	}
	return Constants{
		CLast:   cLast,
		CID:     r.Intn(1024),
		CItemID: r.Intn(8192),
	}
}
