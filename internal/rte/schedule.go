package rte

import (
	"fmt"

	"tpcc-service/internal/tpcrand"
)

// Kind is a transaction type driven by a terminal
type Kind int

const (
	KindNewOrder Kind = iota
	KindPayment
	KindOrderStatus
	KindDelivery
	KindStockLevel
	kindCount
)

var kindNames = [kindCount]string{"New-Order", "Payment", "Order-Status", "Delivery", "Stock-Level"}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Mix holds the relative weight of each Kind
type Mix [kindCount]int

// DefaultMix is 44% New-Order, 44% Payment and 4% each for the rest
func DefaultMix() Mix {
	return Mix{44, 44, 4, 4, 4}
}

// MixFromWeights builds a Mix from New-Order, Payment, Order-Status,
// Delivery and Stock-Level weights
func MixFromWeights(weights []int) (Mix, error) {
	var m Mix
	if len(weights) != int(kindCount) {
		return m, fmt.Errorf("mix needs %d weights, got %d", kindCount, len(weights))
	}
	for i, w := range weights {
		if w < 0 {
			return m, fmt.Errorf("negative weight %d for %s", w, Kind(i))
		}
		m[i] = w
	}
	if m.Total() == 0 {
		return m, fmt.Errorf("mix weights sum to zero")
	}
	return m, nil
}

// Total is the deck size of one schedule pass
func (m Mix) Total() int {
	total := 0
	for _, w := range m {
		total += w
	}
	return total
}

// Schedule deals transaction kinds from a shuffled deck holding each kind as
// often as its weight. The deck is reshuffled after every full pass, so each
// pass reproduces the mix exactly.
type Schedule struct {
	deck []Kind
	pos  int
	rng  *tpcrand.Generator
}

// NewSchedule creates a schedule for mix. rng must not be shared.
func NewSchedule(mix Mix, rng *tpcrand.Generator) *Schedule {
	deck := make([]Kind, 0, mix.Total())
	for k, w := range mix {
		for i := 0; i < w; i++ {
			deck = append(deck, Kind(k))
		}
	}
	s := &Schedule{deck: deck, rng: rng}
	s.shuffle()
	return s
}

func (s *Schedule) shuffle() {
	s.rng.Shuffle(len(s.deck), func(i, j int) {
		s.deck[i], s.deck[j] = s.deck[j], s.deck[i]
	})
	s.pos = 0
}

// Next returns the kind of the next cycle
func (s *Schedule) Next() Kind {
	if s.pos == len(s.deck) {
		s.shuffle()
	}
	k := s.deck[s.pos]
	s.pos++
	return k
}
