package tpcrand

import (
	"math/rand"
	"strings"
)

const (
	alnumChars   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	numericChars = "0123456789"

	// OriginalMarker tags the synthetic "original" item and stock variants.
	OriginalMarker = "ORIGINAL"
)

// NURand masks used by the benchmark.
const (
	MaskLastName   = 255
	MaskCustomerID = 1023
	MaskItemID     = 8191
)

var lastNameSyllables = [10]string{
	"BAR", "OUGHT", "ABLE", "PRI", "PRES", "ESE", "ANTI", "CALLY", "ATION", "EING",
}

// Generator produces the benchmark's uniform and non-uniform values.
// A Generator is not safe for concurrent use; give every terminal or loader its own.
type Generator struct {
	r      *rand.Rand
	consts Constants
}

// New creates a generator seeded with seed and using DefaultConstants.
func New(seed int64) *Generator {
	return NewWithConstants(seed, DefaultConstants)
}

// NewWithConstants creates a generator bound to a fixed set of NURand run constants.
func NewWithConstants(seed int64, consts Constants) *Generator {
	return &Generator{
		r:      rand.New(rand.NewSource(seed)),
		consts: consts,
	}
}

// UniformInt returns a value in [low, high].
// The modulo reduction of a 32-bit word is slightly biased when the range
// does not divide 2^32; that is acceptable for load generation.
func (g *Generator) UniformInt(low, high int) int {
	if high <= low {
		return low
	}
	w := uint32(high - low + 1)
	return low + int(g.r.Uint32()%w)
}

// UniformFloat returns a value in [low, high].
func (g *Generator) UniformFloat(low, high float64) float64 {
	r := g.r.Uint64()
	return low + float64(r)*(high-low)/float64(^uint64(0))
}

// NonUniformInt is NURand(A, x, y) with the run constant selected by mask.
func (g *Generator) NonUniformInt(mask, low, high int) int {
	c := g.consts.For(mask)
	r := (g.UniformInt(0, mask) | g.UniformInt(low, high)) + c
	return r%(high-low+1) + low
}

// Percent reports true with probability pct/100.
func (g *Generator) Percent(pct int) bool {
	return g.UniformInt(1, 100) <= pct
}

// Shuffle permutes n elements through swap.
func (g *Generator) Shuffle(n int, swap func(i, j int)) {
	g.r.Shuffle(n, swap)
}

// ExpFloat returns an exponentially distributed value with mean 1.
func (g *Generator) ExpFloat() float64 {
	return g.r.ExpFloat64()
}

// Permutation returns a random ordering of [low, high].
func (g *Generator) Permutation(low, high int) []int {
	perm := g.r.Perm(high - low + 1)
	for i := range perm {
		perm[i] += low
	}
	return perm
}

func (g *Generator) alnumBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = alnumChars[g.r.Uint32()%uint32(len(alnumChars))]
	}
	return b
}

// AlnumString returns a random [a-zA-Z0-9] string with length in [lenLow, lenHigh].
func (g *Generator) AlnumString(lenLow, lenHigh int) string {
	return string(g.alnumBytes(g.UniformInt(lenLow, lenHigh)))
}

// NumericString returns n random digits.
func (g *Generator) NumericString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = numericChars[g.r.Uint32()%uint32(len(numericChars))]
	}
	return string(b)
}

// ZipCode returns four random digits followed by "11111".
func (g *Generator) ZipCode() string {
	return g.NumericString(4) + "11111"
}

// ItemData returns I_DATA / S_DATA content: 26..50 characters, 10% of which
// carry OriginalMarker at a random offset.
func (g *Generator) ItemData() string {
	n := g.UniformInt(26, 50)
	b := g.alnumBytes(n)
	if g.UniformInt(0, 9) == 0 {
		pos := g.UniformInt(0, n-len(OriginalMarker))
		copy(b[pos:], OriginalMarker)
	}
	return string(b)
}

// LastName builds C_LAST from the three decimal digits of index.
func LastName(index int) string {
	var sb strings.Builder
	sb.WriteString(lastNameSyllables[(index/100)%10])
	sb.WriteString(lastNameSyllables[(index/10)%10])
	sb.WriteString(lastNameSyllables[index%10])
	return sb.String()
}

// RandomLastName picks a surname with NURand(255, 0, 999).
func (g *Generator) RandomLastName() string {
	return LastName(g.NonUniformInt(MaskLastName, 0, 999))
}
