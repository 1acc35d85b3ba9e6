package tpcrand

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chiSquare(counts []int, samples int) float64 {
	expected := float64(samples) / float64(len(counts))
	var chi float64
	for _, c := range counts {
		d := float64(c) - expected
		chi += d * d / expected
	}
	return chi
}

func TestLastName(t *testing.T) {
	assert.Equal(t, "BARBARBAR", LastName(0))
	assert.Equal(t, "EINGEINGEING", LastName(999))
	assert.Equal(t, "PRICALLYOUGHT", LastName(371))

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		seen[LastName(i)] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestUniformIntRange(t *testing.T) {
	g := New(1)
	for i := 0; i < 10000; i++ {
		v := g.UniformInt(5, 15)
		require.GreaterOrEqual(t, v, 5)
		require.LessOrEqual(t, v, 15)
	}
	assert.Equal(t, 7, g.UniformInt(7, 7))
}

// Modulo sampling is only approximately uniform; the chi-square bound is loose
// enough to accept that bias while catching a broken reduction.
func TestUniformIntChiSquare(t *testing.T) {
	g := New(42)
	const samples = 100000
	counts := make([]int, 100)
	for i := 0; i < samples; i++ {
		counts[g.UniformInt(0, 99)]++
	}
	// df=99, p=0.001 critical value is about 148.
	assert.Less(t, chiSquare(counts, samples), 160.0)
}

func TestUniformFloat(t *testing.T) {
	g := New(3)
	var sum float64
	const samples = 20000
	for i := 0; i < samples; i++ {
		v := g.UniformFloat(1.0, 5000.0)
		require.GreaterOrEqual(t, v, 1.0)
		require.LessOrEqual(t, v, 5000.0)
		sum += v
	}
	assert.InDelta(t, 2500.5, sum/samples, 50.0)
}

func TestNonUniformIntBoundsAndSkew(t *testing.T) {
	g := New(7)
	u := New(7)
	const samples = 200000
	nurand := make([]int, 3000)
	uniform := make([]int, 3000)
	for i := 0; i < samples; i++ {
		v := g.NonUniformInt(MaskCustomerID, 1, 3000)
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 3000)
		nurand[v-1]++
		uniform[u.UniformInt(1, 3000)-1]++
	}

	covered := 0
	for _, c := range nurand {
		if c > 0 {
			covered++
		}
	}
	// ids whose OR-preimage is a single pair are rare; most must still appear
	assert.Greater(t, covered, 2700)
	assert.Greater(t, chiSquare(nurand, samples), 2*chiSquare(uniform, samples))
}

func TestNonUniformIntReproducible(t *testing.T) {
	a := NewWithConstants(11, Constants{CLast: 7, CID: 9, CItemID: 13})
	b := NewWithConstants(11, Constants{CLast: 7, CID: 9, CItemID: 13})
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.NonUniformInt(MaskItemID, 1, 100000), b.NonUniformInt(MaskItemID, 1, 100000))
	}
}

func TestConstantsFor(t *testing.T) {
	c := Constants{CLast: 1, CID: 2, CItemID: 3}
	assert.Equal(t, 1, c.For(MaskLastName))
	assert.Equal(t, 2, c.For(MaskCustomerID))
	assert.Equal(t, 3, c.For(MaskItemID))
}

func TestNewRunConstants(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		c := NewRunConstants(DefaultConstants, r)
		delta := c.CLast - DefaultConstants.CLast
		if delta < 0 {
			delta = -delta
		}
		assert.True(t, delta >= 65 && delta <= 119)
		assert.NotEqual(t, 96, delta)
		assert.NotEqual(t, 112, delta)
		assert.Less(t, c.CID, 1024)
		assert.Less(t, c.CItemID, 8192)
	}
}

func TestStrings(t *testing.T) {
	g := New(9)

	s := g.AlnumString(8, 16)
	assert.GreaterOrEqual(t, len(s), 8)
	assert.LessOrEqual(t, len(s), 16)
	for _, ch := range s {
		assert.Contains(t, alnumChars, string(ch))
	}

	phone := g.NumericString(16)
	assert.Len(t, phone, 16)
	assert.Empty(t, strings.Trim(phone, numericChars))

	zip := g.ZipCode()
	assert.Len(t, zip, 9)
	assert.True(t, strings.HasSuffix(zip, "11111"))
}

func TestItemData(t *testing.T) {
	g := New(21)
	const samples = 20000
	marked := 0
	for i := 0; i < samples; i++ {
		d := g.ItemData()
		require.GreaterOrEqual(t, len(d), 26)
		require.LessOrEqual(t, len(d), 50)
		if strings.Contains(d, OriginalMarker) {
			marked++
		}
	}
	assert.InDelta(t, 0.10, float64(marked)/samples, 0.02)
}

func TestPermutation(t *testing.T) {
	g := New(2)
	perm := g.Permutation(1, 3000)
	require.Len(t, perm, 3000)
	seen := make(map[int]bool, 3000)
	for _, v := range perm {
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 3000)
		seen[v] = true
	}
	assert.Len(t, seen, 3000)
}
