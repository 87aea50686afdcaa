package sample_test

import (
	"testing"

	"github.com/aretw0/bartender/pkg/sample"
	"github.com/stretchr/testify/assert"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestSample_Cardinality(t *testing.T) {
	src := sample.NewSource(1)
	for n := 0; n <= 8; n++ {
		for k := 0; k <= 10; k++ {
			got := sample.Sample(src, ints(n), k)
			want := min(k, n)
			assert.Len(t, got, want, "n=%d k=%d", n, k)

			seen := map[int]bool{}
			for _, v := range got {
				assert.False(t, seen[v], "duplicate %d for n=%d k=%d", v, n, k)
				assert.True(t, v >= 0 && v < n)
				seen[v] = true
			}
		}
	}
}

func TestSample_DoesNotMutateInput(t *testing.T) {
	items := ints(10)
	_ = sample.Sample(sample.NewSource(7), items, 5)
	assert.Equal(t, ints(10), items)
}

func TestSample_Deterministic(t *testing.T) {
	a := sample.Sample(sample.NewSource(42), ints(50), 5)
	b := sample.Sample(sample.NewSource(42), ints(50), 5)
	assert.Equal(t, a, b)
}

func TestSample_Uniform(t *testing.T) {
	src := sample.NewSource(3)
	const n, k, rounds = 6, 2, 30000
	counts := make([]int, n)
	for i := 0; i < rounds; i++ {
		for _, v := range sample.Sample(src, ints(n), k) {
			counts[v]++
		}
	}
	expected := float64(rounds*k) / n
	for v, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.05, "item %d drawn %d times", v, c)
	}
}
