package robust

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/robustfit/core/model"
)

// DefaultSeed seeds the samplers the fitters create when none is injected.
const DefaultSeed uint64 = 42

// UniformSampler draws items uniformly without replacement.
//
// A sampler created with NewUniformSampler restarts its random stream on
// every SetCollection, so repeated fits on the same data draw the same
// samples. NewUniformSamplerFromRand keeps one continuous stream instead.
type UniformSampler[T any] struct {
	pcg  *rand.PCG
	seed uint64
	rng  *rand.Rand

	data []T
	perm []int
}

// NewUniformSampler creates a sampler backed by a PCG source seeded with seed.
func NewUniformSampler[T any](seed uint64) *UniformSampler[T] {
	pcg := rand.NewPCG(seed, seed)
	return &UniformSampler[T]{pcg: pcg, seed: seed, rng: rand.New(pcg)}
}

// NewUniformSamplerFromRand creates a sampler drawing from rng.
func NewUniformSamplerFromRand[T any](rng *rand.Rand) *UniformSampler[T] {
	return &UniformSampler[T]{rng: rng}
}

func (s *UniformSampler[T]) SetCollection(data []T) {
	if s.pcg != nil {
		s.pcg.Seed(s.seed, s.seed)
	}
	s.data = data
	s.perm = identity(s.perm, len(data))
}

// Sample runs a partial Fisher–Yates shuffle over the index permutation.
// The permutation is not reset between calls; any starting order gives a
// uniform subset.
func (s *UniformSampler[T]) Sample(count int) []T {
	n := len(s.data)
	if count < 0 || count > n {
		return nil
	}
	out := make([]T, count)
	for i := 0; i < count; i++ {
		j := i + s.rng.IntN(n-i)
		s.perm[i], s.perm[j] = s.perm[j], s.perm[i]
		out[i] = s.data[s.perm[i]]
	}
	return out
}

// RankedSampler is a PROSAC-style sampler for collections sorted from most
// to least reliable. Samples are drawn from a prefix of the collection that
// starts at the sample size and grows by one item every growth draws.
// Once the prefix is larger than the sample, every sample contains the
// prefix's last item and count-1 items drawn uniformly from the rest.
type RankedSampler[T any] struct {
	growth int
	pcg    *rand.PCG
	seed   uint64
	rng    *rand.Rand

	data  []T
	perm  []int
	pool  int
	draws int
}

// NewRankedSampler creates a RankedSampler. growth below 1 is treated as 1.
func NewRankedSampler[T any](seed uint64, growth int) *RankedSampler[T] {
	pcg := rand.NewPCG(seed, seed)
	return &RankedSampler[T]{growth: max(growth, 1), pcg: pcg, seed: seed, rng: rand.New(pcg)}
}

func (s *RankedSampler[T]) SetCollection(data []T) {
	s.pcg.Seed(s.seed, s.seed)
	s.data = data
	s.perm = identity(s.perm, len(data))
	s.pool = 0
	s.draws = 0
}

func (s *RankedSampler[T]) Sample(count int) []T {
	n := len(s.data)
	if count < 0 || count > n {
		return nil
	}
	if s.pool < count {
		s.pool = count
	}
	if s.draws > 0 && s.draws%s.growth == 0 && s.pool < n {
		s.pool++
	}
	s.draws++

	out := make([]T, count)
	if count == 0 {
		return out
	}
	if s.pool == count {
		copy(out, s.data[:count])
		return out
	}

	// the pool's newest item plus count-1 from the items ranked above it
	rest := s.pool - 1
	perm := identity(s.perm[:0], rest)
	for i := 0; i < count-1; i++ {
		j := i + s.rng.IntN(rest-i)
		perm[i], perm[j] = perm[j], perm[i]
		out[i] = s.data[perm[i]]
	}
	out[count-1] = s.data[rest]
	return out
}

// PoolSize returns the size of the prefix the last sample was drawn from.
func (s *RankedSampler[T]) PoolSize() int {
	return s.pool
}

func identity(buf []int, n int) []int {
	if cap(buf) < n {
		buf = make([]int, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = i
	}
	return buf
}

var (
	_ model.Sampler[int] = (*UniformSampler[int])(nil)
	_ model.Sampler[int] = (*RankedSampler[int])(nil)
)
