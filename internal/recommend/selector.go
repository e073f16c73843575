// Package recommend draws track recommendations for a mood and decides when
// a fresh draw is due.
package recommend

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/moodtunes/internal/mood"
)

// Default recommendation sizes per taxonomy.
const (
	DefaultFeatureSize = 5
	DefaultTagSize     = 3
)

// DefaultSize returns the recommendation size for a taxonomy.
func DefaultSize(tax mood.Taxonomy) int {
	if tax == mood.Tags {
		return DefaultTagSize
	}
	return DefaultFeatureSize
}

// Selector draws uniform random samples from mood buckets. It is safe for
// concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a selector. A nil source seeds from the runtime's
// random generator; pass a fixed source for reproducible draws.
func NewSelector(src rand.Source) *Selector {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Selector{rng: rand.New(src)}
}

// Recommend returns min(k, bucket size) distinct entries from the bucket
// for m, each subset equally likely. An empty or unknown bucket yields an
// empty slice.
func (s *Selector) Recommend(m mood.Mood, idx *mood.Index, k int) []mood.Entry {
	// Bucket returns a copy, so shuffling it leaves the index untouched.
	pool := idx.Bucket(m)
	n := min(max(k, 0), len(pool))

	s.mu.Lock()
	defer s.mu.Unlock()

	// Partial Fisher-Yates: the first n positions become the sample.
	for i := range n {
		j := i + s.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:n:n]
}

// Set is one drawn recommendation.
type Set struct {
	ID      uuid.UUID
	Mood    mood.Mood
	Tracks  []mood.Entry
	DrawnAt time.Time
}

// Displays returns the display strings of the set's tracks.
func (s Set) Displays() []string {
	out := make([]string, len(s.Tracks))
	for i, e := range s.Tracks {
		out[i] = e.String()
	}
	return out
}

// Empty reports whether the set has no tracks.
func (s Set) Empty() bool {
	return len(s.Tracks) == 0
}

// Draw samples a new set for m at the given time.
func (s *Selector) Draw(m mood.Mood, idx *mood.Index, k int, at time.Time) Set {
	return Set{
		ID:      uuid.New(),
		Mood:    m,
		Tracks:  s.Recommend(m, idx, k),
		DrawnAt: at,
	}
}
