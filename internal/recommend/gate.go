package recommend

import (
	"time"

	"github.com/justestif/moodtunes/internal/mood"
)

// DefaultCoolDown is the minimum time between draws for an unchanged mood.
const DefaultCoolDown = 30 * time.Second

// Gate holds the last drawn set and decides when a new one is due. A
// zero-value Gate uses DefaultCoolDown. Gate is not safe for concurrent use;
// the owning session serializes access.
type Gate struct {
	CoolDown time.Duration

	last Set
	has  bool
}

// Next returns the set to show for a reading. A fresh set is drawn when no
// set exists yet, the mood changed since the last draw, or at least CoolDown
// has passed since the last draw. Otherwise the cached set is returned.
// fresh reports whether draw was called.
func (g *Gate) Next(r mood.Reading, draw func() Set) (s Set, fresh bool) {
	if g.has && r.Mood == g.last.Mood && r.At.Sub(g.last.DrawnAt) < g.coolDown() {
		return g.last, false
	}

	g.last = draw()
	g.has = true
	return g.last, true
}

// Current returns the last drawn set, if any.
func (g *Gate) Current() (Set, bool) {
	return g.last, g.has
}

// Reset forgets the cached set, forcing the next reading to draw.
func (g *Gate) Reset() {
	g.last = Set{}
	g.has = false
}

func (g *Gate) coolDown() time.Duration {
	if g.CoolDown <= 0 {
		return DefaultCoolDown
	}
	return g.CoolDown
}
