package enclosure

import "github.com/chazu/fission/pkg/schema"

// OpeningStrategy computes the wall opening for a connector from its
// declared dimensions. Connector type tags are open strings: new
// families need at most a registry entry, and families nobody has
// registered fall back to a generic rectangular opening.
type OpeningStrategy interface {
	// Opening returns the cut width and height in mm, margins included.
	Opening(c schema.Connector) (w, h float64)
}

// rectOpening is the generic strategy: the connector body plus a
// uniform per-side margin.
type rectOpening struct {
	margin float64
}

func (r rectOpening) Opening(c schema.Connector) (w, h float64) {
	return c.Dimensions.Width + 2*r.margin, c.Dimensions.Height + 2*r.margin
}

// CutoutMargin is the default per-side opening margin in mm.
const CutoutMargin = 0.5

var defaultStrategy OpeningStrategy = rectOpening{margin: CutoutMargin}

// strategies holds per-family overrides where the generic margin is
// wrong: plugs with overmolded boots need extra room.
var strategies = map[string]OpeningStrategy{
	"USB-C":     rectOpening{margin: 1.0},
	"USB-Micro": rectOpening{margin: 1.0},
	"RJ45":      rectOpening{margin: 1.5},
	"DC-Jack":   rectOpening{margin: 1.0},
}

// RegisterOpening installs a strategy for a connector type tag,
// replacing any previous registration.
func RegisterOpening(typeTag string, s OpeningStrategy) {
	strategies[typeTag] = s
}

// openingFor picks the registered strategy for the tag, or the
// generic rectangular fallback.
func openingFor(typeTag string) OpeningStrategy {
	if s, ok := strategies[typeTag]; ok {
		return s
	}
	return defaultStrategy
}

// OpeningSize exposes the strategy result for the consistency
// checker, which must agree with synthesis about cut extents.
func OpeningSize(c schema.Connector) (w, h float64) {
	return openingFor(c.Type).Opening(c)
}
