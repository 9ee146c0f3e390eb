// Package coordinate defines the STAT7 seven-dimensional coordinate model.
//
// A Coordinates value places an entity in the STAT7 address space:
// three enumerated dimensions (realm, horizon, polarity), three integer
// dimensions (lineage, luminosity, dimensionality) and one continuous
// dimension (adjacency). Values are immutable once constructed and must be
// validated before they participate in address encoding.
package coordinate

import (
	"fmt"
	"math"
)

// Dimension identifies one of the seven STAT7 dimensions.
type Dimension uint8

const (
	DimRealm Dimension = iota
	DimLineage
	DimAdjacency
	DimHorizon
	DimLuminosity
	DimPolarity
	DimDimensionality
)

// Dimensions lists all seven dimensions in canonical encoding order.
var Dimensions = [7]Dimension{
	DimRealm, DimLineage, DimAdjacency, DimHorizon,
	DimLuminosity, DimPolarity, DimDimensionality,
}

func (d Dimension) String() string {
	switch d {
	case DimRealm:
		return "realm"
	case DimLineage:
		return "lineage"
	case DimAdjacency:
		return "adjacency"
	case DimHorizon:
		return "horizon"
	case DimLuminosity:
		return "luminosity"
	case DimPolarity:
		return "polarity"
	case DimDimensionality:
		return "dimensionality"
	default:
		return fmt.Sprintf("dimension(%d)", uint8(d))
	}
}

// Realm is the qualitative domain an entity belongs to.
type Realm uint8

const (
	RealmCompanion Realm = iota
	RealmBadge
	RealmSponsorRing
	RealmAchievement
	RealmPattern
	RealmFaculty
	RealmVoid

	realmCount
)

func (r Realm) String() string {
	switch r {
	case RealmCompanion:
		return "companion"
	case RealmBadge:
		return "badge"
	case RealmSponsorRing:
		return "sponsor_ring"
	case RealmAchievement:
		return "achievement"
	case RealmPattern:
		return "pattern"
	case RealmFaculty:
		return "faculty"
	case RealmVoid:
		return "void"
	default:
		return fmt.Sprintf("realm(%d)", uint8(r))
	}
}

// Valid reports whether r is a declared realm.
func (r Realm) Valid() bool { return r < realmCount }

// ParseRealm returns the Realm named by s.
func ParseRealm(s string) (Realm, bool) {
	for r := Realm(0); r < realmCount; r++ {
		if r.String() == s {
			return r, true
		}
	}
	return 0, false
}

// Horizon is an entity's lifecycle stage, ordered from genesis to archived.
type Horizon uint8

const (
	HorizonGenesis Horizon = iota
	HorizonEmergence
	HorizonPeak
	HorizonDecay
	HorizonCrystallization
	HorizonArchived

	horizonCount
)

func (h Horizon) String() string {
	switch h {
	case HorizonGenesis:
		return "genesis"
	case HorizonEmergence:
		return "emergence"
	case HorizonPeak:
		return "peak"
	case HorizonDecay:
		return "decay"
	case HorizonCrystallization:
		return "crystallization"
	case HorizonArchived:
		return "archived"
	default:
		return fmt.Sprintf("horizon(%d)", uint8(h))
	}
}

// Valid reports whether h is a declared horizon stage.
func (h Horizon) Valid() bool { return h < horizonCount }

// ParseHorizon returns the Horizon named by s.
func ParseHorizon(s string) (Horizon, bool) {
	for h := Horizon(0); h < horizonCount; h++ {
		if h.String() == s {
			return h, true
		}
	}
	return 0, false
}

// Polarity is the qualitative resonance classification used in
// entanglement scoring.
type Polarity uint8

const (
	PolarityLogic Polarity = iota
	PolarityCreativity
	PolarityOrder
	PolarityChaos
	PolarityBalance
	PolarityAchievement
	PolarityContribution
	PolarityCommunity

	polarityCount
)

func (p Polarity) String() string {
	switch p {
	case PolarityLogic:
		return "logic"
	case PolarityCreativity:
		return "creativity"
	case PolarityOrder:
		return "order"
	case PolarityChaos:
		return "chaos"
	case PolarityBalance:
		return "balance"
	case PolarityAchievement:
		return "achievement"
	case PolarityContribution:
		return "contribution"
	case PolarityCommunity:
		return "community"
	default:
		return fmt.Sprintf("polarity(%d)", uint8(p))
	}
}

// Valid reports whether p is a declared polarity.
func (p Polarity) Valid() bool { return p < polarityCount }

// ParsePolarity returns the Polarity named by s.
func ParsePolarity(s string) (Polarity, bool) {
	for p := Polarity(0); p < polarityCount; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

// NumRealms, NumHorizons and NumPolarities expose enum cardinalities for
// index sizing and compatibility matrices.
const (
	NumRealms     = int(realmCount)
	NumHorizons   = int(horizonCount)
	NumPolarities = int(polarityCount)
)

// Coordinates is a STAT7 coordinate tuple.
//
// Construct with New or literal syntax and call Validate before use. Note
// that the zero value fails validation: Dimensionality must be at least 1.
type Coordinates struct {
	Realm          Realm    `json:"realm"`
	Lineage        int      `json:"lineage"`    // generation depth, >= 0
	Adjacency      float64  `json:"adjacency"`  // semantic proximity, [0,1]
	Horizon        Horizon  `json:"horizon"`
	Luminosity     int      `json:"luminosity"` // activity level, [0,100]
	Polarity       Polarity `json:"polarity"`
	Dimensionality int      `json:"dimensionality"` // fractal depth, >= 1
}

// New returns coordinates with all integer dimensions at their domain minimum.
func New(realm Realm, horizon Horizon, polarity Polarity) Coordinates {
	return Coordinates{
		Realm:          realm,
		Horizon:        horizon,
		Polarity:       polarity,
		Dimensionality: 1,
	}
}

// ErrInvalid reports a coordinate field outside its declared domain.
//
// The error is caller-fixable and never retried automatically.
type ErrInvalid struct {
	Field  Dimension
	Value  any
	Reason string
}

func (e *ErrInvalid) Error() string {
	return fmt.Sprintf("invalid coordinate %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Validate checks every field against its declared domain.
// It returns the first violation as an *ErrInvalid.
func (c Coordinates) Validate() error {
	if !c.Realm.Valid() {
		return &ErrInvalid{Field: DimRealm, Value: uint8(c.Realm), Reason: "unknown realm"}
	}
	if c.Lineage < 0 {
		return &ErrInvalid{Field: DimLineage, Value: c.Lineage, Reason: "must be >= 0"}
	}
	if math.IsNaN(c.Adjacency) || c.Adjacency < 0 || c.Adjacency > 1 {
		return &ErrInvalid{Field: DimAdjacency, Value: c.Adjacency, Reason: "must be within [0.0, 1.0]"}
	}
	if !c.Horizon.Valid() {
		return &ErrInvalid{Field: DimHorizon, Value: uint8(c.Horizon), Reason: "unknown horizon stage"}
	}
	if c.Luminosity < 0 || c.Luminosity > 100 {
		return &ErrInvalid{Field: DimLuminosity, Value: c.Luminosity, Reason: "must be within [0, 100]"}
	}
	if !c.Polarity.Valid() {
		return &ErrInvalid{Field: DimPolarity, Value: uint8(c.Polarity), Reason: "unknown polarity"}
	}
	if c.Dimensionality < 1 {
		return &ErrInvalid{Field: DimDimensionality, Value: c.Dimensionality, Reason: "must be >= 1"}
	}
	return nil
}

// Value returns the coordinate's position on a dimension as a float64,
// suitable for range indexing. Enum dimensions map to their ordinal.
func (c Coordinates) Value(d Dimension) float64 {
	switch d {
	case DimRealm:
		return float64(c.Realm)
	case DimLineage:
		return float64(c.Lineage)
	case DimAdjacency:
		return c.Adjacency
	case DimHorizon:
		return float64(c.Horizon)
	case DimLuminosity:
		return float64(c.Luminosity)
	case DimPolarity:
		return float64(c.Polarity)
	case DimDimensionality:
		return float64(c.Dimensionality)
	default:
		return math.NaN()
	}
}

// Proximity scores how close two coordinate tuples sit in STAT7 space,
// in [0,1]. It weighs adjacency distance, horizon-stage separation and
// lineage separation; realm and polarity mismatches attenuate the score
// rather than zeroing it, so cross-realm neighbors still rank.
func Proximity(a, b Coordinates) float64 {
	adj := 1 - math.Abs(a.Adjacency-b.Adjacency)

	// Horizon stages are ordered; one stage apart is still close.
	hd := math.Abs(float64(a.Horizon) - float64(b.Horizon))
	hor := 1 - hd/float64(NumHorizons-1)

	ld := math.Abs(float64(a.Lineage - b.Lineage))
	lin := 1 / (1 + ld)

	score := 0.5*adj + 0.3*hor + 0.2*lin
	if a.Realm != b.Realm {
		score *= 0.5
	}
	if a.Polarity != b.Polarity {
		score *= 0.8
	}
	return score
}
