package compress

import (
	"sort"

	"github.com/stat7-io/stat7/embedding"
)

// Affect is the narrative/sentiment signal carried through every pipeline
// stage. It is computed once at the fragments stage and copied verbatim into
// each deeper record, so deep compression never erodes it.
type Affect struct {
	// Valence is the aggregate sentiment in [-1, 1].
	Valence float64 `json:"valence"`
	// Intensity is the fraction of affect-bearing tokens in [0, 1].
	Intensity float64 `json:"intensity"`
	// Tones lists the matched tone markers, sorted and deduplicated.
	Tones []string `json:"tones,omitempty"`
}

// Deterministic tone lexicon. Kept intentionally small: the contract is that
// whatever affect is measured survives compression, not that the measurement
// is a serious sentiment model.
var toneLexicon = map[string]float64{
	"achieve": 1, "gain": 1, "win": 1, "triumph": 1, "joy": 1, "delight": 1,
	"grow": 1, "bloom": 1, "rise": 1, "bright": 1, "love": 1, "trust": 1,
	"hope": 1, "calm": 0.5, "steady": 0.5,
	"loss": -1, "fail": -1, "decay": -1, "fade": -1, "fear": -1, "grief": -1,
	"break": -1, "dark": -1, "anger": -1, "doubt": -1, "fall": -1,
	"drift": -0.5, "quiet": -0.25,
}

// measureAffect scans text for tone markers.
func measureAffect(text string) Affect {
	tokens := embedding.Tokenize(text)
	if len(tokens) == 0 {
		return Affect{}
	}

	var sum float64
	hits := 0
	seen := map[string]struct{}{}
	for _, tok := range tokens {
		w, ok := toneLexicon[tok]
		if !ok {
			continue
		}
		sum += w
		hits++
		seen[tok] = struct{}{}
	}
	if hits == 0 {
		return Affect{}
	}

	tones := make([]string, 0, len(seen))
	for t := range seen {
		tones = append(tones, t)
	}
	sort.Strings(tones)

	return Affect{
		Valence:   sum / float64(hits),
		Intensity: float64(hits) / float64(len(tokens)),
		Tones:     tones,
	}
}
