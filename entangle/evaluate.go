package entangle

import "github.com/stat7-io/stat7/bitchain"

// Label is a ground-truth annotation for a pair of entities.
type Label struct {
	IDA       string
	IDB       string
	Entangled bool
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Evaluate measures detection quality against labeled pairs. Precision is
// the fraction of predicted pairs that are labeled entangled, computed over
// predictions that have a label at all; recall is the fraction of labeled
// entangled pairs that were predicted. Both are 0 when undefined.
func Evaluate(predicted []bitchain.EntanglementPair, labels []Label) (precision, recall float64) {
	truth := make(map[[2]string]bool, len(labels))
	var positives int
	for _, l := range labels {
		truth[pairKey(l.IDA, l.IDB)] = l.Entangled
		if l.Entangled {
			positives++
		}
	}

	var tp, fp int
	for _, p := range predicted {
		want, ok := truth[pairKey(p.IDA, p.IDB)]
		if !ok {
			continue
		}
		if want {
			tp++
		} else {
			fp++
		}
	}

	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if positives > 0 {
		recall = float64(tp) / float64(positives)
	}
	return precision, recall
}
