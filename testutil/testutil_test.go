package testutil

import "testing"

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(99)
	b := NewRNG(99)

	for i := 0; i < 50; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("same seed should produce the same sequence")
		}
	}

	a.Reset()
	c := NewRNG(99)
	if a.Sentence(5) != c.Sentence(5) {
		t.Fatal("reset should replay the sequence")
	}
}

func TestGeneratedEntitiesAreValid(t *testing.T) {
	rng := NewRNG(7)
	for _, bc := range rng.Corpus(200) {
		if err := bc.Coordinates.Validate(); err != nil {
			t.Fatalf("invalid coordinates: %v", err)
		}
		if err := bc.Payload.Validate(); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if bc.ID == "" {
			t.Fatal("missing entity ID")
		}
	}
}
