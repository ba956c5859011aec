package stublib

import "testing"

func TestLookupKnownStub(t *testing.T) {
	s, ok := Lookup("GetTubeMaskBrightness")
	if !ok {
		t.Fatal("expected GetTubeMaskBrightness to be registered")
	}
	want := "float GetTubeMaskBrightness(vec2 co) { return 1.0; }"
	if got := s.Declaration(); got != want {
		t.Errorf("Declaration() = %q, want %q", got, want)
	}
}

func TestLookupUnknownStub(t *testing.T) {
	if _, ok := Lookup("NotARealHelper"); ok {
		t.Error("expected NotARealHelper to be absent from the registry")
	}
}

func TestConstantsHaveNonEmptyDefinitionsIncludingMPI(t *testing.T) {
	consts := Constants()
	if consts["M_PI"] == "" {
		t.Error("expected M_PI to be present")
	}
	for name, def := range consts {
		if def == "" {
			t.Errorf("constant %q has an empty definition", name)
		}
	}
}
