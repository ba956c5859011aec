package paramstore

import "testing"

func TestTierPrecedence(t *testing.T) {
	s := NewStore()
	s.SetDefault("HSM_BG_OPACITY", 1.0)
	if v, ok := s.Get("HSM_BG_OPACITY"); !ok || v != 1.0 {
		t.Fatalf("Get after default = (%v, %v), want (1.0, true)", v, ok)
	}

	s.SetPresetOverride("HSM_BG_OPACITY", 0.5)
	if v, _ := s.Get("HSM_BG_OPACITY"); v != 0.5 {
		t.Errorf("Get after preset override = %v, want 0.5", v)
	}

	s.SetHostOverride("HSM_BG_OPACITY", 0.25)
	if v, _ := s.Get("HSM_BG_OPACITY"); v != 0.25 {
		t.Errorf("Get after host override = %v, want 0.25", v)
	}
}

func TestClearPresetOverridesFallsBackToDefault(t *testing.T) {
	s := NewStore()
	s.SetDefault("X", 1.0)
	s.SetPresetOverride("X", 2.0)
	s.ClearPresetOverrides()
	if v, _ := s.Get("X"); v != 1.0 {
		t.Errorf("Get after clearing preset overrides = %v, want 1.0", v)
	}
}

func TestGetUnknownName(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("NOPE"); ok {
		t.Error("expected Get of an unknown name to report ok=false")
	}
}

func TestNamesUnionsAllTiers(t *testing.T) {
	s := NewStore()
	s.SetDefault("A", 1)
	s.SetPresetOverride("B", 2)
	s.SetHostOverride("C", 3)
	names := s.Names()
	if len(names) != 3 {
		t.Fatalf("Names() = %v, want 3 entries", names)
	}
}
