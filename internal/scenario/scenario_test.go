package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAll_SixValidPresets(t *testing.T) {
	if len(All) != 6 {
		t.Fatalf("expected 6 presets, got %d", len(All))
	}
	for _, s := range All {
		if s.Title == "" || s.Description == "" {
			t.Fatalf("preset %q missing title or description", s.ID)
		}
		if err := s.Params.Validate(); err != nil {
			t.Fatalf("preset %q has invalid params: %v", s.ID, err)
		}
	}
}

func TestLookup_KnownAndUnknown(t *testing.T) {
	s, err := Lookup("declining-city")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if s.Params.ImmigrationRate != 3 || s.Params.CommunityWeight != 2.0 {
		t.Fatalf("declining-city params wrong: %+v", s.Params)
	}

	_, err = Lookup("boomtown")
	if err == nil {
		t.Fatal("expected error for unknown scenario")
	}
	for _, id := range Names() {
		if !strings.Contains(err.Error(), id) {
			t.Fatalf("error %q does not list valid id %q", err, id)
		}
	}
}

func TestTitleFor_FallsBackToCustom(t *testing.T) {
	if got := TitleFor("balanced"); got != "Balanced Market" {
		t.Fatalf("TitleFor(balanced) = %q", got)
	}
	if got := TitleFor(""); got != "Custom" {
		t.Fatalf("TitleFor(\"\") = %q", got)
	}
}

func TestLoadFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	content := `id: my-experiment
title: My Experiment
description: tighter market
params:
  immigration_rate: 8
  min_lease_length: 2
  max_lease_length: 12
  max_wealth: 30
  vacancy_decay: true
  environment_weight: 1.0
  community_weight: 1.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if s.ID != "my-experiment" || s.Params.MaxWealth != 30 || !s.Params.VacancyDecay {
		t.Fatalf("unexpected scenario: %+v", s)
	}
}

func TestLoadFile_RejectsInvalidParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := `id: bad
title: Bad
params:
  immigration_rate: 5
  min_lease_length: 9
  max_lease_length: 2
  max_wealth: 10
  environment_weight: 1.0
  community_weight: 1.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation error for inverted lease range")
	}
}

func TestLoadFile_MissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noid.yaml")
	if err := os.WriteFile(path, []byte("title: Nameless\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for missing id")
	}
}
