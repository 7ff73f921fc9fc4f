package businessprofile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"leadbot_backend/internal/leads/domain"
)

func TestDefaultProfile(t *testing.T) {
	p := Default()
	if p.Script.Len() != 4 {
		t.Fatalf("expected 4 steps, got %d", p.Script.Len())
	}
	wantFields := []domain.FieldKind{domain.FieldLocation, domain.FieldPropertyType, domain.FieldBudget, domain.FieldEngagement}
	for i, want := range wantFields {
		step, ok := p.Script.StepAt(i)
		if !ok || step.Field != want || step.Index != i {
			t.Fatalf("step %d = %+v, want field %s", i, step, want)
		}
	}
	if _, ok := p.Script.StepAt(4); ok {
		t.Fatalf("StepAt past the end should fail")
	}
	if p.Rules.HotThreshold != 10 {
		t.Fatalf("unexpected hot threshold %d", p.Rules.HotThreshold)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	p, err := Load("", "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Industry != DefaultIndustry {
		t.Fatalf("industry = %q", p.Industry)
	}
	if _, err := Load("", "insurance"); err == nil {
		t.Fatalf("expected error for unknown industry without file")
	}
}

func TestLoadShippedProfiles(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "business_profiles.yaml")

	re, err := Load(path, "realEstate")
	if err != nil {
		t.Fatalf("load realEstate: %v", err)
	}
	def := Default()
	for i := range def.Script.Steps {
		if re.Script.Steps[i] != def.Script.Steps[i] {
			t.Fatalf("step %d differs from built-in default: %+v", i, re.Script.Steps[i])
		}
	}
	if re.Script.Industry != "Real Estate" {
		t.Fatalf("display name = %q", re.Script.Industry)
	}

	cl, err := Load(path, "commercialLeasing")
	if err != nil {
		t.Fatalf("load commercialLeasing: %v", err)
	}
	if cl.Rules.IntentPoints["rent"] != 3 {
		t.Fatalf("rent override not applied: %v", cl.Rules.IntentPoints)
	}
	if cl.Rules.IntentPoints["buy"] != 4 {
		t.Fatalf("default buy weight lost: %v", cl.Rules.IntentPoints)
	}
	if cl.Rules.WarmThreshold != 5 || cl.Rules.HotThreshold != 10 {
		t.Fatalf("thresholds = %d/%d", cl.Rules.HotThreshold, cl.Rules.WarmThreshold)
	}
	if got := cl.Script.Clarifications[domain.ReasonVagueLocation]; !strings.Contains(got, "BKC") {
		t.Fatalf("clarification override not applied: %q", got)
	}
	if got := cl.Script.Clarifications[domain.ReasonGibberish]; got != def.Script.Clarifications[domain.ReasonGibberish] {
		t.Fatalf("default clarification lost: %q", got)
	}
	if len(cl.Script.ClosingMessages) != len(def.Script.ClosingMessages) {
		t.Fatalf("closing messages should fall back to defaults")
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unknown industry": "realEstate:\n  questions:\n    - field: location\n      prompt: Where?\n",
		"no questions":     "other:\n  name: Other\n",
		"unknown field":    "other:\n  questions:\n    - field: shoeSize\n      prompt: Size?\n",
		"missing prompt":   "other:\n  questions:\n    - field: location\n",
		"bad yaml":         "other: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc), "other"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Load(path, "realEstate"); err == nil {
		t.Fatalf("expected error")
	}
	if err := os.WriteFile(path, []byte("realEstate:\n  questions:\n    - prompt: Anything else?\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path, "realEstate")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Script.Steps[0].Field != domain.FieldGeneral {
		t.Fatalf("blank field should default to general, got %q", p.Script.Steps[0].Field)
	}
}
