package job

import "testing"

func TestReconcileEmptyYieldsDefaults(t *testing.T) {
	got := Reconcile(CanonicalTabs, nil)
	if len(got) != len(CanonicalTabs) {
		t.Fatalf("tabs = %d, want %d", len(got), len(CanonicalTabs))
	}
	for i, tab := range got {
		if tab.Key != CanonicalTabs[i].Key {
			t.Fatalf("tab %d = %s, want %s", i, tab.Key, CanonicalTabs[i].Key)
		}
		for _, si := range tab.SubIssues {
			if si.Severity != DefaultSeverity || si.Comment != "" {
				t.Fatalf("%s/%s not defaulted: %+v", tab.Key, si.Key, si)
			}
		}
	}
}

func TestReconcileKeepsStoredAndUnknown(t *testing.T) {
	existing := []InspectionTab{
		{Key: "custom", Label: "Custom", SubIssues: []SubIssue{{Key: "c1", Severity: SeverityMinor}}},
		{Key: "engine", Label: "old label", SubIssues: []SubIssue{
			{Key: "extraCheck", Label: "Extra", Severity: SeverityMajor},
			{Key: "beltCondition", Label: "old", Severity: SeverityMinor, Comment: "cracked"},
		}},
	}

	got := Reconcile(CanonicalTabs, existing)
	if len(got) != len(CanonicalTabs)+1 {
		t.Fatalf("tabs = %d, want %d", len(got), len(CanonicalTabs)+1)
	}
	if got[len(got)-1].Key != "custom" {
		t.Fatalf("unknown tab should be appended last, got %s", got[len(got)-1].Key)
	}

	engine := got[3]
	if engine.Label != "Engine and Mechanical" {
		t.Fatalf("canonical label should win, got %q", engine.Label)
	}
	keys := []string{"fluidLeaks", "beltCondition", "hoseCondition", "extraCheck"}
	if len(engine.SubIssues) != len(keys) {
		t.Fatalf("engine issues = %+v", engine.SubIssues)
	}
	for i, k := range keys {
		if engine.SubIssues[i].Key != k {
			t.Fatalf("engine issue %d = %s, want %s", i, engine.SubIssues[i].Key, k)
		}
	}
	belt := engine.SubIssues[1]
	if belt.Severity != SeverityMinor || belt.Comment != "cracked" || belt.Label != "Belt Condition" {
		t.Fatalf("stored values lost: %+v", belt)
	}

	got[len(got)-1].SubIssues[0].Severity = SeverityOK
	if existing[0].SubIssues[0].Severity != SeverityMinor {
		t.Fatal("Reconcile aliased the input tabs")
	}
}
