package job

import (
	"errors"
	"testing"
)

func TestValidateDraft(t *testing.T) {
	cases := []struct {
		name   string
		draft  Draft
		fields []string
	}{
		{
			name:  "minimal",
			draft: Draft{CarNumber: "KA-01", CustomerName: "Ravi"},
		},
		{
			name:   "missing required",
			draft:  Draft{},
			fields: []string{"carNumber", "customerName"},
		},
		{
			name:   "bad classification",
			draft:  Draft{CarNumber: "A", CustomerName: "B", Classification: "resale"},
			fields: []string{"classification"},
		},
		{
			name: "tab problems are all reported",
			draft: Draft{CarNumber: "A", CustomerName: "B", InspectionTabs: []InspectionTab{
				{Key: "exterior", SubIssues: []SubIssue{{Key: "paint", Severity: "fine"}, {Severity: SeverityOK}}},
				{Key: "exterior"},
				{Key: ""},
			}},
			fields: []string{
				"inspectionTabs[0].subIssues[0].severity",
				"inspectionTabs[0].subIssues[1].key",
				"inspectionTabs[1].key",
				"inspectionTabs[2].key",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDraft(tc.draft)
			if len(tc.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(vErr.Fields) != len(tc.fields) {
				t.Fatalf("fields = %+v, want %v", vErr.Fields, tc.fields)
			}
			for i, f := range tc.fields {
				if vErr.Fields[i].Field != f {
					t.Fatalf("field[%d] = %s, want %s", i, vErr.Fields[i].Field, f)
				}
			}
		})
	}
}

func TestValidatePatch(t *testing.T) {
	blank := "  "
	name := "Meera"
	bad := Classification("resale")
	tabs := []InspectionTab{{Key: "x", SubIssues: []SubIssue{{Key: "y", Severity: SeverityMajor}}}}

	if err := ValidatePatch(Patch{}); err == nil {
		t.Fatal("empty patch should fail")
	}
	if err := ValidatePatch(Patch{CustomerName: &name, InspectionTabs: &tabs}); err != nil {
		t.Fatalf("valid patch rejected: %v", err)
	}
	if err := ValidatePatch(Patch{CarNumber: &blank}); Kind(err) != "validation" {
		t.Fatalf("blank car number: %v", err)
	}
	if err := ValidatePatch(Patch{Classification: &bad}); Kind(err) != "validation" {
		t.Fatalf("bad classification: %v", err)
	}
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		"validation": &ValidationError{Fields: []FieldError{{Field: "a"}}},
		"permission": &PermissionError{Op: "claim", Role: RoleAdmin},
		"not_found":  &NotFoundError{ID: "x"},
		"conflict":   &ConflictError{ID: "x", Op: "claim", Reason: "taken"},
		"store":      &StoreError{Op: "get", Err: errors.New("dial tcp: refused")},
		"internal":   errors.New("boom"),
	}
	for want, err := range cases {
		if got := Kind(err); got != want {
			t.Errorf("Kind(%T) = %s, want %s", err, got, want)
		}
	}
	if Kind(nil) != "" {
		t.Error("Kind(nil) should be empty")
	}
}

func TestStoreErrorHidesCause(t *testing.T) {
	cause := errors.New("password=hunter2")
	err := &StoreError{Op: "claim", Err: cause}
	if err.Error() != "claim: storage failure" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should stay reachable through Unwrap")
	}
}
