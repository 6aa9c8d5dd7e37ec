package job

import (
	"fmt"
	"strings"
)

// ValidateDraft checks a new job's structure and reports every violation.
func ValidateDraft(d Draft) error {
	v := &ValidationError{}
	if strings.TrimSpace(d.CarNumber) == "" {
		v.add("carNumber", "car number is required")
	}
	if strings.TrimSpace(d.CustomerName) == "" {
		v.add("customerName", "customer name is required")
	}
	if !d.Classification.Valid() {
		v.add("classification", "unknown classification %q", d.Classification)
	}
	validateTabs(v, d.InspectionTabs)
	return v.orNil()
}

// ValidatePatch applies the draft rules to the fields a patch supplies.
func ValidatePatch(p Patch) error {
	v := &ValidationError{}
	if p.Empty() {
		v.add("patch", "no editable fields supplied")
		return v
	}
	if p.CarNumber != nil && strings.TrimSpace(*p.CarNumber) == "" {
		v.add("carNumber", "car number cannot be blank")
	}
	if p.CustomerName != nil && strings.TrimSpace(*p.CustomerName) == "" {
		v.add("customerName", "customer name cannot be blank")
	}
	if p.Classification != nil && !p.Classification.Valid() {
		v.add("classification", "unknown classification %q", *p.Classification)
	}
	if p.InspectionTabs != nil {
		validateTabs(v, *p.InspectionTabs)
	}
	return v.orNil()
}

func validateTabs(v *ValidationError, tabs []InspectionTab) {
	seen := make(map[string]bool, len(tabs))
	for i, tab := range tabs {
		prefix := fmt.Sprintf("inspectionTabs[%d]", i)
		if strings.TrimSpace(tab.Key) == "" {
			v.add(prefix+".key", "tab key is required")
		} else if seen[tab.Key] {
			v.add(prefix+".key", "duplicate tab key %q", tab.Key)
		}
		seen[tab.Key] = true
		for j, issue := range tab.SubIssues {
			field := fmt.Sprintf("%s.subIssues[%d]", prefix, j)
			if strings.TrimSpace(issue.Key) == "" {
				v.add(field+".key", "sub-issue key is required")
			}
			if !issue.Severity.Valid() {
				v.add(field+".severity", "severity must be one of ok, minor, major (got %q)", issue.Severity)
			}
		}
	}
}
