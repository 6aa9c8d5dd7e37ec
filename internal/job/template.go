package job

// CanonicalTabs is the standard checklist every inspection starts from.
var CanonicalTabs = []InspectionTab{
	{Key: "History", Label: "History", SubIssues: []SubIssue{
		{Key: "vinInspection", Label: "VIN Inspection"},
		{Key: "serviceRecalls", Label: "Service Recalls Performed"},
		{Key: "vehicleHistory", Label: "Vehicle History Obtained"},
	}},
	{Key: "exterior", Label: "Exterior", SubIssues: []SubIssue{
		{Key: "paintCondition", Label: "Paint Condition"},
		{Key: "bodyDamage", Label: "Body Damage"},
		{Key: "glassCondition", Label: "Glass Condition"},
	}},
	{Key: "interior", Label: "Interior", SubIssues: []SubIssue{
		{Key: "upholsteryCondition", Label: "Upholstery Condition"},
		{Key: "dashboardCondition", Label: "Dashboard Condition"},
		{Key: "controlsFunctionality", Label: "Controls Functionality"},
	}},
	{Key: "engine", Label: "Engine and Mechanical", SubIssues: []SubIssue{
		{Key: "fluidLeaks", Label: "Fluid Leaks"},
		{Key: "beltCondition", Label: "Belt Condition"},
		{Key: "hoseCondition", Label: "Hose Condition"},
	}},
	{Key: "tires", Label: "Tires and Wheels", SubIssues: []SubIssue{
		{Key: "tireTreadDepth", Label: "Tire Tread Depth"},
		{Key: "wheelCondition", Label: "Wheel Condition"},
		{Key: "tirePressure", Label: "Tire Pressure"},
	}},
	{Key: "brakes", Label: "Brakes and Suspension", SubIssues: []SubIssue{
		{Key: "brakePadCondition", Label: "Brake Pad Condition"},
		{Key: "suspensionCondition", Label: "Suspension Condition"},
		{Key: "brakeFluidLevel", Label: "Brake Fluid Level"},
	}},
}

// DefaultSeverity is applied to canonical items the existing data lacks.
const DefaultSeverity = SeverityOK

// Reconcile merges stored tabs onto a canonical template by key. Every
// canonical (tab, issue) pair appears in template order, taking the stored
// severity and comment when present and DefaultSeverity with an empty
// comment otherwise. Stored tabs and issues the template does not know are
// kept, appended after the canonical ones in their original order. Neither
// input is modified.
func Reconcile(canonical, existing []InspectionTab) []InspectionTab {
	byTab := make(map[string]InspectionTab, len(existing))
	for _, t := range existing {
		if _, dup := byTab[t.Key]; !dup {
			byTab[t.Key] = t
		}
	}

	known := make(map[string]bool, len(canonical))
	out := make([]InspectionTab, 0, len(canonical)+len(existing))
	for _, ct := range canonical {
		known[ct.Key] = true
		stored, hasStored := byTab[ct.Key]

		issues := make(map[string]SubIssue, len(stored.SubIssues))
		for _, si := range stored.SubIssues {
			if _, dup := issues[si.Key]; !dup {
				issues[si.Key] = si
			}
		}

		merged := InspectionTab{Key: ct.Key, Label: ct.Label}
		knownIssue := make(map[string]bool, len(ct.SubIssues))
		for _, ci := range ct.SubIssues {
			knownIssue[ci.Key] = true
			item := SubIssue{Key: ci.Key, Label: ci.Label, Severity: DefaultSeverity}
			if si, ok := issues[ci.Key]; ok {
				if si.Severity != "" {
					item.Severity = si.Severity
				}
				item.Comment = si.Comment
			}
			merged.SubIssues = append(merged.SubIssues, item)
		}
		if hasStored {
			for _, si := range stored.SubIssues {
				if !knownIssue[si.Key] {
					merged.SubIssues = append(merged.SubIssues, si)
					knownIssue[si.Key] = true
				}
			}
		}
		out = append(out, merged)
	}

	for _, t := range existing {
		if known[t.Key] {
			continue
		}
		known[t.Key] = true
		out = append(out, CloneTabs([]InspectionTab{t})[0])
	}
	return out
}
