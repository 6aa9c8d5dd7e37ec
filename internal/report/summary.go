package report

import "github.com/tendant/simple-inspector/internal/job"

// Summary counts sub-issues by severity across every tab.
type Summary struct {
	Okay         int `json:"okay"`
	Minor        int `json:"minor"`
	Major        int `json:"major"`
	Unrecognized int `json:"unrecognized,omitempty"`
}

// Total is the number of sub-issues seen, recognized or not.
func (s Summary) Total() int {
	return s.Okay + s.Minor + s.Major + s.Unrecognized
}

// Summarize counts severities in one pass over the job's tabs.
func Summarize(j *job.Job) Summary {
	var s Summary
	for _, tab := range j.InspectionTabs {
		for _, issue := range tab.SubIssues {
			switch issue.Severity {
			case job.SeverityOK:
				s.Okay++
			case job.SeverityMinor:
				s.Minor++
			case job.SeverityMajor:
				s.Major++
			default:
				s.Unrecognized++
			}
		}
	}
	return s
}

// Entry is a numbered sub-issue inside a Section.
type Entry struct {
	Number int
	Tab    string
	Issue  job.SubIssue
}

// Section is one severity bucket of the report body.
type Section struct {
	Severity job.Severity
	Title    string
	Fill     Color
	Accent   Color
	Entries  []Entry
}

// sectionOrder is the order buckets are printed in.
var sectionOrder = []Section{
	{Severity: job.SeverityMinor, Title: "Minor", Fill: rgb(1, 0.97, 0.9), Accent: rgb(0.95, 0.6, 0.1)},
	{Severity: job.SeverityMajor, Title: "Major", Fill: rgb(1, 0.95, 0.95), Accent: rgb(0.9, 0.2, 0.2)},
	{Severity: job.SeverityOK, Title: "OK", Fill: rgb(0.95, 0.98, 1), Accent: rgb(0.1, 0.55, 0.85)},
}

// Group flattens the job's sub-issues into the Minor, Major and OK sections,
// keeping tab then issue order and numbering each section from 1. All three
// sections are returned, possibly empty. Sub-issues with any other severity
// are left out; see Unrecognized.
func Group(j *job.Job) []Section {
	out := make([]Section, len(sectionOrder))
	index := make(map[job.Severity]int, len(sectionOrder))
	for i, s := range sectionOrder {
		out[i] = s
		out[i].Entries = nil
		index[s.Severity] = i
	}
	for _, tab := range j.InspectionTabs {
		for _, issue := range tab.SubIssues {
			i, ok := index[issue.Severity]
			if !ok {
				continue
			}
			out[i].Entries = append(out[i].Entries, Entry{
				Number: len(out[i].Entries) + 1,
				Tab:    tab.Key,
				Issue:  issue,
			})
		}
	}
	return out
}

// Unrecognized returns the sub-issues whose severity is outside the known
// set, in traversal order.
func Unrecognized(j *job.Job) []Entry {
	var out []Entry
	for _, tab := range j.InspectionTabs {
		for _, issue := range tab.SubIssues {
			if !issue.Severity.Valid() {
				out = append(out, Entry{Number: len(out) + 1, Tab: tab.Key, Issue: issue})
			}
		}
	}
	return out
}
