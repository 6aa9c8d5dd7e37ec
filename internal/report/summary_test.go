package report

import (
	"testing"

	"github.com/tendant/simple-inspector/internal/job"
)

func issue(key string, sev job.Severity) job.SubIssue {
	return job.SubIssue{Key: key, Label: key, Severity: sev}
}

func TestSummarizeCountsEverySubIssue(t *testing.T) {
	cases := []struct {
		name string
		tabs []job.InspectionTab
		want Summary
	}{
		{name: "no tabs", want: Summary{}},
		{name: "empty tabs", tabs: []job.InspectionTab{{Key: "a"}, {Key: "b"}}, want: Summary{}},
		{
			name: "mixed",
			tabs: []job.InspectionTab{
				{Key: "a", SubIssues: []job.SubIssue{issue("1", job.SeverityOK), issue("2", job.SeverityMajor)}},
				{Key: "b", SubIssues: []job.SubIssue{issue("3", job.SeverityMinor), issue("4", job.SeverityOK), issue("5", "critical")}},
			},
			want: Summary{Okay: 2, Minor: 1, Major: 1, Unrecognized: 1},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j := &job.Job{InspectionTabs: tc.tabs}
			got := Summarize(j)
			if got != tc.want {
				t.Fatalf("Summarize = %+v, want %+v", got, tc.want)
			}
			total := 0
			for _, tab := range tc.tabs {
				total += len(tab.SubIssues)
			}
			if got.Total() != total {
				t.Fatalf("Total = %d, want %d", got.Total(), total)
			}

			grouped := 0
			for _, s := range Group(j) {
				grouped += len(s.Entries)
			}
			if grouped != got.Okay+got.Minor+got.Major {
				t.Fatalf("grouped %d entries, summary recognizes %d", grouped, got.Okay+got.Minor+got.Major)
			}
		})
	}
}

func TestGroupOrderAndNumbering(t *testing.T) {
	j := &job.Job{InspectionTabs: []job.InspectionTab{
		{Key: "exterior", SubIssues: []job.SubIssue{issue("paint", job.SeverityOK), issue("glass", job.SeverityMinor)}},
		{Key: "engine", SubIssues: []job.SubIssue{issue("belt", job.SeverityMinor), issue("leak", job.SeverityMajor), issue("hose", "bogus")}},
		{Key: "tires", SubIssues: []job.SubIssue{issue("tread", job.SeverityOK)}},
	}}

	sections := Group(j)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	wantTitles := []string{"Minor", "Major", "OK"}
	wantKeys := [][]string{{"glass", "belt"}, {"leak"}, {"paint", "tread"}}
	for i, s := range sections {
		if s.Title != wantTitles[i] {
			t.Fatalf("section %d = %s, want %s", i, s.Title, wantTitles[i])
		}
		if len(s.Entries) != len(wantKeys[i]) {
			t.Fatalf("section %s has %d entries, want %d", s.Title, len(s.Entries), len(wantKeys[i]))
		}
		for n, e := range s.Entries {
			if e.Number != n+1 || e.Issue.Key != wantKeys[i][n] {
				t.Fatalf("section %s entry %d = #%d %s", s.Title, n, e.Number, e.Issue.Key)
			}
		}
	}

	odd := Unrecognized(j)
	if len(odd) != 1 || odd[0].Tab != "engine" || odd[0].Issue.Key != "hose" {
		t.Fatalf("unexpected unrecognized entries: %+v", odd)
	}
}
