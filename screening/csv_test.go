package screening

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvResult(name, email string, score int, possessed, lacking []string) *CandidateResult {
	return &CandidateResult{
		Status: ResultStatusAnalyzed,
		Data: &AnalysisRecord{
			Analysis: Analysis{
				ResumeData: ResumeData{
					ContactInfo: ContactInfo{Name: name, Email: email, Phone: "555-0100"},
				},
				MatchAnalysis: MatchAnalysis{
					MatchScore:      Score(score),
					SkillsPossessed: possessed,
					SkillsLacking:   lacking,
				},
			},
		},
	}
}

func TestBuildSummaryCSV(t *testing.T) {
	results := []*CandidateResult{
		csvResult("Grace Hopper", "grace@example.com", 92, []string{"Go", "SQL"}, []string{"Kubernetes"}),
		csvResult("Alan Turing", "alan@example.com", 78, []string{"Python"}, nil),
	}

	out, err := BuildSummaryCSV(results)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Email,Phone,Score,Skills Possessed,Skills Lacking", lines[0])
	assert.Equal(t, `Grace Hopper,grace@example.com,555-0100,92,"Go, SQL",Kubernetes`, lines[1])
	assert.Equal(t, "Alan Turing,alan@example.com,555-0100,78,Python,", lines[2])
}

func TestBuildSummaryCSVSkipsNonAnalyzed(t *testing.T) {
	results := []*CandidateResult{
		{Status: ResultStatusRejected, Reason: "No projects found in resume."},
		{Status: ResultStatusFailed, Reason: "extraction error"},
		csvResult("Only One", "one@example.com", 50, nil, nil),
	}

	out, err := BuildSummaryCSV(results)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Only One")
}

func TestBuildSummaryCSVEmptyResults(t *testing.T) {
	out, err := BuildSummaryCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "Name,Email,Phone,Score,Skills Possessed,Skills Lacking\n", out)
}

func TestBuildSummaryCSVQuotesCommas(t *testing.T) {
	r := csvResult("Last, First", "x@example.com", 10, nil, nil)
	out, err := BuildSummaryCSV([]*CandidateResult{r})
	require.NoError(t, err)
	assert.Contains(t, out, `"Last, First"`)
}
