package screenai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}

func TestParseAnalysis(t *testing.T) {
	raw := "```json\n" + `{
		"resume_data": {
			"contact_info": {"name": "Jane Doe", "email": "jane@example.com", "phone": "555-0100"},
			"skills": ["Go", "PostgreSQL"],
			"work_experience": [],
			"education": [],
			"projects": [{"name": "hirelens", "description": "screening tool", "technologies_used": ["Go"], "url": ""}],
			"external_links": {"github": "https://github.com/janedoe", "linkedin": "", "portfolio": ""}
		},
		"match_analysis": {
			"match_score": 87,
			"summary": "Strong fit.",
			"reasoning": "Solid backend background.",
			"skills_possessed": ["Go"],
			"skills_lacking": ["Kubernetes"]
		}
	}` + "\n```"

	analysis, err := ParseAnalysis(raw)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", analysis.ResumeData.ContactInfo.Name)
	assert.Equal(t, 87, analysis.MatchAnalysis.MatchScore.Int())
	assert.True(t, analysis.HasProjects())
}

func TestParseAnalysisProsePadded(t *testing.T) {
	raw := `Here is the analysis you asked for:
{"resume_data": {"contact_info": {"name": "A", "email": "", "phone": ""}}, "match_analysis": {"match_score": "42"}}
Hope this helps!`

	analysis, err := ParseAnalysis(raw)
	require.NoError(t, err)

	assert.Equal(t, 42, analysis.MatchAnalysis.MatchScore.Int())
	assert.False(t, analysis.HasProjects())
}

func TestParseAnalysisInvalid(t *testing.T) {
	_, err := ParseAnalysis("the model refused to answer")
	assert.Error(t, err)
}
