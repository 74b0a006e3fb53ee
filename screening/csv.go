package screening

import (
	"encoding/csv"
	"strings"
)

var csvHeader = []string{"Name", "Email", "Phone", "Score", "Skills Possessed", "Skills Lacking"}

// BuildSummaryCSV renders the analyzed results as a CSV summary in the order
// given. Rejected and failed entries are skipped.
func BuildSummaryCSV(results []*CandidateResult) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}

	for _, r := range results {
		if r.Status != ResultStatusAnalyzed || r.Data == nil {
			continue
		}

		ci := r.Data.ResumeData.ContactInfo
		ma := r.Data.MatchAnalysis
		row := []string{
			ci.Name,
			ci.Email,
			ci.Phone,
			ma.MatchScore.String(),
			strings.Join(ma.SkillsPossessed, ", "),
			strings.Join(ma.SkillsLacking, ", "),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return b.String(), nil
}
