package screening

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
)

// ============================================================================
// LLM analysis schema
// ============================================================================

// Analysis is the structured reply the model must produce for one resume
// against one job description.
type Analysis struct {
	ResumeData    ResumeData    `json:"resume_data"`
	MatchAnalysis MatchAnalysis `json:"match_analysis"`
}

// ResumeData is the extracted resume content.
type ResumeData struct {
	ContactInfo    ContactInfo      `json:"contact_info"`
	Skills         []string         `json:"skills"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Education      []EducationEntry `json:"education"`
	Projects       []ProjectEntry   `json:"projects"`
	ExternalLinks  ExternalLinks    `json:"external_links"`
}

type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type WorkExperience struct {
	JobTitle         string   `json:"job_title"`
	Company          string   `json:"company"`
	Duration         string   `json:"duration"`
	Responsibilities []string `json:"responsibilities"`
}

type EducationEntry struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	GraduationYear string `json:"graduation_year"`
}

type ProjectEntry struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	TechnologiesUsed []string `json:"technologies_used"`
	URL              string   `json:"url"`
}

// ExternalLinks holds the candidate's online presence. Field names double as
// link verification keys.
type ExternalLinks struct {
	GitHub    string `json:"github"`
	LinkedIn  string `json:"linkedin"`
	Portfolio string `json:"portfolio"`
}

// MatchAnalysis is the model's scoring of the resume against the JD.
type MatchAnalysis struct {
	MatchScore      Score    `json:"match_score"`
	Summary         string   `json:"summary"`
	Reasoning       string   `json:"reasoning"`
	SkillsPossessed []string `json:"skills_possessed"`
	SkillsLacking   []string `json:"skills_lacking"`
}

// Score is a 0-100 match score. Models occasionally return it as a quoted
// string or a float, so it unmarshals leniently and clamps to range.
type Score int

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = 0
		return nil
	}

	raw := string(data)
	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		raw = strings.TrimSpace(str)
		if raw == "" {
			*s = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("match_score %q is not numeric", raw)
	}

	n := int(f + 0.5)
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	*s = Score(n)
	return nil
}

func (s Score) Int() int { return int(s) }

func (s Score) String() string { return strconv.Itoa(int(s)) }

// HasProjects reports whether the model extracted at least one project.
// Resumes without projects are rejected before any outbound calls.
func (a *Analysis) HasProjects() bool {
	return len(a.ResumeData.Projects) > 0
}

// ============================================================================
// Per-resume result
// ============================================================================

type ResultStatus string

const (
	ResultStatusAnalyzed ResultStatus = "ANALYZED"
	ResultStatusRejected ResultStatus = "REJECTED"
	ResultStatusFailed   ResultStatus = "FAILED"
)

// LinkVerification maps a link kind (github, linkedin, portfolio) to its
// probe status string.
type LinkVerification map[string]string

// GitHubAnalysis is the candidate's GitHub profile summary. Status carries
// error text instead of failing the file.
type GitHubAnalysis struct {
	Status           string        `json:"status"`
	Username         string        `json:"username,omitempty"`
	TotalPublicRepos int           `json:"total_public_repos,omitempty"`
	Repositories     []RepoSummary `json:"repositories,omitempty"`
}

type RepoSummary struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Languages   []string `json:"languages"`
}

// EmailNotification records the outcome of the candidate email attempt.
type EmailNotification struct {
	Sent   bool   `json:"sent"`
	Status string `json:"status"`
}

// AnalysisRecord is the full per-candidate payload: the model analysis plus
// the enrichment steps that ran after it.
type AnalysisRecord struct {
	Analysis

	LinkVerification  LinkVerification   `json:"link_verification,omitempty"`
	GitHubAnalysis    *GitHubAnalysis    `json:"github_analysis,omitempty"`
	EmailNotification *EmailNotification `json:"email_notification,omitempty"`
}

// CandidateResult is one resume's outcome within a batch.
type CandidateResult struct {
	ID      kernel.CandidateID `json:"id"`
	BatchID kernel.BatchID     `json:"batch_id"`

	FileName string       `json:"filename"`
	Status   ResultStatus `json:"status"`
	Reason   string       `json:"reason,omitempty"`
	Data     *AnalysisRecord `json:"data,omitempty"`

	// Rank is 1-based position after sorting by score, 0 before ranking.
	Rank int `json:"rank,omitempty"`

	Embedding []float32 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// MatchScore returns the score, or 0 for rejected/failed entries so they
// sort last.
func (r *CandidateResult) MatchScore() int {
	if r.Data == nil {
		return 0
	}
	return r.Data.MatchAnalysis.MatchScore.Int()
}

// EmbeddingText renders the analyzed candidate as text for embedding
// generation.
func (r *CandidateResult) EmbeddingText() string {
	if r.Data == nil {
		return ""
	}

	var b strings.Builder
	ci := r.Data.ResumeData.ContactInfo
	if ci.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", ci.Name)
	}
	if len(r.Data.ResumeData.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(r.Data.ResumeData.Skills, ", "))
	}
	for _, exp := range r.Data.ResumeData.WorkExperience {
		fmt.Fprintf(&b, "Experience: %s at %s (%s)\n", exp.JobTitle, exp.Company, exp.Duration)
	}
	for _, p := range r.Data.ResumeData.Projects {
		fmt.Fprintf(&b, "Project: %s - %s\n", p.Name, p.Description)
	}
	if r.Data.MatchAnalysis.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", r.Data.MatchAnalysis.Summary)
	}
	return b.String()
}

// RankResults sorts results by match score descending (stable, so equal
// scores keep upload order and non-analyzed entries sink to the bottom) and
// assigns 1-based ranks.
func RankResults(results []*CandidateResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore() > results[j].MatchScore()
	})
	for i, r := range results {
		r.Rank = i + 1
	}
}

// ============================================================================
// Batch
// ============================================================================

type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// Batch is one screening run: one job description against N resumes.
type Batch struct {
	ID     kernel.BatchID `db:"id" json:"id"`
	Status BatchStatus    `db:"status" json:"status"`

	JDFileName string `db:"jd_file_name" json:"jd_file_name"`
	JDText     string `db:"jd_text" json:"-"`

	ResumeCount int `db:"resume_count" json:"resume_count"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// MarkCompleted transitions the batch to completed.
func (b *Batch) MarkCompleted() {
	now := time.Now()
	b.Status = BatchStatusCompleted
	b.CompletedAt = &now
}

// MarkFailed transitions the batch to failed.
func (b *Batch) MarkFailed() {
	now := time.Now()
	b.Status = BatchStatusFailed
	b.CompletedAt = &now
}
