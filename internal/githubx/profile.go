// Package githubx summarizes a candidate's GitHub presence through the REST
// API. Failures never abort screening, they surface in the analysis status.
package githubx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/screening"
)

const (
	defaultBaseURL = "https://api.github.com"
	recentRepoMax  = 5
)

var usernamePattern = regexp.MustCompile(`github\.com/([a-zA-Z0-9_-]+)`)

// ExtractUsername pulls the account name out of a GitHub profile URL.
func ExtractUsername(githubURL string) (string, bool) {
	m := usernamePattern.FindStringSubmatch(githubURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ProfileAnalyzer queries the GitHub REST API for a candidate's public
// profile and recent repositories.
type ProfileAnalyzer struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

type Option func(*ProfileAnalyzer)

// WithBaseURL overrides the API host, used in tests.
func WithBaseURL(baseURL string) Option {
	return func(p *ProfileAnalyzer) {
		p.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *ProfileAnalyzer) {
		p.httpClient = c
	}
}

// NewProfileAnalyzer creates the analyzer. Token is optional, unauthenticated
// requests work within GitHub's lower rate limits.
func NewProfileAnalyzer(token string, opts ...Option) *ProfileAnalyzer {
	p := &ProfileAnalyzer{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type userResponse struct {
	Login       string `json:"login"`
	PublicRepos int    `json:"public_repos"`
}

type repoResponse struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
}

// AnalyzeProfile summarizes the profile behind githubURL. The returned
// status carries error text instead of an error so one bad link never fails
// the resume.
func (p *ProfileAnalyzer) AnalyzeProfile(ctx context.Context, githubURL string) *screening.GitHubAnalysis {
	if !strings.Contains(githubURL, "github.com") {
		return &screening.GitHubAnalysis{Status: "Not a valid GitHub URL"}
	}

	username, ok := ExtractUsername(githubURL)
	if !ok {
		return &screening.GitHubAnalysis{Status: "Could not extract username"}
	}

	var user userResponse
	if err := p.get(ctx, fmt.Sprintf("/users/%s", username), &user); err != nil {
		logx.Warnf("GitHub profile lookup failed for %s: %v", username, err)
		return &screening.GitHubAnalysis{
			Status:   fmt.Sprintf("Error accessing GitHub profile: %v", err),
			Username: username,
		}
	}

	var repos []repoResponse
	path := fmt.Sprintf("/users/%s/repos?sort=pushed&per_page=%d", username, recentRepoMax)
	if err := p.get(ctx, path, &repos); err != nil {
		logx.Warnf("GitHub repo listing failed for %s: %v", username, err)
		return &screening.GitHubAnalysis{
			Status:   fmt.Sprintf("Error accessing GitHub profile: %v", err),
			Username: username,
		}
	}

	summaries := make([]screening.RepoSummary, 0, len(repos))
	for _, r := range repos {
		languages, err := p.repoLanguages(ctx, r.FullName)
		if err != nil {
			logx.Warnf("GitHub language lookup failed for %s: %v", r.FullName, err)
			return &screening.GitHubAnalysis{
				Status:   fmt.Sprintf("Error accessing GitHub profile: %v", err),
				Username: username,
			}
		}

		summaries = append(summaries, screening.RepoSummary{
			Name:        r.Name,
			URL:         r.HTMLURL,
			Description: r.Description,
			Languages:   languages,
		})
	}

	return &screening.GitHubAnalysis{
		Status:           "Analysis Complete",
		Username:         username,
		TotalPublicRepos: user.PublicRepos,
		Repositories:     summaries,
	}
}

// repoLanguages returns the repo's language breakdown keys, most-used first
// (the API orders the breakdown by bytes of code).
func (p *ProfileAnalyzer) repoLanguages(ctx context.Context, fullName string) ([]string, error) {
	var breakdown map[string]int64
	if err := p.get(ctx, fmt.Sprintf("/repos/%s/languages", fullName), &breakdown); err != nil {
		return nil, err
	}
	if len(breakdown) == 0 {
		return nil, nil
	}

	languages := make([]string, 0, len(breakdown))
	for lang := range breakdown {
		languages = append(languages, lang)
	}
	sort.Slice(languages, func(i, j int) bool {
		if breakdown[languages[i]] != breakdown[languages[j]] {
			return breakdown[languages[i]] > breakdown[languages[j]]
		}
		return languages[i] < languages[j]
	})
	return languages, nil
}

func (p *ProfileAnalyzer) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "hirelens-screening")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
