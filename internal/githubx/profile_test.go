package githubx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUsername(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://github.com/janedoe", "janedoe", true},
		{"http://github.com/jane-doe_1/", "jane-doe_1", true},
		{"https://github.com/janedoe/some-repo", "janedoe", true},
		{"https://gitlab.com/janedoe", "", false},
		{"github.com/", "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractUsername(tt.url)
		assert.Equal(t, tt.ok, ok, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestAnalyzeProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))

		switch r.URL.Path {
		case "/users/janedoe":
			fmt.Fprint(w, `{"login":"janedoe","public_repos":12}`)
		case "/users/janedoe/repos":
			assert.Equal(t, "pushed", r.URL.Query().Get("sort"))
			fmt.Fprint(w, `[
				{"name":"hirelens","full_name":"janedoe/hirelens","html_url":"https://github.com/janedoe/hirelens","description":"screening tool"},
				{"name":"dotfiles","full_name":"janedoe/dotfiles","html_url":"https://github.com/janedoe/dotfiles","description":""}
			]`)
		case "/repos/janedoe/hirelens/languages":
			fmt.Fprint(w, `{"Go":54321,"Makefile":1200,"Dockerfile":1200}`)
		case "/repos/janedoe/dotfiles/languages":
			fmt.Fprint(w, `{}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewProfileAnalyzer("", WithBaseURL(srv.URL))
	analysis := p.AnalyzeProfile(context.Background(), "https://github.com/janedoe")

	require.Equal(t, "Analysis Complete", analysis.Status)
	assert.Equal(t, "janedoe", analysis.Username)
	assert.Equal(t, 12, analysis.TotalPublicRepos)
	require.Len(t, analysis.Repositories, 2)
	assert.Equal(t, "hirelens", analysis.Repositories[0].Name)
	// Breakdown keys ordered by bytes of code, ties alphabetical.
	assert.Equal(t, []string{"Go", "Dockerfile", "Makefile"}, analysis.Repositories[0].Languages)
	assert.Empty(t, analysis.Repositories[1].Languages)
}

func TestAnalyzeProfileUserNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewProfileAnalyzer("", WithBaseURL(srv.URL))
	analysis := p.AnalyzeProfile(context.Background(), "https://github.com/ghost")

	assert.Contains(t, analysis.Status, "Error accessing GitHub profile")
	assert.Equal(t, "ghost", analysis.Username)
}

func TestAnalyzeProfileInvalidURL(t *testing.T) {
	p := NewProfileAnalyzer("")

	analysis := p.AnalyzeProfile(context.Background(), "https://example.com/janedoe")
	assert.Equal(t, "Not a valid GitHub URL", analysis.Status)
}
