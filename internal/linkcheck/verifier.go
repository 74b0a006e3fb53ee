// Package linkcheck probes candidate-provided URLs with HEAD requests.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hirelens/hirelens/screening"
)

const (
	StatusOK          = "OK"
	StatusNotProvided = "Not Provided"

	probeTimeout = 5 * time.Second
)

// Verifier checks whether candidate links resolve. Redirects count as
// reachable.
type Verifier struct {
	httpClient *http.Client
}

func NewVerifier() *Verifier {
	return &Verifier{
		httpClient: &http.Client{Timeout: probeTimeout},
	}
}

// NewVerifierWithClient is used in tests.
func NewVerifierWithClient(c *http.Client) *Verifier {
	return &Verifier{httpClient: c}
}

// VerifyLinks probes each provided link and returns a status per link kind.
// Missing links are reported as not provided, never skipped.
func (v *Verifier) VerifyLinks(ctx context.Context, links screening.ExternalLinks) screening.LinkVerification {
	return screening.LinkVerification{
		"github":    v.probe(ctx, links.GitHub),
		"linkedin":  v.probe(ctx, links.LinkedIn),
		"portfolio": v.probe(ctx, links.Portfolio),
	}
}

func (v *Verifier) probe(ctx context.Context, rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return StatusNotProvided
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Sprintf("Unreachable (%s)", "Invalid URL")
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Unreachable (%s)", classify(err))
	}
	resp.Body.Close()

	// Only a final 2xx counts as reachable. Redirects are followed by the
	// client, so a non-2xx here is the end of the chain.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Sprintf("Broken (Status: %d)", resp.StatusCode)
	}
	return StatusOK
}

func classify(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Timeout"
	}
	return "Connection Error"
}
