// Package fetch implements the source fetcher collaborator: given a
// repository identifier it returns one raw text blob with all files
// concatenated behind separator markers.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultBaseURL is the gitingest endpoint used to flatten a repository
// into a single text dump.
const DefaultBaseURL = "https://gitingest.com"

// GitingestFetcher downloads repository dumps through gitingest. It posts
// the ingest form, scrapes the produced download link out of the response
// page, then fetches the blob with the same cookie jar.
type GitingestFetcher struct {
	baseURL string
	client  *http.Client
}

// NewGitingestFetcher creates a fetcher against the given base URL. An
// empty baseURL selects DefaultBaseURL.
func NewGitingestFetcher(baseURL string) *GitingestFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// The download link is only valid for the session that submitted the
	// form, so responses must share one cookie jar.
	jar, _ := cookiejar.New(nil)

	return &GitingestFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Jar:     jar,
			Timeout: 60 * time.Second,
		},
	}
}

// Fetch returns the raw dump for the given repository identifier
// (e.g. "kubeflow/website").
func (f *GitingestFetcher) Fetch(ctx context.Context, repository string) (string, error) {
	if repository == "" {
		return "", fmt.Errorf("repository identifier cannot be empty")
	}

	downloadURL, err := f.resolveDownloadURL(ctx, repository)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download repository dump: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("dump download returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read repository dump: %w", err)
	}

	return string(body), nil
}

func (f *GitingestFetcher) resolveDownloadURL(ctx context.Context, repository string) (string, error) {
	form := url.Values{
		"input_text":    {repository},
		"max_file_size": {"243"},
		"pattern_type":  {"exclude"},
		"pattern":       {""},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create ingest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit ingest form: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ingest form returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse ingest response: %w", err)
	}

	var downloadHref string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(href, "download") {
			downloadHref = href
			return false
		}
		return true
	})

	if downloadHref == "" {
		return "", fmt.Errorf("no download link found for repository %s", repository)
	}

	return f.baseURL + downloadHref, nil
}
