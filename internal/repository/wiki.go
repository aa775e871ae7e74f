package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DataHenHQ/useragent"
)

// REQUEST_TIMEOUT bounds every single wiki call. No retries here; transport
// policy beyond the timeout belongs to the caller.
const REQUEST_TIMEOUT = 30 * time.Second

// WikiRepository defines the contract for fetching wiki data.
// This is the interface you would mock for testing.
type WikiRepository interface {
	// FetchPage returns the rendered HTML of a named page.
	FetchPage(ctx context.Context, title string) (io.Reader, error)
	// QueryCategories looks up the categories of the given page titles in a
	// single request. Titles missing from the result map do not exist.
	QueryCategories(ctx context.Context, titles []string) (map[string][]string, error)
}

// apiWikiRepository fetches parsed page content through the MediaWiki API,
// which avoids the basic bot blocks on the rendered site.
type apiWikiRepository struct {
	APIURL string
	Client *http.Client
}

// NewAPIWikiRepository creates and returns a new repository instance.
func NewAPIWikiRepository(apiURL string) WikiRepository {
	return &apiWikiRepository{
		APIURL: apiURL,
		Client: &http.Client{Timeout: REQUEST_TIMEOUT},
	}
}

// --- MediaWiki API response shapes (format=json) ---

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type parseResponse struct {
	Parse struct {
		Title string `json:"title"`
		Text  struct {
			Content string `json:"*"`
		} `json:"text"`
	} `json:"parse"`
	Error *apiError `json:"error"`
}

type categoriesResponse struct {
	Query struct {
		Normalized []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"normalized"`
		Pages map[string]struct {
			Title      string  `json:"title"`
			Missing    *string `json:"missing"`
			Categories []struct {
				Title string `json:"title"`
			} `json:"categories"`
		} `json:"pages"`
	} `json:"query"`
}

func (r *apiWikiRepository) FetchPage(ctx context.Context, title string) (io.Reader, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", title)
	params.Set("prop", "text")
	params.Set("format", "json")
	params.Set("redirects", "1")

	var parsed parseResponse
	if err := r.get(ctx, params, &parsed); err != nil {
		return nil, fmt.Errorf("could not fetch page '%s': %w", title, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("wiki API error for '%s': %s", title, parsed.Error.Info)
	}
	return strings.NewReader(parsed.Parse.Text.Content), nil
}

func (r *apiWikiRepository) QueryCategories(ctx context.Context, titles []string) (map[string][]string, error) {
	if len(titles) == 0 {
		return map[string][]string{}, nil
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", strings.Join(titles, "|"))
	params.Set("prop", "categories")
	params.Set("cllimit", "max")
	params.Set("format", "json")

	var resp categoriesResponse
	if err := r.get(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("category lookup failed: %w", err)
	}

	// The API normalizes titles (underscores become spaces); map the
	// responses back to the names the caller asked about.
	denormalize := make(map[string]string, len(resp.Query.Normalized))
	for _, n := range resp.Query.Normalized {
		denormalize[n.To] = n.From
	}

	result := make(map[string][]string)
	for _, page := range resp.Query.Pages {
		if page.Missing != nil {
			continue
		}
		name := page.Title
		if from, ok := denormalize[name]; ok {
			name = from
		}
		categories := make([]string, 0, len(page.Categories))
		for _, c := range page.Categories {
			categories = append(categories, c.Title)
		}
		result[name] = categories
	}
	return result, nil
}

// get issues one API request and decodes the JSON body into out.
func (r *apiWikiRepository) get(ctx context.Context, params url.Values, out any) error {
	ua, err := useragent.Desktop()
	if err != nil {
		return fmt.Errorf("could not generate random UA: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from wiki API", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed API response: %w", err)
	}
	return nil
}
