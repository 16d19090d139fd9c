// Open Library catalog client
//
// Response types based on https://openlibrary.org/dev/docs/api/authors
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultCatalogURL  = "https://openlibrary.org"
	defaultCoversURL   = "https://covers.openlibrary.org"
	defaultSearchLimit = 8
)

// OpenLibrarySearchDoc is one hit of /search/authors.json.
type OpenLibrarySearchDoc struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	DeathDate string `json:"death_date"`
	TopWork   string `json:"top_work"`
	WorkCount int    `json:"work_count"`
}

// OpenLibrarySearch is the body of /search/authors.json.
type OpenLibrarySearch struct {
	NumFound int                    `json:"numFound"`
	Start    int                    `json:"start"`
	Docs     []OpenLibrarySearchDoc `json:"docs"`
}

// OpenLibraryAuthor is the body of /authors/{id}.json.
type OpenLibraryAuthor struct {
	Key       string          `json:"key"`
	Name      string          `json:"name"`
	BirthDate string          `json:"birth_date"`
	DeathDate string          `json:"death_date"`
	TopWork   string          `json:"top_work"`
	Bio       json.RawMessage `json:"bio"`
	Photos    []int           `json:"photos"`
}

// CatalogService reads author metadata from Open Library.
type CatalogService struct {
	api         *APIService
	coversURL   string
	searchLimit int
	limiter     *rate.Limiter
	logger      *log.Logger
}

// CatalogOptions configures a [CatalogService].
type CatalogOptions struct {
	BaseURL     string
	CoversURL   string
	SearchLimit int
	// RateLimit is requests per second; zero or less means unlimited.
	RateLimit  float64
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewCatalogService creates a [CatalogService], filling unset options with Open Library defaults.
func NewCatalogService(opts CatalogOptions) *CatalogService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultCatalogURL
	}
	if opts.CoversURL == "" {
		opts.CoversURL = defaultCoversURL
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaultSearchLimit
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &CatalogService{
		api:         NewAPIService(opts.BaseURL, opts.HTTPClient),
		coversURL:   strings.TrimRight(opts.CoversURL, "/"),
		searchLimit: opts.SearchLimit,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      shared.WithLogger(opts.Logger, "component", "catalog"),
	}
}

// CoversURL returns the image host used to build favorite image URLs.
func (c *CatalogService) CoversURL() string {
	return c.coversURL
}

// SearchLimit returns the page size used by [CatalogService.SearchAuthors].
func (c *CatalogService) SearchLimit() int {
	return c.searchLimit
}

func (c *CatalogService) get(ctx context.Context, path string, result any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	resp, err := c.api.Get(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return resp.StatusCode, fmt.Errorf("%w: open library status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	if err := resp.Decode(result); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return resp.StatusCode, nil
}

// SearchAuthors returns one page of authors matching query. Pages start at 1.
func (c *CatalogService) SearchAuthors(ctx context.Context, query string, page int) (*models.AuthorSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(c.searchLimit))

	var body OpenLibrarySearch
	if _, err := c.get(ctx, "/search/authors.json?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	result := &models.AuthorSearchResult{NumFound: body.NumFound, Page: page}
	for _, doc := range body.Docs {
		result.Authors = append(result.Authors, models.Author{
			ID:        models.AuthorIDFromKey(doc.Key),
			Name:      doc.Name,
			BirthDate: doc.BirthDate,
			DeathDate: doc.DeathDate,
			TopWork:   doc.TopWork,
			WorkCount: doc.WorkCount,
		})
	}

	c.logger.Debug("search", "query", query, "page", page, "found", body.NumFound)
	return result, nil
}

// Author returns the catalog record for id, which may be a bare id or an /authors/ key.
func (c *CatalogService) Author(ctx context.Context, id string) (*models.Author, error) {
	id = models.AuthorIDFromKey(id)
	if id == "" {
		return nil, fmt.Errorf("%w: author id is empty", shared.ErrInvalidInput)
	}

	var body OpenLibraryAuthor
	status, err := c.get(ctx, "/authors/"+url.PathEscape(id)+".json", &body)
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthorNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return &models.Author{
		ID:        id,
		Name:      body.Name,
		BirthDate: body.BirthDate,
		DeathDate: body.DeathDate,
		TopWork:   body.TopWork,
		Bio:       parseBio(body.Bio),
		Photos:    body.Photos,
	}, nil
}

// parseBio handles both the plain string and the {"type", "value"} forms.
func parseBio(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &typed); err == nil {
		return typed.Value
	}
	return ""
}
