// Package pagination implements page/limit list pagination with
// {count, next, previous, results} bodies.
package pagination

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/config"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

const (
	pageParam  = "page"
	limitParam = "limit"
)

// Paginator reads page parameters and builds page links.
type Paginator struct {
	DefaultLimit int
	MaxLimit     int
	// BaseURL overrides the scheme and host of generated links.
	BaseURL string
}

// New creates a Paginator from configuration.
func New(cfg config.PaginationConfig, baseURL string) Paginator {
	p := Paginator{DefaultLimit: cfg.DefaultLimit, MaxLimit: cfg.MaxLimit, BaseURL: strings.TrimRight(baseURL, "/")}
	if p.DefaultLimit <= 0 {
		p.DefaultLimit = 6
	}
	if p.MaxLimit < p.DefaultLimit {
		p.MaxLimit = p.DefaultLimit
	}
	return p
}

// Params is a parsed page request.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of rows before the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Apply adds OFFSET and LIMIT to q.
func (p Params) Apply(q *gorm.DB) *gorm.DB {
	return q.Offset(p.Offset()).Limit(p.Limit)
}

// Parse reads page and limit from the query string. A malformed page is a
// validation error, as is a page whose offset would not fit in an int; a
// malformed limit falls back to the default, and a limit above the maximum
// is capped.
func (pg Paginator) Parse(c *gin.Context) (Params, error) {
	params := Params{Page: 1, Limit: pg.DefaultLimit}

	if raw := c.Query(pageParam); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, validation.Single(pageParam, "A valid positive integer is required.")
		}
		if page > pg.maxPage() {
			return params, validation.Single(pageParam, "Invalid page.")
		}
		params.Page = page
	}

	if raw := c.Query(limitParam); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			params.Limit = limit
		}
	}
	if params.Limit > pg.MaxLimit {
		params.Limit = pg.MaxLimit
	}
	return params, nil
}

// maxPage is the largest page whose row window fits in an int.
func (pg Paginator) maxPage() int {
	if pg.MaxLimit <= 0 {
		return math.MaxInt
	}
	return math.MaxInt / pg.MaxLimit
}

// Page is the paginated response body.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage builds the body for results fetched with params out of count rows.
func NewPage[T any](pg Paginator, c *gin.Context, params Params, count int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: count, Results: results}

	if int64(params.Page*params.Limit) < count {
		next := pg.link(c, params.Page+1)
		page.Next = &next
	}
	if params.Page > 1 {
		prevPage := params.Page - 1
		if lastPage := lastPage(count, params.Limit); prevPage > lastPage {
			prevPage = lastPage
		}
		prev := pg.link(c, prevPage)
		page.Previous = &prev
	}
	return page
}

func lastPage(count int64, limit int) int {
	if count == 0 {
		return 1
	}
	return int((count + int64(limit) - 1) / int64(limit))
}

// link rebuilds the request URL with page set. Page 1 drops the parameter.
func (pg Paginator) link(c *gin.Context, page int) string {
	query := url.Values{}
	for key, values := range c.Request.URL.Query() {
		query[key] = values
	}
	if page <= 1 {
		query.Del(pageParam)
	} else {
		query.Set(pageParam, strconv.Itoa(page))
	}

	base := pg.BaseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + c.Request.Host
	}

	link := base + c.Request.URL.Path
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return link
}
