package dto

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workforce-api/internal/utils"
)

// Page is the paginated list envelope. Next and Previous are absolute URLs.
type Page[T any] struct {
	Count       int64   `json:"count"`
	Next        *string `json:"next"`
	Previous    *string `json:"previous"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
	Results     []T     `json:"results"`
}

// NewPage wraps one page of results for the request in c.
func NewPage[T any](c *gin.Context, params utils.PaginationParams, count int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{
		Count:       count,
		TotalPages:  params.TotalPages(count),
		CurrentPage: params.Page,
		Results:     results,
	}
	if params.Page < page.TotalPages {
		next := pageURL(c.Request, params.Page+1)
		page.Next = &next
	}
	if params.Page > 1 {
		prev := pageURL(c.Request, params.Page-1)
		page.Previous = &prev
	}
	return page
}

// Map converts every element of in with fn.
func Map[S, T any](in []S, fn func(S) T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := r.URL.Query()
	if page == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: query.Encode()}
	return u.String()
}
