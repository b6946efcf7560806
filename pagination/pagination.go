package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

// Request is a client request for one page, with an optional free-text search.
type Request struct {
	Page    int
	PerPage int
	Search  *string
}

// Normalize clamps the request to valid values for cfg.
func (r *Request) Normalize(cfg Config) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PerPage < 1 {
		r.PerPage = cfg.DefaultPerPage
	}
	if r.PerPage > cfg.MaxPerPage {
		r.PerPage = cfg.MaxPerPage
	}
	if r.Search != nil {
		s := strings.TrimSpace(*r.Search)
		if s == "" {
			r.Search = nil
		} else {
			r.Search = &s
		}
	}
}

// Offset is the number of rows to skip.
func (r Request) Offset() int {
	return (r.Page - 1) * r.PerPage
}

// RequestFromQuery reads page, per_page and search through query, which returns the
// decoded value of a query parameter or "". Unparseable numbers fall back to the
// configured defaults.
func RequestFromQuery(query func(key string) string, cfg Config) Request {
	page, _ := strconv.Atoi(strings.TrimSpace(query("page")))
	perPage, _ := strconv.Atoi(strings.TrimSpace(query("per_page")))

	var search *string
	if s := query("search"); s != "" {
		search = &s
	}

	req := Request{Page: page, PerPage: perPage, Search: search}
	req.Normalize(cfg)
	return req
}

type Links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

type Meta struct {
	CurrentPage int    `json:"current_page"`
	From        *int   `json:"from"`
	LastPage    int    `json:"last_page"`
	Path        string `json:"path"`
	PerPage     int    `json:"per_page"`
	To          *int   `json:"to"`
	Total       int64  `json:"total"`
}

// Page is the list envelope: the rows of one page plus navigation links and counts.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Links Links `json:"links"`
	Meta  Meta  `json:"meta"`
}

// LastPage is ceil(total/perPage), never less than 1.
func LastPage(total int64, perPage int) int {
	if perPage < 1 {
		return 1
	}
	last := int(total / int64(perPage))
	if total%int64(perPage) != 0 {
		last++
	}
	if last < 1 {
		last = 1
	}
	return last
}

// NewPage builds the envelope for data fetched with req. path is the absolute URL of the
// collection without a query string; links keep search and per_page.
func NewPage[T any](data []T, total int64, req Request, path string) Page[T] {
	if data == nil {
		data = []T{}
	}

	last := LastPage(total, req.PerPage)
	meta := Meta{
		CurrentPage: req.Page,
		LastPage:    last,
		Path:        path,
		PerPage:     req.PerPage,
		Total:       total,
	}
	if len(data) > 0 {
		from := req.Offset() + 1
		to := req.Offset() + len(data)
		meta.From = &from
		meta.To = &to
	}

	links := Links{
		First: pageURL(path, req, 1),
		Last:  pageURL(path, req, last),
	}
	if req.Page > 1 {
		prev := pageURL(path, req, min(req.Page-1, last))
		links.Prev = &prev
	}
	if req.Page < last {
		next := pageURL(path, req, req.Page+1)
		links.Next = &next
	}

	return Page[T]{Data: data, Links: links, Meta: meta}
}

func pageURL(path string, req Request, page int) string {
	q := url.Values{}
	if req.Search != nil {
		q.Set("search", *req.Search)
	}
	q.Set("per_page", strconv.Itoa(req.PerPage))
	q.Set("page", strconv.Itoa(page))
	return path + "?" + q.Encode()
}
