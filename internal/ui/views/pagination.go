package views

import (
	"net/url"
	"strconv"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
)

// Pagination is the pager rendered under list tables.
type Pagination struct {
	Current int
	Pages   int
	Total   int
	PrevURL string
	NextURL string
}

// Paginate builds pager links for a list page, carrying the current
// filters through in the query string.
func Paginate[T any](page api.Page[T], basePath string, params url.Values) Pagination {
	p := Pagination{
		Current: page.Page,
		Pages:   page.Pages,
		Total:   page.Total,
	}
	if p.Current > 1 {
		p.PrevURL = pageURL(basePath, params, p.Current-1)
	}
	if p.Current < p.Pages {
		p.NextURL = pageURL(basePath, params, p.Current+1)
	}
	return p
}

func pageURL(basePath string, params url.Values, page int) string {
	q := url.Values{}
	for key, vals := range params {
		for _, v := range vals {
			if v != "" {
				q.Add(key, v)
			}
		}
	}
	q.Set("page", strconv.Itoa(page))
	return basePath + "?" + q.Encode()
}
