package gitlab

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
)

// Pagination is the pagination state a list response declares in its
// headers. Fields whose header was absent are zero.
type Pagination struct {
	Page       int
	PerPage    int
	NextPage   int
	PrevPage   int
	Total      int
	TotalPages int
	// TotalKnown is set when X-Total was present. GitLab omits it for
	// large collections.
	TotalKnown bool
	// NextPageKnown is set when X-Next-Page was present, even if empty.
	NextPageKnown bool
	// NextURL is the rel="next" target of the Link header.
	NextURL string
}

// ParsePagination reads the GitLab pagination headers.
func ParsePagination(header http.Header) Pagination {
	var p Pagination

	p.Page, _ = headerInt(header, constants.HeaderPage)
	p.PerPage, _ = headerInt(header, constants.HeaderPerPage)
	p.PrevPage, _ = headerInt(header, constants.HeaderPrevPage)
	p.TotalPages, _ = headerInt(header, constants.HeaderTotalPages)
	p.Total, p.TotalKnown = headerInt(header, constants.HeaderTotal)

	if _, ok := header[http.CanonicalHeaderKey(constants.HeaderNextPage)]; ok {
		p.NextPageKnown = true
		p.NextPage, _ = headerInt(header, constants.HeaderNextPage)
	}

	p.NextURL = parseLinkNext(header.Get(constants.HeaderLink))

	return p
}

func headerInt(header http.Header, key string) (int, bool) {
	value := strings.TrimSpace(header.Get(key))
	if value == "" {
		return 0, false
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}

	return n, true
}

// parseLinkNext extracts the URL with rel="next" from an RFC 5988 Link
// header.
//
// Format: <https://gitlab.example.com/api/v4/...?page=2>; rel="next", <...>; rel="last"
func parseLinkNext(header string) string {
	if header == "" {
		return ""
	}

	for _, part := range strings.Split(header, ",") {
		segments := strings.SplitN(strings.TrimSpace(part), ";", 2)
		if len(segments) != 2 {
			continue
		}

		urlPart := strings.TrimSpace(segments[0])
		relPart := strings.TrimSpace(segments[1])

		if !strings.Contains(relPart, `rel="next"`) {
			continue
		}

		if strings.HasPrefix(urlPart, "<") && strings.HasSuffix(urlPart, ">") {
			return urlPart[1 : len(urlPart)-1]
		}
	}

	return ""
}

// ListResponse is one page of a list endpoint.
type ListResponse[T any] struct {
	Pagination Pagination
	Items      []T
}

// PageFetcher fetches one page. path is either the endpoint path, with opts
// carrying the page to request, or an absolute next-page URL taken from a
// Link header, in which case opts is nil and the URL is used as is.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, path string, opts *ListOptions) (*ListResponse[T], error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, path string, opts *ListOptions) (*ListResponse[T], error)

// FetchPage calls f.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, path string, opts *ListOptions) (*ListResponse[T], error) {
	return f(ctx, path, opts)
}

// ListCursor iterates over a paginated collection, fetching one page each
// time the buffered items run out.
//
// The cursor is not safe for concurrent use.
type ListCursor[T any] struct {
	ctx     context.Context //nolint:containedctx // cursor methods mirror an iterator API
	fetcher PageFetcher[T]
	path    string
	opts    ListOptions

	buffer  []T
	index   int
	started bool
	done    bool
	err     error

	page       int
	nextPath   string
	nextOpts   *ListOptions
	fetched    int
	total      int
	totalKnown bool
	// linked is set once a page carried a rel="next" Link.
	linked bool
}

// NewListCursor creates a cursor. No request is made until the first call
// to HasNext, Next, Len or All.
func NewListCursor[T any](ctx context.Context, fetcher PageFetcher[T], path string, opts *ListOptions) *ListCursor[T] {
	cursor := &ListCursor[T]{
		ctx:     ctx,
		fetcher: fetcher,
		path:    path,
	}

	if opts != nil {
		cursor.opts = *opts
	}

	return cursor
}

// HasNext reports whether Next will return an item or a fetch error.
func (c *ListCursor[T]) HasNext() bool {
	if c.index < len(c.buffer) || c.err != nil {
		return true
	}

	if c.done {
		return false
	}

	err := c.fetch()
	if err != nil {
		c.err = err

		return true
	}

	return c.index < len(c.buffer)
}

// Next returns the next item. It returns ErrNoMoreItems once the collection
// is exhausted. A fetch error ends the iteration.
func (c *ListCursor[T]) Next() (T, error) {
	var zero T

	if !c.HasNext() {
		return zero, ErrNoMoreItems
	}

	if c.err != nil {
		err := c.err
		c.err = nil
		c.done = true
		c.buffer = nil
		c.index = 0

		return zero, err
	}

	item := c.buffer[c.index]
	c.index++

	return item, nil
}

// ForEach calls fn for every remaining item, stopping at the first error.
func (c *ListCursor[T]) ForEach(fn func(T) error) error {
	for c.HasNext() {
		item, err := c.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

// All drains the cursor and returns the remaining items in server order.
func (c *ListCursor[T]) All() ([]T, error) {
	items := make([]T, 0, len(c.buffer)-c.index)

	err := c.ForEach(func(item T) error {
		items = append(items, item)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// Len returns the total number of items in the collection. The server
// declared total is used when present; otherwise the count is exact once
// the cursor is exhausted and ErrTotalUnknown before that.
func (c *ListCursor[T]) Len() (int, error) {
	if !c.started && !c.done {
		err := c.fetch()
		if err != nil {
			return 0, err
		}
	}

	if c.totalKnown {
		return c.total, nil
	}

	if c.done && c.err == nil {
		return c.fetched, nil
	}

	return 0, ErrTotalUnknown
}

// Reset discards all state. The next call starts again from the first page.
func (c *ListCursor[T]) Reset() {
	c.buffer = nil
	c.index = 0
	c.started = false
	c.done = false
	c.err = nil
	c.page = 0
	c.nextPath = ""
	c.nextOpts = nil
	c.fetched = 0
	c.total = 0
	c.totalKnown = false
	c.linked = false
}

// Page returns the number of the last fetched page.
func (c *ListCursor[T]) Page() int {
	return c.page
}

func (c *ListCursor[T]) fetch() error {
	path, opts := c.path, &c.opts
	requested := c.opts.Page

	if c.started {
		path, opts = c.nextPath, c.nextOpts
		requested = 0

		if opts != nil {
			requested = opts.Page
		}
	}

	var reqOpts *ListOptions
	if opts != nil {
		copied := *opts
		reqOpts = &copied
	}

	resp, err := c.fetcher.FetchPage(c.ctx, path, reqOpts)
	if err != nil {
		return err
	}

	c.started = true
	c.buffer = resp.Items
	c.index = 0
	c.fetched += len(resp.Items)

	p := resp.Pagination

	switch {
	case p.Page > 0:
		c.page = p.Page
	case requested > 0:
		c.page = requested
	default:
		c.page++
	}

	if p.TotalKnown {
		c.total = p.Total
		c.totalKnown = true
	}

	if c.lastPage(p, len(resp.Items)) {
		c.done = true

		return nil
	}

	if p.NextURL != "" {
		c.linked = true
		c.nextPath = p.NextURL
		c.nextOpts = nil

		return nil
	}

	next := c.page + 1
	if p.NextPage > 0 {
		next = p.NextPage
	}

	c.nextPath = c.path
	c.nextOpts = &ListOptions{Page: next, PerPage: c.opts.PerPage}

	return nil
}

func (c *ListCursor[T]) lastPage(p Pagination, count int) bool {
	if c.opts.Page > 0 || count == 0 {
		return true
	}

	if c.totalKnown && c.fetched >= c.total {
		return true
	}

	perPage := p.PerPage
	if perPage == 0 {
		perPage = c.opts.PerPage
	}

	if perPage > 0 && count < perPage {
		return true
	}

	if p.NextURL == "" && (c.linked || (p.NextPageKnown && p.NextPage == 0)) {
		return true
	}

	return p.TotalPages > 0 && c.page >= p.TotalPages
}

// FetchAllPages returns every item of a paginated collection in server order.
func FetchAllPages[T any](ctx context.Context, fetcher PageFetcher[T], path string, opts *ListOptions) ([]T, error) {
	return NewListCursor(ctx, fetcher, path, opts).All()
}
