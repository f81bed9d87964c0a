package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/gitlab-client/internal/http"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// listFetcher fetches single pages of a list endpoint. params holds the
// endpoint filters; they are sent with every page except when following an
// absolute Link URL, which already carries them.
type listFetcher[T any] struct {
	httpClient *http.Client
	params     gitlab.QueryParams
	perPage    int
}

func newListFetcher[T any](httpClient *http.Client, params gitlab.QueryParams, perPage int) *listFetcher[T] {
	return &listFetcher[T]{
		httpClient: httpClient,
		params:     params,
		perPage:    perPage,
	}
}

// FetchPage implements gitlab.PageFetcher.
func (f *listFetcher[T]) FetchPage(ctx context.Context, path string, opts *gitlab.ListOptions) (*gitlab.ListResponse[T], error) {
	var query url.Values

	if opts != nil {
		pageOpts := *opts
		if pageOpts.PerPage == 0 {
			pageOpts.PerPage = f.perPage
		}

		query = pageOpts.Apply(gitlab.NewQueryParams().Merge(f.params)).ToValues()
	}

	resp, err := f.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	var items []T

	err = resp.Decode(&items)
	if err != nil {
		return nil, err
	}

	return &gitlab.ListResponse[T]{
		Pagination: resp.Pagination,
		Items:      items,
	}, nil
}

// listItems applies the list policy shared by every list method: All
// fetches every page, Page fetches exactly that page, and neither returns
// the first page with a warning when the server reports more.
func listItems[T any](ctx context.Context, fetcher *listFetcher[T], logger gitlab.Logger, path string, opts *gitlab.ListOptions) ([]T, error) {
	var listOpts gitlab.ListOptions
	if opts != nil {
		listOpts = *opts
	}

	if listOpts.All {
		items, err := gitlab.FetchAllPages[T](ctx, fetcher, path, &listOpts)
		if err != nil {
			return nil, err
		}

		return items, nil
	}

	page, err := fetcher.FetchPage(ctx, path, &listOpts)
	if err != nil {
		return nil, err
	}

	items := page.Items
	if items == nil {
		items = []T{}
	}

	if listOpts.Page == 0 && hasMorePages(page.Pagination, len(items)) {
		logger.Warn("Calling a list method without setting all or page returns only the first page; results may be truncated", map[string]interface{}{
			"path":     path,
			"returned": len(items),
			"total":    page.Pagination.Total,
		})
	}

	return items, nil
}

func hasMorePages(p gitlab.Pagination, count int) bool {
	if p.NextURL != "" || p.NextPage > 0 {
		return true
	}

	return p.TotalKnown && p.Total > count
}

// projectPath returns the escaped "/projects/:id" prefix for pid.
func projectPath(pid any) (string, error) {
	switch id := pid.(type) {
	case int:
		return fmt.Sprintf("/projects/%d", id), nil
	case int64:
		return fmt.Sprintf("/projects/%d", id), nil
	case string:
		if id == "" {
			return "", gitlab.ErrProjectIDRequired
		}

		return "/projects/" + url.PathEscape(id), nil
	case nil:
		return "", gitlab.ErrProjectIDRequired
	default:
		return "", fmt.Errorf("%w: %T", gitlab.ErrInvalidProjectID, pid)
	}
}
