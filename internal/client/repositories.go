package client

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/blang/semver"

	"github.com/fivetwenty-io/gitlab-client/internal/http"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// RepositoriesClient implements gitlab.RepositoriesClient.
type RepositoriesClient struct {
	httpClient *http.Client
	perPage    int
}

// NewRepositoriesClient creates a new repositories client. perPage is the
// page size used by list calls that do not set one; zero leaves it to the
// server.
func NewRepositoriesClient(httpClient *http.Client, perPage int) *RepositoriesClient {
	return &RepositoriesClient{
		httpClient: httpClient,
		perPage:    perPage,
	}
}

func repositoryPath(pid any, suffix string) (string, error) {
	path, err := projectPath(pid)
	if err != nil {
		return "", err
	}

	return path + "/repository" + suffix, nil
}

// Tree implements gitlab.RepositoriesClient.Tree.
func (c *RepositoriesClient) Tree(ctx context.Context, pid any, opts *gitlab.TreeOptions) ([]gitlab.TreeNode, error) {
	path, fetcher, listOpts, err := c.treeFetcher(pid, opts)
	if err != nil {
		return nil, fmt.Errorf("listing tree: %w", err)
	}

	nodes, err := listItems[gitlab.TreeNode](ctx, fetcher, c.httpClient.Logger(), path, listOpts)
	if err != nil {
		return nil, fmt.Errorf("listing tree: %w", err)
	}

	return nodes, nil
}

// TreeCursor implements gitlab.RepositoriesClient.TreeCursor.
func (c *RepositoriesClient) TreeCursor(ctx context.Context, pid any, opts *gitlab.TreeOptions) (*gitlab.ListCursor[gitlab.TreeNode], error) {
	path, fetcher, listOpts, err := c.treeFetcher(pid, opts)
	if err != nil {
		return nil, fmt.Errorf("listing tree: %w", err)
	}

	return gitlab.NewListCursor[gitlab.TreeNode](ctx, fetcher, path, listOpts), nil
}

func (c *RepositoriesClient) treeFetcher(pid any, opts *gitlab.TreeOptions) (string, *listFetcher[gitlab.TreeNode], *gitlab.ListOptions, error) {
	path, err := repositoryPath(pid, "/tree")
	if err != nil {
		return "", nil, nil, err
	}

	if opts == nil {
		opts = &gitlab.TreeOptions{}
	}

	params := gitlab.NewQueryParams().
		SetIfNotEmpty("path", opts.Path).
		SetIfNotEmpty("ref", opts.Ref).
		SetIfTrue("recursive", opts.Recursive)

	return path, newListFetcher[gitlab.TreeNode](c.httpClient, params, c.perPage), &opts.ListOptions, nil
}

// Blob implements gitlab.RepositoriesClient.Blob.
func (c *RepositoriesClient) Blob(ctx context.Context, pid any, sha string) (*gitlab.Blob, error) {
	path, err := blobPath(pid, sha)
	if err != nil {
		return nil, fmt.Errorf("getting blob: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting blob: %w", err)
	}

	var blob gitlab.Blob

	err = resp.Decode(&blob)
	if err != nil {
		return nil, fmt.Errorf("parsing blob: %w", err)
	}

	return &blob, nil
}

// RawBlob implements gitlab.RepositoriesClient.RawBlob.
func (c *RepositoriesClient) RawBlob(ctx context.Context, pid any, sha string, mode gitlab.ResponseMode) ([]byte, error) {
	path, err := blobPath(pid, sha)
	if err != nil {
		return nil, fmt.Errorf("getting raw blob: %w", err)
	}

	content, err := c.download(ctx, path+"/raw", nil, mode)
	if err != nil {
		return nil, fmt.Errorf("getting raw blob: %w", err)
	}

	return content, nil
}

func blobPath(pid any, sha string) (string, error) {
	if sha == "" {
		return "", gitlab.ErrSHARequired
	}

	return repositoryPath(pid, "/blobs/"+url.PathEscape(sha))
}

// download fetches a binary body. A parsed mode is treated as raw; with a
// streamed mode the body goes to the sink and nil is returned.
func (c *RepositoriesClient) download(ctx context.Context, path string, query url.Values, mode gitlab.ResponseMode) ([]byte, error) {
	mode = mode.Binary()

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Path:  path,
		Query: query,
		Mode:  mode,
	})
	if err != nil {
		return nil, err
	}

	if mode.IsStreamed() {
		return nil, nil
	}

	return resp.Body, nil
}

// Compare implements gitlab.RepositoriesClient.Compare.
func (c *RepositoriesClient) Compare(ctx context.Context, pid any, from, to string, opts *gitlab.CompareOptions) (*gitlab.Compare, error) {
	path, err := repositoryPath(pid, "/compare")
	if err != nil {
		return nil, fmt.Errorf("comparing refs: %w", err)
	}

	params := gitlab.NewQueryParams().
		Set("from", from).
		Set("to", to)

	if opts != nil {
		if opts.Straight != nil {
			params.Set("straight", *opts.Straight)
		}

		if opts.FromProjectID != nil {
			params.Set("from_project_id", *opts.FromProjectID)
		}
	}

	resp, err := c.httpClient.Get(ctx, path, params.ToValues())
	if err != nil {
		return nil, fmt.Errorf("comparing refs: %w", err)
	}

	var compare gitlab.Compare

	err = resp.Decode(&compare)
	if err != nil {
		return nil, fmt.Errorf("parsing compare result: %w", err)
	}

	return &compare, nil
}

// Contributors implements gitlab.RepositoriesClient.Contributors.
func (c *RepositoriesClient) Contributors(ctx context.Context, pid any, opts *gitlab.ContributorsOptions) ([]gitlab.Contributor, error) {
	path, fetcher, listOpts, err := c.contributorsFetcher(pid, opts)
	if err != nil {
		return nil, fmt.Errorf("listing contributors: %w", err)
	}

	contributors, err := listItems[gitlab.Contributor](ctx, fetcher, c.httpClient.Logger(), path, listOpts)
	if err != nil {
		return nil, fmt.Errorf("listing contributors: %w", err)
	}

	return contributors, nil
}

// ContributorsCursor implements gitlab.RepositoriesClient.ContributorsCursor.
func (c *RepositoriesClient) ContributorsCursor(ctx context.Context, pid any, opts *gitlab.ContributorsOptions) (*gitlab.ListCursor[gitlab.Contributor], error) {
	path, fetcher, listOpts, err := c.contributorsFetcher(pid, opts)
	if err != nil {
		return nil, fmt.Errorf("listing contributors: %w", err)
	}

	return gitlab.NewListCursor[gitlab.Contributor](ctx, fetcher, path, listOpts), nil
}

func (c *RepositoriesClient) contributorsFetcher(pid any, opts *gitlab.ContributorsOptions) (string, *listFetcher[gitlab.Contributor], *gitlab.ListOptions, error) {
	path, err := repositoryPath(pid, "/contributors")
	if err != nil {
		return "", nil, nil, err
	}

	if opts == nil {
		opts = &gitlab.ContributorsOptions{}
	}

	params := gitlab.NewQueryParams().
		SetIfNotEmpty("order_by", opts.OrderBy).
		SetIfNotEmpty("sort", opts.Sort)

	return path, newListFetcher[gitlab.Contributor](c.httpClient, params, c.perPage), &opts.ListOptions, nil
}

// Archive implements gitlab.RepositoriesClient.Archive.
func (c *RepositoriesClient) Archive(ctx context.Context, pid any, opts *gitlab.ArchiveOptions, mode gitlab.ResponseMode) ([]byte, error) {
	if opts == nil {
		opts = &gitlab.ArchiveOptions{}
	}

	suffix := "/archive"

	if opts.Format != "" {
		if !slices.Contains(gitlab.ArchiveFormats(), opts.Format) {
			return nil, fmt.Errorf("getting archive: %w: %q", gitlab.ErrInvalidArchiveFormat, opts.Format)
		}

		suffix += "." + opts.Format
	}

	path, err := repositoryPath(pid, suffix)
	if err != nil {
		return nil, fmt.Errorf("getting archive: %w", err)
	}

	params := gitlab.NewQueryParams().
		SetIfNotEmpty("sha", opts.SHA).
		SetIfNotEmpty("path", opts.Path)

	content, err := c.download(ctx, path, params.ToValues(), mode)
	if err != nil {
		return nil, fmt.Errorf("getting archive: %w", err)
	}

	return content, nil
}

// MergeBase implements gitlab.RepositoriesClient.MergeBase.
func (c *RepositoriesClient) MergeBase(ctx context.Context, pid any, refs []string) (*gitlab.Commit, error) {
	if len(refs) < 2 {
		return nil, fmt.Errorf("getting merge base: %w", gitlab.ErrRefsRequired)
	}

	path, err := repositoryPath(pid, "/merge_base")
	if err != nil {
		return nil, fmt.Errorf("getting merge base: %w", err)
	}

	array := make(gitlab.Array, 0, len(refs))
	for _, ref := range refs {
		array = append(array, ref)
	}

	resp, err := c.httpClient.Get(ctx, path, gitlab.NewQueryParams().Set("refs", array).ToValues())
	if err != nil {
		return nil, fmt.Errorf("getting merge base: %w", err)
	}

	var commit gitlab.Commit

	err = resp.Decode(&commit)
	if err != nil {
		return nil, fmt.Errorf("parsing merge base: %w", err)
	}

	return &commit, nil
}

// DeleteMergedBranches implements gitlab.RepositoriesClient.DeleteMergedBranches.
func (c *RepositoriesClient) DeleteMergedBranches(ctx context.Context, pid any) error {
	path, err := repositoryPath(pid, "/merged_branches")
	if err != nil {
		return fmt.Errorf("deleting merged branches: %w", err)
	}

	_, err = c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting merged branches: %w", err)
	}

	return nil
}

// Changelog implements gitlab.RepositoriesClient.Changelog.
func (c *RepositoriesClient) Changelog(ctx context.Context, pid any, opts *gitlab.ChangelogOptions) (*gitlab.ChangelogData, error) {
	path, err := changelogPath(pid, opts)
	if err != nil {
		return nil, fmt.Errorf("getting changelog: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, path, changelogParams(opts).ToValues())
	if err != nil {
		return nil, fmt.Errorf("getting changelog: %w", err)
	}

	var data gitlab.ChangelogData

	err = resp.Decode(&data)
	if err != nil {
		return nil, fmt.Errorf("parsing changelog: %w", err)
	}

	return &data, nil
}

// CreateChangelog implements gitlab.RepositoriesClient.CreateChangelog.
func (c *RepositoriesClient) CreateChangelog(ctx context.Context, pid any, opts *gitlab.CreateChangelogOptions) error {
	var base *gitlab.ChangelogOptions
	if opts != nil {
		base = &opts.ChangelogOptions
	}

	path, err := changelogPath(pid, base)
	if err != nil {
		return fmt.Errorf("creating changelog: %w", err)
	}

	body := changelogParams(base).
		SetIfNotEmpty("branch", opts.Branch).
		SetIfNotEmpty("file", opts.File).
		SetIfNotEmpty("message", opts.Message)

	_, err = c.httpClient.Post(ctx, path, body)
	if err != nil {
		return fmt.Errorf("creating changelog: %w", err)
	}

	return nil
}

func changelogPath(pid any, opts *gitlab.ChangelogOptions) (string, error) {
	if opts == nil || opts.Version == "" {
		return "", gitlab.ErrVersionRequired
	}

	err := validateVersion(opts.Version)
	if err != nil {
		return "", err
	}

	return repositoryPath(pid, "/changelog")
}

func changelogParams(opts *gitlab.ChangelogOptions) gitlab.QueryParams {
	params := gitlab.NewQueryParams().
		Set("version", opts.Version).
		SetIfNotEmpty("from", opts.From).
		SetIfNotEmpty("to", opts.To).
		SetIfNotEmpty("trailer", opts.Trailer).
		SetIfNotEmpty("config_file", opts.ConfigFile)

	if opts.Date != nil {
		params.Set("date", opts.Date.UTC())
	}

	return params
}

// validateVersion accepts semantic versions with an optional leading "v".
func validateVersion(version string) error {
	_, err := semver.Parse(strings.TrimPrefix(version, "v"))
	if err != nil {
		return fmt.Errorf("%w: %q: %w", gitlab.ErrInvalidVersion, version, err)
	}

	return nil
}

// UpdateSubmodule implements gitlab.RepositoriesClient.UpdateSubmodule.
func (c *RepositoriesClient) UpdateSubmodule(ctx context.Context, pid any, submodule string, opts *gitlab.UpdateSubmoduleOptions) (*gitlab.Commit, error) {
	if submodule == "" {
		return nil, fmt.Errorf("updating submodule: %w", gitlab.ErrSubmoduleRequired)
	}

	if opts == nil || opts.Branch == "" {
		return nil, fmt.Errorf("updating submodule: %w", gitlab.ErrBranchRequired)
	}

	if opts.CommitSHA == "" {
		return nil, fmt.Errorf("updating submodule: %w", gitlab.ErrCommitSHARequired)
	}

	path, err := repositoryPath(pid, "/submodules/"+url.PathEscape(submodule))
	if err != nil {
		return nil, fmt.Errorf("updating submodule: %w", err)
	}

	body := gitlab.NewQueryParams().
		Set("branch", opts.Branch).
		Set("commit_sha", opts.CommitSHA).
		SetIfNotEmpty("commit_message", opts.CommitMessage)

	resp, err := c.httpClient.Put(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("updating submodule: %w", err)
	}

	var commit gitlab.Commit

	err = resp.Decode(&commit)
	if err != nil {
		return nil, fmt.Errorf("parsing submodule commit: %w", err)
	}

	return &commit, nil
}
