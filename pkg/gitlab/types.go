package gitlab

import (
	"time"
)

// Version represents the /version response.
type Version struct {
	Version  string `json:"version"  yaml:"version"`
	Revision string `json:"revision" yaml:"revision"`
}

// TreeNode is a file or directory entry of a repository tree.
type TreeNode struct {
	ID   string `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
	// Type is "blob", "tree" or "commit" (submodule).
	Type string `json:"type" yaml:"type"`
	Path string `json:"path" yaml:"path"`
	Mode string `json:"mode" yaml:"mode"`
}

// Blob represents blob metadata with base64 encoded content.
type Blob struct {
	SHA      string `json:"sha"      yaml:"sha"`
	Size     int64  `json:"size"     yaml:"size"`
	Encoding string `json:"encoding" yaml:"encoding"`
	Content  string `json:"content"  yaml:"content"`
}

// Commit represents a repository commit.
type Commit struct {
	ID             string     `json:"id"                        yaml:"id"`
	ShortID        string     `json:"short_id"                  yaml:"short_id"`
	Title          string     `json:"title"                     yaml:"title"`
	Message        string     `json:"message"                   yaml:"message"`
	AuthorName     string     `json:"author_name"               yaml:"author_name"`
	AuthorEmail    string     `json:"author_email"              yaml:"author_email"`
	AuthoredDate   *time.Time `json:"authored_date,omitempty"   yaml:"authored_date,omitempty"`
	CommitterName  string     `json:"committer_name"            yaml:"committer_name"`
	CommitterEmail string     `json:"committer_email"           yaml:"committer_email"`
	CommittedDate  *time.Time `json:"committed_date,omitempty"  yaml:"committed_date,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"      yaml:"created_at,omitempty"`
	ParentIDs      []string   `json:"parent_ids"                yaml:"parent_ids"`
	WebURL         string     `json:"web_url,omitempty"         yaml:"web_url,omitempty"`
	Status         *string    `json:"status,omitempty"          yaml:"status,omitempty"`
	LastPipelineID *int       `json:"last_pipeline_id,omitempty" yaml:"last_pipeline_id,omitempty"`
}

// Diff is a single file change.
type Diff struct {
	OldPath     string `json:"old_path"     yaml:"old_path"`
	NewPath     string `json:"new_path"     yaml:"new_path"`
	AMode       string `json:"a_mode"       yaml:"a_mode"`
	BMode       string `json:"b_mode"       yaml:"b_mode"`
	Diff        string `json:"diff"         yaml:"diff"`
	NewFile     bool   `json:"new_file"     yaml:"new_file"`
	RenamedFile bool   `json:"renamed_file" yaml:"renamed_file"`
	DeletedFile bool   `json:"deleted_file" yaml:"deleted_file"`
}

// Compare is the result of comparing two refs.
type Compare struct {
	Commit         *Commit  `json:"commit"          yaml:"commit"`
	Commits        []Commit `json:"commits"         yaml:"commits"`
	Diffs          []Diff   `json:"diffs"           yaml:"diffs"`
	CompareTimeout bool     `json:"compare_timeout" yaml:"compare_timeout"`
	CompareSameRef bool     `json:"compare_same_ref" yaml:"compare_same_ref"`
	WebURL         string   `json:"web_url"         yaml:"web_url"`
}

// Contributor is a repository contributor with commit statistics.
type Contributor struct {
	Name      string `json:"name"      yaml:"name"`
	Email     string `json:"email"     yaml:"email"`
	Commits   int    `json:"commits"   yaml:"commits"`
	Additions int    `json:"additions" yaml:"additions"`
	Deletions int    `json:"deletions" yaml:"deletions"`
}

// ChangelogData is generated changelog text.
type ChangelogData struct {
	Notes string `json:"notes" yaml:"notes"`
}

// TreeOptions filters a repository tree listing.
type TreeOptions struct {
	ListOptions

	// Path inside the repository. Empty lists the root.
	Path string
	// Ref is a branch, tag or commit. Empty uses the default branch.
	Ref string
	// Recursive lists the whole subtree.
	Recursive bool
}

// CompareOptions tunes a compare call.
type CompareOptions struct {
	// Straight compares from..to directly instead of from the merge base.
	Straight *bool
	// FromProjectID compares against a fork.
	FromProjectID *int
}

// ContributorsOptions orders a contributors listing.
type ContributorsOptions struct {
	ListOptions

	// OrderBy is "name", "email" or "commits".
	OrderBy string
	// Sort is "asc" or "desc".
	Sort string
}

// Archive formats accepted by the archive endpoint.
const (
	ArchiveTarGz  = "tar.gz"
	ArchiveTarBz2 = "tar.bz2"
	ArchiveTbz    = "tbz"
	ArchiveTbz2   = "tbz2"
	ArchiveTb2    = "tb2"
	ArchiveBz2    = "bz2"
	ArchiveTar    = "tar"
	ArchiveZip    = "zip"
)

// ArchiveFormats lists the accepted archive formats.
func ArchiveFormats() []string {
	return []string{ArchiveTarGz, ArchiveTarBz2, ArchiveTbz, ArchiveTbz2, ArchiveTb2, ArchiveBz2, ArchiveTar, ArchiveZip}
}

// ArchiveOptions selects what to archive.
type ArchiveOptions struct {
	// SHA is the commit, branch or tag. Empty uses the default branch.
	SHA string
	// Format is appended to the path as ".<format>". Empty lets the server
	// pick tar.gz.
	Format string
	// Path restricts the archive to a subdirectory.
	Path string
}

// ChangelogOptions describes a changelog to generate.
type ChangelogOptions struct {
	// Version is required and must be a semantic version.
	Version    string
	From       string
	To         string
	Date       *time.Time
	Trailer    string
	ConfigFile string
}

// CreateChangelogOptions commits a generated changelog.
type CreateChangelogOptions struct {
	ChangelogOptions

	Branch  string
	File    string
	Message string
}

// UpdateSubmoduleOptions points a submodule at a new commit.
type UpdateSubmoduleOptions struct {
	Branch        string
	CommitSHA     string
	CommitMessage string
}
