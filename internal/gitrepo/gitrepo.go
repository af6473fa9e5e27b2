// Package gitrepo wraps the go-git plumbing the sync engine needs: the
// current HEAD, file-level diffs between two commits, and the origin
// remote's repository name.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"
)

// ErrNotRepository is returned by Open when the path is not inside a git
// repository. Sync mode treats this as fatal and falls back to full
// analysis without a commit identity.
var ErrNotRepository = errors.New("not a git repository")

// ChangeStatus classifies one entry of a file-level diff.
type ChangeStatus string

const (
	StatusAdded    ChangeStatus = "added"
	StatusModified ChangeStatus = "modified"
	StatusDeleted  ChangeStatus = "deleted"
	StatusRenamed  ChangeStatus = "renamed"
)

// FileChange is one file-level diff entry. OldPath is set for renames.
type FileChange struct {
	Path    string       `json:"path"`
	OldPath string       `json:"oldPath,omitempty"`
	Status  ChangeStatus `json:"status"`
}

// Repo is an opened repository.
type Repo struct {
	repo *git.Repository
	path string
}

// Open opens the repository containing path.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return &Repo{repo: repo, path: path}, nil
}

// Head returns the current commit SHA and short branch name.
func (r *Repo) Head() (sha, branch string, err error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash().String(), head.Name().Short(), nil
}

// OriginName derives "owner/name" from the origin remote URL; empty when
// there is no usable remote.
func (r *Repo) OriginName() string {
	remote, err := r.repo.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		return ""
	}
	return parseRemoteName(remote.Config().URLs[0])
}

// parseRemoteName handles both https://host/owner/repo.git and
// git@host:owner/repo.git forms.
func parseRemoteName(url string) string {
	url = strings.TrimSuffix(url, ".git")
	if i := strings.Index(url, "://"); i >= 0 {
		url = url[i+3:]
	}
	if i := strings.IndexByte(url, ':'); i >= 0 && !strings.Contains(url[:i], "/") {
		url = url[i+1:]
	} else if i := strings.IndexByte(url, '/'); i >= 0 {
		url = url[i+1:]
	}
	parts := strings.Split(strings.Trim(url, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

// DiffFiles computes the file-level diff between two commits, with
// rename detection. Diffing against a commit the repository does not
// have is an error; callers decide whether to fall back to full mode.
func (r *Repo) DiffFiles(ctx context.Context, oldSHA, newSHA string) ([]FileChange, error) {
	oldTree, err := r.commitTree(oldSHA)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commit %s: %w", shortSHA(oldSHA), err)
	}
	newTree, err := r.commitTree(newSHA)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commit %s: %w", shortSHA(newSHA), err)
	}

	changes, err := object.DiffTreeWithOptions(ctx, oldTree, newTree, &object.DiffTreeOptions{
		DetectRenames: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	out := make([]FileChange, 0, len(changes))
	for _, change := range changes {
		fromName := change.From.Name
		toName := change.To.Name

		switch {
		case fromName == "":
			out = append(out, FileChange{Path: toName, Status: StatusAdded})
		case toName == "":
			out = append(out, FileChange{Path: fromName, Status: StatusDeleted})
		case fromName != toName:
			out = append(out, FileChange{Path: toName, OldPath: fromName, Status: StatusRenamed})
		default:
			out = append(out, FileChange{Path: toName, Status: StatusModified})
		}
	}

	log.Debug().
		Str("from", shortSHA(oldSHA)).
		Str("to", shortSHA(newSHA)).
		Int("changes", len(out)).
		Msg("computed file diff")

	return out, nil
}

func (r *Repo) commitTree(sha string) (*object.Tree, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
