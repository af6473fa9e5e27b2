package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRemoteName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/acme/widgets.git", "acme/widgets"},
		{"https://github.com/acme/widgets", "acme/widgets"},
		{"git@github.com:acme/widgets.git", "acme/widgets"},
		{"ssh://git@github.com/acme/widgets.git", "acme/widgets"},
		{"https://gitlab.com/group/sub/project.git", "sub/project"},
		{"https://github.com/acme/widgets/", "acme/widgets"},
		{"https://github.com/", ""},
		{"nonsense", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseRemoteName(tt.url), tt.url)
	}
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "abcdef12", shortSHA("abcdef1234567890"))
	assert.Equal(t, "abc", shortSHA("abc"))
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

// testRepo wraps a throwaway on-disk repository.
type testRepo struct {
	dir  string
	repo *git.Repository
}

func initTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &testRepo{dir: dir, repo: repo}
}

func (r *testRepo) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(r.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (r *testRepo) remove(t *testing.T, rel string) {
	t.Helper()
	require.NoError(t, os.Remove(filepath.Join(r.dir, filepath.FromSlash(rel))))
}

func (r *testRepo) commit(t *testing.T, msg string) string {
	t.Helper()
	wt, err := r.repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestHead(t *testing.T) {
	tr := initTestRepo(t)
	tr.write(t, "a.txt", "hello\n")
	sha := tr.commit(t, "initial")

	repo, err := Open(tr.dir)
	require.NoError(t, err)

	gotSHA, branch, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, sha, gotSHA)
	assert.Equal(t, "master", branch)
}

func TestDiffFiles(t *testing.T) {
	tr := initTestRepo(t)
	tr.write(t, "keep.txt", "unchanged\n")
	tr.write(t, "edit.txt", "before\n")
	tr.write(t, "gone.txt", "deleted later\n")
	first := tr.commit(t, "initial")

	tr.write(t, "edit.txt", "after\n")
	tr.write(t, "new.txt", "added\n")
	tr.remove(t, "gone.txt")
	second := tr.commit(t, "changes")

	repo, err := Open(tr.dir)
	require.NoError(t, err)

	changes, err := repo.DiffFiles(context.Background(), first, second)
	require.NoError(t, err)

	byPath := map[string]FileChange{}
	for _, c := range changes {
		byPath[c.Path] = c
	}
	require.Len(t, byPath, 3)
	assert.Equal(t, StatusModified, byPath["edit.txt"].Status)
	assert.Equal(t, StatusAdded, byPath["new.txt"].Status)
	assert.Equal(t, StatusDeleted, byPath["gone.txt"].Status)
	assert.NotContains(t, byPath, "keep.txt")
}

func TestDiffFiles_UnknownCommit(t *testing.T) {
	tr := initTestRepo(t)
	tr.write(t, "a.txt", "x\n")
	sha := tr.commit(t, "initial")

	repo, err := Open(tr.dir)
	require.NoError(t, err)

	_, err = repo.DiffFiles(context.Background(), "0000000000000000000000000000000000000000", sha)
	assert.Error(t, err)
}

func TestOriginName(t *testing.T) {
	tr := initTestRepo(t)
	_, err := tr.repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@github.com:acme/widgets.git"},
	})
	require.NoError(t, err)

	repo, err := Open(tr.dir)
	require.NoError(t, err)
	assert.Equal(t, "acme/widgets", repo.OriginName())
}

func TestOriginName_NoRemote(t *testing.T) {
	tr := initTestRepo(t)
	tr.write(t, "a.txt", "x\n")
	tr.commit(t, "initial")

	repo, err := Open(tr.dir)
	require.NoError(t, err)
	assert.Empty(t, repo.OriginName())
}
