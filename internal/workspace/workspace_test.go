package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResolve_NPMWorkspaces(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name": "root", "workspaces": ["packages/*"]}`)
	writeFile(t, root, "packages/core/package.json", `{"name": "@acme/core"}`)
	writeFile(t, root, "packages/ui/package.json", `{"name": "@acme/ui"}`)
	writeFile(t, root, "packages/unnamed/package.json", `{"version": "1.0.0"}`)

	packages := Resolve(root)

	assert.Equal(t, map[string]string{
		"@acme/core": "packages/core",
		"@acme/ui":   "packages/ui",
	}, packages)
}

func TestResolve_NPMWorkspacesObjectForm(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name": "root", "workspaces": {"packages": ["libs/*"]}}`)
	writeFile(t, root, "libs/a/package.json", `{"name": "lib-a"}`)

	packages := Resolve(root)
	assert.Equal(t, map[string]string{"lib-a": "libs/a"}, packages)
}

func TestResolve_PNPM(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pnpm-workspace.yaml", "packages:\n  - 'apps/*'\n  - '!apps/legacy'\n")
	writeFile(t, root, "apps/web/package.json", `{"name": "web"}`)
	writeFile(t, root, "apps/legacy/package.json", `{"name": "legacy"}`)

	packages := Resolve(root)

	assert.Equal(t, map[string]string{"web": "apps/web"}, packages)
}

func TestResolve_LernaDefaultGlob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "lerna.json", `{"version": "independent"}`)
	writeFile(t, root, "packages/x/package.json", `{"name": "x"}`)

	packages := Resolve(root)
	assert.Equal(t, map[string]string{"x": "packages/x"}, packages)
}

func TestResolve_PriorityOrder(t *testing.T) {
	// package.json workspaces win over pnpm-workspace.yaml.
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"workspaces": ["pkgs/*"]}`)
	writeFile(t, root, "pkgs/one/package.json", `{"name": "one"}`)
	writeFile(t, root, "pnpm-workspace.yaml", "packages:\n  - 'other/*'\n")
	writeFile(t, root, "other/two/package.json", `{"name": "two"}`)

	packages := Resolve(root)
	assert.Equal(t, map[string]string{"one": "pkgs/one"}, packages)
}

func TestResolve_NoConvention(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name": "plain-app"}`)

	packages := Resolve(root)
	assert.NotNil(t, packages)
	assert.Empty(t, packages)
}
