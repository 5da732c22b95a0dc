package sources

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"siostam-backend/infrastructure/config"
)

func TestCloneDirName(t *testing.T) {
	tests := []struct {
		name   string
		target config.TargetConfig
		want   string
	}{
		{
			name:   "configured name wins",
			target: config.TargetConfig{Name: "fixture", URL: "https://example.com/org/repo.git"},
			want:   "fixture",
		},
		{
			name:   "https url",
			target: config.TargetConfig{URL: "https://example.com/org/repo.git"},
			want:   "repo",
		},
		{
			name:   "scp style url",
			target: config.TargetConfig{URL: "git@example.com:org/repo.git"},
			want:   "repo",
		},
		{
			name:   "trailing slash",
			target: config.TargetConfig{URL: "https://example.com/org/repo/"},
			want:   "repo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cloneDirName(tt.target))
		})
	}
}

func TestResetRef(t *testing.T) {
	assert.Equal(t, "origin/develop", resetRef(config.TargetConfig{Branch: "develop"}))
	assert.Equal(t, "origin/HEAD", resetRef(config.TargetConfig{}))
}

// initSourceRepo creates a local repository to clone from
func initSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	runGit(t, "", "init", "-b", "main", dir)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "sub-system.yaml"),
		[]byte("subsystems:\n  - id: svc\n"), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "-c", "user.email=ci@example.com", "-c", "user.name=ci",
		"commit", "-m", "add descriptor")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	out, err := exec.Command("git", args...).CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestGitSyncer_CloneResyncAndRecover(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	src := initSourceRepo(t)
	workdir := t.TempDir()
	syncer := NewGitSyncer(zap.NewNop())
	target := config.TargetConfig{Name: "fixture", URL: src, Branch: "main"}

	// First sync clones
	dir, err := syncer.Sync(context.Background(), target, workdir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workdir, "fixture"), dir)
	assert.FileExists(t, filepath.Join(dir, "sub-system.yaml"))

	// Second sync fetches and resets the existing clone
	_, err = syncer.Sync(context.Background(), target, workdir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "sub-system.yaml"))

	// A directory that stopped being a repository is destroyed and
	// cloned fresh.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.txt"), []byte("junk"), 0o644))

	_, err = syncer.Sync(context.Background(), target, workdir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "sub-system.yaml"))
	assert.NoFileExists(t, filepath.Join(dir, "junk.txt"))
}
