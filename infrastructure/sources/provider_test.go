package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"siostam-backend/infrastructure/config"
)

func staticSource(targets ...config.TargetConfig) config.Source {
	return config.NewStatic(&config.Config{
		Suffix:  "sub-system.yaml",
		Workdir: "data",
		Targets: targets,
	})
}

func newTestProvider(targets ...config.TargetConfig) *Provider {
	return NewProvider(staticSource(targets...), NewGitSyncer(zap.NewNop()), zap.NewNop())
}

func TestProvider_LoadsFolderTargetsInOrder(t *testing.T) {
	// Arrange: two folder targets, each with one descriptor
	first := t.TempDir()
	writeDescriptor(t, first, "sub-system.yaml", "subsystems:\n  - id: alpha\n")
	second := t.TempDir()
	writeDescriptor(t, second, "sub-system.yaml", "subsystems:\n  - id: beta\n")

	provider := newTestProvider(
		config.TargetConfig{Name: "first", Folder: first},
		config.TargetConfig{Name: "second", Folder: second},
	)

	// Act
	files, err := provider.Load(context.Background())

	// Assert: target order is preserved in the merged list
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "alpha", files[0].Subsystems[0].ID)
	assert.Equal(t, "beta", files[1].Subsystems[0].ID)
	assert.Equal(t, "first", files[0].RepoName)
	assert.Equal(t, "second", files[1].RepoName)
}

func TestProvider_SkipsTargetWithoutFolderOrURL(t *testing.T) {
	folder := t.TempDir()
	writeDescriptor(t, folder, "sub-system.yaml", "subsystems:\n  - id: kept\n")

	provider := newTestProvider(
		config.TargetConfig{Name: "empty"},
		config.TargetConfig{Name: "valid", Folder: folder},
	)

	files, err := provider.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "kept", files[0].Subsystems[0].ID)
}

func TestProvider_FolderWinsWhenBothDeclared(t *testing.T) {
	folder := t.TempDir()
	writeDescriptor(t, folder, "sub-system.yaml", "subsystems:\n  - id: local\n")

	provider := newTestProvider(config.TargetConfig{
		Name:   "both",
		Folder: folder,
		URL:    "https://example.invalid/never-contacted.git",
	})

	files, err := provider.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "local", files[0].Subsystems[0].ID)
}

func TestProvider_ParseFailureFailsWholeLoad(t *testing.T) {
	good := t.TempDir()
	writeDescriptor(t, good, "sub-system.yaml", "subsystems:\n  - id: fine\n")
	bad := t.TempDir()
	writeDescriptor(t, bad, "sub-system.yaml", "subsystems: [broken\n")

	provider := newTestProvider(
		config.TargetConfig{Name: "good", Folder: good},
		config.TargetConfig{Name: "bad", Folder: bad},
	)

	files, err := provider.Load(context.Background())

	require.Error(t, err)
	assert.Nil(t, files)
}

func TestProvider_NoTargets(t *testing.T) {
	files, err := newTestProvider().Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, files)
}
