package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"siostam-backend/infrastructure/config"
	pkgerrors "siostam-backend/pkg/errors"
)

// gitCommandTimeout bounds every git invocation so a hung remote can
// never pin the rebuild lock.
const gitCommandTimeout = 60 * time.Second

// GitSyncer mirrors remote repositories into the workdir using the
// git CLI. Every remote runs behind its own circuit breaker: a host
// that keeps failing is skipped for a while instead of dragging each
// refresh cycle to its timeout.
type GitSyncer struct {
	logger *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewGitSyncer(logger *zap.Logger) *GitSyncer {
	return &GitSyncer{
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Sync brings workdir/<name> in line with the target's remote branch
// and returns the local clone path. An existing clone is fetched and
// hard reset; a directory that no longer opens as a repository is
// destroyed and cloned fresh.
func (g *GitSyncer) Sync(ctx context.Context, target config.TargetConfig, workdir string) (string, error) {
	dir := filepath.Join(workdir, cloneDirName(target))

	_, err := g.breaker(target.URL).Execute(func() (interface{}, error) {
		return nil, g.sync(ctx, target, dir)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", pkgerrors.NewUnavailableError(fmt.Sprintf("git remote %s", target.URL)).WithCause(err)
		}
		return "", err
	}
	return dir, nil
}

func (g *GitSyncer) sync(ctx context.Context, target config.TargetConfig, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return g.clone(ctx, target, dir)
	}

	if err := g.run(ctx, dir, "rev-parse", "--git-dir"); err != nil {
		// The directory exists but is not a usable repository.
		// Destroy it and clone fresh.
		g.logger.Warn("Corrupted clone, removing it",
			zap.String("dir", dir),
			zap.Error(err),
		)
		if err := os.RemoveAll(dir); err != nil {
			return pkgerrors.NewSourceError(target.DisplayName(), err)
		}
		return g.clone(ctx, target, dir)
	}

	if err := g.run(ctx, dir, "fetch", "--prune", "origin"); err != nil {
		return err
	}
	if err := g.run(ctx, dir, "reset", "--hard", resetRef(target)); err != nil {
		return err
	}

	g.logger.Info("Repository updated",
		zap.String("target", target.DisplayName()),
		zap.String("dir", dir),
	)
	return nil
}

func (g *GitSyncer) clone(ctx context.Context, target config.TargetConfig, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return pkgerrors.NewSourceError(target.DisplayName(), err)
	}

	args := []string{"clone"}
	if target.Branch != "" {
		args = append(args, "--branch", target.Branch)
	}
	args = append(args, target.URL, dir)

	if err := g.run(ctx, "", args...); err != nil {
		return err
	}

	g.logger.Info("Repository cloned",
		zap.String("target", target.DisplayName()),
		zap.String("dir", dir),
	)
	return nil
}

// run executes one git command. dir selects the repository via -C;
// leave it empty for commands like clone that create the repository.
func (g *GitSyncer) run(ctx context.Context, dir string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, gitCommandTimeout)
	defer cancel()

	full := args
	if dir != "" {
		full = append([]string{"-C", dir}, args...)
	}

	g.logger.Debug("Running git", zap.Strings("args", full))

	cmd := exec.CommandContext(ctx, "git", full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return pkgerrors.NewSourceError("git "+args[0], err).WithDetails(map[string]interface{}{
			"args":   strings.Join(full, " "),
			"stderr": strings.TrimSpace(stderr.String()),
		})
	}
	return nil
}

// breaker returns the circuit breaker for one remote URL, creating it
// on first use.
func (g *GitSyncer) breaker(url string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[url]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        url,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			g.logger.Warn("Git remote circuit breaker state changed",
				zap.String("remote", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	g.breakers[url] = cb
	return cb
}

// resetRef is the remote ref a clone is pinned to after every sync
func resetRef(target config.TargetConfig) string {
	if target.Branch != "" {
		return "origin/" + target.Branch
	}
	return "origin/HEAD"
}

// cloneDirName picks the directory a target is cloned into: the
// configured name, or the last URL path segment without its .git
// suffix.
func cloneDirName(target config.TargetConfig) string {
	if target.Name != "" {
		return target.Name
	}

	name := strings.TrimSuffix(target.URL, ".git")
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = "repository"
	}
	return name
}
