package sources

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"siostam-backend/domain/graph"
	"siostam-backend/infrastructure/config"
)

// Provider synchronizes every configured target and parses the
// descriptor files they contain. Git targets synchronize in parallel;
// scanning then runs in target order so the merged file list is
// deterministic for a given configuration.
type Provider struct {
	source config.Source
	syncer *GitSyncer
	logger *zap.Logger
}

func NewProvider(source config.Source, syncer *GitSyncer, logger *zap.Logger) *Provider {
	return &Provider{
		source: source,
		syncer: syncer,
		logger: logger,
	}
}

// Load implements the update flow's source port
func (p *Provider) Load(ctx context.Context) ([]graph.SourceFile, error) {
	cfg := p.source.Current()
	scanner := NewScanner(cfg.Suffix, p.logger)

	// Resolve each target to a local directory. Invalid targets leave
	// their slot empty and are skipped.
	dirs := make([]string, len(cfg.Targets))

	g, ctx := errgroup.WithContext(ctx)
	for i, target := range cfg.Targets {
		switch target.Kind() {
		case config.TargetFolder:
			if target.URL != "" {
				p.logger.Warn("Target declares both folder and url, using the folder",
					zap.String("target", target.DisplayName()),
				)
			}
			dirs[i] = target.Folder

		case config.TargetGit:
			i, target := i, target
			g.Go(func() error {
				dir, err := p.syncer.Sync(ctx, target, cfg.Workdir)
				if err != nil {
					return err
				}
				dirs[i] = dir
				return nil
			})

		default:
			p.logger.Error("Target declares neither folder nor url, skipping it",
				zap.String("target", target.DisplayName()),
			)
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var files []graph.SourceFile
	for i, target := range cfg.Targets {
		if dirs[i] == "" {
			continue
		}
		scanned, err := scanner.Scan(dirs[i], target.DisplayName())
		if err != nil {
			return nil, err
		}
		files = append(files, scanned...)
	}

	p.logger.Info("Sources loaded",
		zap.Int("targets", len(cfg.Targets)),
		zap.Int("files", len(files)),
	)
	return files, nil
}
