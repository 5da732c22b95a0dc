package sources

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"siostam-backend/domain/graph"
	pkgerrors "siostam-backend/pkg/errors"
)

// Directories never worth descending into when looking for
// descriptor files.
var ignoredDirs = []string{".git", "node_modules", "vendor"}

// Scanner finds and parses descriptor files under a directory tree
type Scanner struct {
	suffix string
	logger *zap.Logger
}

func NewScanner(suffix string, logger *zap.Logger) *Scanner {
	return &Scanner{suffix: suffix, logger: logger}
}

// Scan walks root and parses every file whose name ends in the
// configured suffix. WalkDir visits entries in lexical order, so the
// result is deterministic for a given tree.
//
// A file that fails to parse aborts the whole scan: half a graph is
// worse than the previous complete one.
func (s *Scanner) Scan(root, repoName string) ([]graph.SourceFile, error) {
	var files []graph.SourceFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			for _, ignored := range ignoredDirs {
				if d.Name() == ignored {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), s.suffix) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		parsed, err := s.parseFile(path, repoName, rel)
		if err != nil {
			return err
		}

		s.logger.Debug("Parsed descriptor file",
			zap.String("repo", repoName),
			zap.String("path", rel),
		)
		files = append(files, parsed)
		return nil
	})
	if err != nil {
		if pkgerrors.IsAppError(err) {
			return nil, err
		}
		return nil, pkgerrors.NewSourceError(root, err)
	}

	return files, nil
}

func (s *Scanner) parseFile(path, repoName, rel string) (graph.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return graph.SourceFile{}, pkgerrors.NewSourceError(rel, err)
	}

	var d descriptorFile
	if err := yaml.Unmarshal(data, &d); err != nil {
		return graph.SourceFile{}, pkgerrors.NewSourceError(rel, err).WithDetails(map[string]interface{}{
			"repo": repoName,
		})
	}

	return d.toSourceFile(repoName, rel), nil
}

// descriptorFile mirrors the on-disk YAML schema. Singular and plural
// spellings of the list keys both work and merge, plural entries
// first: subsystem/subsystems, dependency/dependencies, how_to/howto.
type descriptorFile struct {
	StoredInSystem string          `yaml:"stored_in_system"`
	System         *systemYAML     `yaml:"system"`
	Subsystem      []subsystemYAML `yaml:"subsystem"`
	Subsystems     []subsystemYAML `yaml:"subsystems"`
}

type systemYAML struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	HowTo       []howToYAML `yaml:"how_to"`
	HowToAlias  []howToYAML `yaml:"howto"`
}

type subsystemYAML struct {
	ID           string           `yaml:"id"`
	Name         string           `yaml:"name"`
	Description  string           `yaml:"description"`
	Dependency   []dependencyYAML `yaml:"dependency"`
	Dependencies []dependencyYAML `yaml:"dependencies"`
	HowTo        []howToYAML      `yaml:"how_to"`
	HowToAlias   []howToYAML      `yaml:"howto"`
}

type dependencyYAML struct {
	ID  string `yaml:"id"`
	Why string `yaml:"why"`
}

type howToYAML struct {
	URL  string `yaml:"url"`
	Text string `yaml:"text"`
}

func (d *descriptorFile) toSourceFile(repoName, path string) graph.SourceFile {
	out := graph.SourceFile{
		StoredInSystem: d.StoredInSystem,
		RepoName:       repoName,
		Path:           path,
	}

	if d.System != nil {
		out.System = &graph.SystemDecl{
			ID:          d.System.ID,
			Name:        d.System.Name,
			Description: d.System.Description,
			HowTo:       howToDecls(d.System.HowTo, d.System.HowToAlias),
		}
	}

	for _, sub := range append(append([]subsystemYAML{}, d.Subsystems...), d.Subsystem...) {
		out.Subsystems = append(out.Subsystems, graph.SubsystemDecl{
			ID:           sub.ID,
			Name:         sub.Name,
			Description:  sub.Description,
			Dependencies: dependencyDecls(sub.Dependencies, sub.Dependency),
			HowTo:        howToDecls(sub.HowTo, sub.HowToAlias),
		})
	}
	return out
}

func howToDecls(lists ...[]howToYAML) []graph.HowToDecl {
	var out []graph.HowToDecl
	for _, list := range lists {
		for _, h := range list {
			out = append(out, graph.HowToDecl{URL: h.URL, Text: h.Text})
		}
	}
	return out
}

func dependencyDecls(lists ...[]dependencyYAML) []graph.DependencyDecl {
	var out []graph.DependencyDecl
	for _, list := range lists {
		for _, dep := range list {
			out = append(out, graph.DependencyDecl{ID: dep.ID, Why: dep.Why})
		}
	}
	return out
}
