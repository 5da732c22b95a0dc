package graph

// SourceFile is one parsed descriptor file, the builder's only input.
// The sources collaborator hands these over in a stable order; the
// builder never touches the filesystem itself.
type SourceFile struct {
	// System is the file's single optional System declaration.
	System *SystemDecl

	// Subsystems are the file's Subsystem declarations, in file order.
	Subsystems []SubsystemDecl

	// StoredInSystem names the System this file's content belongs to
	// when the file does not declare a System of its own. It also
	// becomes the declared System's parent, which is how nesting is
	// expressed.
	StoredInSystem string

	// RepoName and Path locate the file for provenance display.
	RepoName string
	Path     string
}

// SystemDecl is a raw System declaration before identity rules run
type SystemDecl struct {
	ID          string
	Name        string
	Description string
	HowTo       []HowToDecl
}

// SubsystemDecl is a raw Subsystem declaration before identity rules run
type SubsystemDecl struct {
	ID           string
	Name         string
	Description  string
	Dependencies []DependencyDecl
	HowTo        []HowToDecl
}

// DependencyDecl is a raw dependency entry. Entries without an id are
// dropped during extraction.
type DependencyDecl struct {
	ID  string
	Why string
}

// HowToDecl is a raw documentation link. Entries without a URL are
// dropped; a missing text falls back to the URL.
type HowToDecl struct {
	URL  string
	Text string
}

// identity applies the id/name fallback rule. It reports false when
// neither is present, which discards the declaration.
func identity(id, name string) (string, string, bool) {
	if id == "" && name == "" {
		return "", "", false
	}
	if id == "" {
		id = name
	}
	if name == "" {
		name = id
	}
	return id, name, true
}

// extractSystem returns the file's System, or nil when the file does
// not declare one or the declaration has neither id nor name.
func (f *SourceFile) extractSystem() *System {
	if f.System == nil {
		return nil
	}

	id, name, ok := identity(f.System.ID, f.System.Name)
	if !ok {
		return nil
	}

	var parent *Ref[System]
	if f.StoredInSystem != "" {
		parent = NewRef[System](f.StoredInSystem)
	}

	return &System{
		ID:          id,
		Name:        name,
		RepoName:    f.RepoName,
		Path:        f.Path,
		Description: f.System.Description,
		Parent:      parent,
		HowTo:       extractHowTo(f.System.HowTo),
	}
}

// extractSubsystems returns the file's well-formed Subsystems in file
// order. Declarations without id and name are skipped, not fatal.
// parentID is the file-local parent decided by the caller: the file's
// own System id when there is one, else StoredInSystem, else empty.
func (f *SourceFile) extractSubsystems(parentID string) []Subsystem {
	subsystems := make([]Subsystem, 0, len(f.Subsystems))

	for _, decl := range f.Subsystems {
		id, name, ok := identity(decl.ID, decl.Name)
		if !ok {
			continue
		}

		dependencies := make([]Dependency, 0, len(decl.Dependencies))
		for _, dep := range decl.Dependencies {
			if dep.ID == "" {
				continue
			}
			dependencies = append(dependencies, Dependency{
				Subsystem: Ref[Subsystem]{ID: dep.ID},
				Why:       dep.Why,
			})
		}

		var parent *Ref[System]
		if parentID != "" {
			parent = NewRef[System](parentID)
		}

		subsystems = append(subsystems, Subsystem{
			ID:           id,
			Name:         name,
			RepoName:     f.RepoName,
			Path:         f.Path,
			Description:  decl.Description,
			Parent:       parent,
			Dependencies: dependencies,
			HowTo:        extractHowTo(decl.HowTo),
		})
	}

	return subsystems
}

func extractHowTo(decls []HowToDecl) []HowTo {
	if len(decls) == 0 {
		return nil
	}

	howTo := make([]HowTo, 0, len(decls))
	for _, decl := range decls {
		if decl.URL == "" {
			continue
		}
		text := decl.Text
		if text == "" {
			text = decl.URL
		}
		howTo = append(howTo, HowTo{URL: decl.URL, Text: text})
	}

	if len(howTo) == 0 {
		return nil
	}
	return howTo
}
