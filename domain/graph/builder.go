package graph

// Graph is the fully merged model: every System and Subsystem found
// across the sources, in discovery order, with references resolved to
// positional indices.
//
// Both collections are append-only during a build. Positional indices
// must stay stable once assigned, because references store them.
type Graph struct {
	Systems    []System    `json:"systems"`
	Subsystems []Subsystem `json:"subsystems"`
}

// Build merges raw per-file records, in order, into one Graph, then
// resolves every reference. Parent links resolve in the System id
// namespace, dependency links in the Subsystem id namespace.
func Build(files []SourceFile) *Graph {
	g := &Graph{
		Systems:    make([]System, 0, len(files)),
		Subsystems: make([]Subsystem, 0, len(files)),
	}

	for i := range files {
		file := &files[i]

		// The file's System, when present, is the local parent of its
		// subsystems. StoredInSystem is the fallback.
		system := file.extractSystem()

		parentID := file.StoredInSystem
		if system != nil {
			parentID = system.ID
		}

		if system != nil {
			g.Systems = append(g.Systems, *system)
		}
		g.Subsystems = append(g.Subsystems, file.extractSubsystems(parentID)...)
	}

	g.resolve()
	return g
}

// resolve builds one id→index map per namespace and rewrites every
// stored reference in place. Duplicate identifiers: the last-appended
// entity wins the mapping and earlier entries become unreachable by
// id (known gap). An id with no entry leaves its references
// unresolved.
func (g *Graph) resolve() {
	systems := make(map[string]int, len(g.Systems))
	for i, s := range g.Systems {
		systems[s.ID] = i
	}

	subsystems := make(map[string]int, len(g.Subsystems))
	for i, s := range g.Subsystems {
		subsystems[s.ID] = i
	}

	for i := range g.Systems {
		g.Systems[i].Parent.Resolve(systems)
	}
	for i := range g.Subsystems {
		g.Subsystems[i].Parent.Resolve(systems)
		for j := range g.Subsystems[i].Dependencies {
			g.Subsystems[i].Dependencies[j].Subsystem.Resolve(subsystems)
		}
	}
}
