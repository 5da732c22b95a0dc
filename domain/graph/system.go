package graph

// System is a named grouping of subsystems. Systems nest through
// Parent, which targets another System by id.
//
// ID and Name back each other up: a descriptor may declare either and
// the other defaults to it. RepoName and Path record where the
// declaration was found, for display only.
type System struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	RepoName    string       `json:"repo_name"`
	Path        string       `json:"path"`
	Description string       `json:"description,omitempty"`
	Parent      *Ref[System] `json:"parent_system,omitempty"`
	HowTo       []HowTo      `json:"how_to,omitempty"`
}

// Subsystem is a leaf unit of architecture. It lives inside a System
// and declares ordered dependencies on other Subsystems.
type Subsystem struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	RepoName     string       `json:"repo_name"`
	Path         string       `json:"path"`
	Description  string       `json:"description,omitempty"`
	Parent       *Ref[System] `json:"parent_system,omitempty"`
	Dependencies []Dependency `json:"dependencies"`
	HowTo        []HowTo      `json:"how_to,omitempty"`
}

// Dependency links a Subsystem to another Subsystem it relies on,
// optionally with a free-text rationale.
type Dependency struct {
	Subsystem Ref[Subsystem] `json:"subsystem"`
	Why       string         `json:"why,omitempty"`
}

// HowTo points readers at documentation for a System or Subsystem
type HowTo struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}
