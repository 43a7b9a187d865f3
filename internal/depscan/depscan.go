package depscan

// DepType classifies where a referenced module comes from.
type DepType string

const (
	// TypePackage is an installable registry package.
	TypePackage DepType = "package"
	// TypeCDN is a resource loaded from a recognized CDN host.
	TypeCDN DepType = "cdn-resource"
	// TypeBuiltin is assumed already available in the execution
	// environment and needs no installation.
	TypeBuiltin DepType = "builtin"
)

// Source records which kind of reference produced a dependency.
type Source string

const (
	SourceImport    Source = "import-statement"
	SourceRequire   Source = "require-call"
	SourceScriptTag Source = "global-script-tag"
)

// Dependency is a single module or resource referenced by a code fragment.
type Dependency struct {
	Name string `json:"name"`
	// Version is populated only when the reference pins one explicitly.
	Version string  `json:"version,omitempty"`
	Type    DepType `json:"type"`
	// Required is always true in the current model; optional-dependency
	// detection does not exist.
	Required bool   `json:"isRequired"`
	Source   Source `json:"source"`
}

// InstallList filters an analysis result down to the packages that need
// installing: required, registry-typed entries.
func InstallList(deps []Dependency) []Dependency {
	var out []Dependency
	for _, d := range deps {
		if d.Type == TypePackage && d.Required {
			out = append(out, d)
		}
	}
	return out
}

// CDNResources filters an analysis result down to CDN-loaded entries.
func CDNResources(deps []Dependency) []Dependency {
	var out []Dependency
	for _, d := range deps {
		if d.Type == TypeCDN {
			out = append(out, d)
		}
	}
	return out
}
