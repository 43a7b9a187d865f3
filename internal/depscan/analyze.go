package depscan

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// import defaultExport from 'pkg'; import { a, b } from "pkg";
	// import * as ns from 'pkg'; import 'pkg';
	importRe = regexp.MustCompile(`(?m)\bimport\s+(?:[\w$]+\s*,?\s*)?(?:\{[^}]*\}\s*)?(?:\*\s+as\s+[\w$]+\s*)?(?:from\s+)?['"]([^'"]+)['"]`)

	// const x = require('pkg');
	requireRe = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)

	// <script src="https://…"></script>
	scriptSrcRe = regexp.MustCompile(`(?i)<script[^>]*\bsrc=["']([^"']+)["']`)
)

// builtins are packages assumed present in the execution environment. Any
// specifier under the "@/" project-alias prefix is treated the same way.
var builtins = map[string]bool{
	"react":     true,
	"react-dom": true,
}

const aliasPrefix = "@/"

// Analyze scans one code fragment for module references and returns them
// deduplicated by name, first occurrence wins. The three scans run in fixed
// order (imports, requires, script tags), so the merged result preserves
// that relative order. Analyzing the same fragment twice yields identical
// output.
func Analyze(code string) []Dependency {
	var deps []Dependency
	seen := make(map[string]bool)

	add := func(d Dependency) {
		if d.Name == "" || seen[d.Name] {
			return
		}
		seen[d.Name] = true
		deps = append(deps, d)
	}

	for _, m := range importRe.FindAllStringSubmatch(code, -1) {
		if d, ok := moduleDependency(m[1], SourceImport); ok {
			add(d)
		}
	}
	for _, m := range requireRe.FindAllStringSubmatch(code, -1) {
		if d, ok := moduleDependency(m[1], SourceRequire); ok {
			add(d)
		}
	}
	for _, m := range scriptSrcRe.FindAllStringSubmatch(code, -1) {
		if d, ok := cdnDependency(m[1]); ok {
			add(d)
		}
	}
	return deps
}

// moduleDependency classifies a bare import/require specifier. Relative and
// absolute paths are not dependencies and are skipped.
func moduleDependency(specifier string, source Source) (Dependency, bool) {
	if specifier == "" {
		return Dependency{}, false
	}
	if strings.HasPrefix(specifier, aliasPrefix) {
		return Dependency{Name: specifier, Type: TypeBuiltin, Required: true, Source: source}, true
	}
	if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		return Dependency{}, false
	}

	name, version := splitNameVersion(specifier)
	name = packageRoot(name)

	depType := TypePackage
	if builtins[name] {
		depType = TypeBuiltin
	}
	return Dependency{
		Name:     name,
		Version:  version,
		Type:     depType,
		Required: true,
		Source:   source,
	}, true
}

// splitNameVersion separates an explicit "pkg@1.2.3" pin from the name,
// leaving scoped-package prefixes alone.
func splitNameVersion(specifier string) (name, version string) {
	at := strings.LastIndex(specifier, "@")
	if at <= 0 {
		// Leading @ is a scope marker, not a version pin.
		return specifier, ""
	}
	return specifier[:at], specifier[at+1:]
}

// packageRoot strips subpaths: "react-dom/client" → "react-dom",
// "@scope/pkg/sub" → "@scope/pkg".
func packageRoot(name string) string {
	parts := strings.Split(name, "/")
	if strings.HasPrefix(name, "@") {
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return name
	}
	return parts[0]
}

// cdnHost pairs a recognized CDN host with its package-name extraction rule.
type cdnHost struct {
	host    string
	extract func(path string) (name, version string, ok bool)
}

var cdnHosts = []cdnHost{
	// unpkg.com/react@18.2.0/umd/react.production.min.js
	{host: "unpkg.com", extract: func(path string) (string, string, bool) {
		return pinnedSegment(path, 0)
	}},
	// cdn.jsdelivr.net/npm/lodash@4.17.21/lodash.min.js
	{host: "cdn.jsdelivr.net", extract: func(path string) (string, string, bool) {
		segments := splitPath(path)
		if len(segments) < 2 || segments[0] != "npm" {
			return "", "", false
		}
		return pinnedSegment(strings.Join(segments[1:], "/"), 0)
	}},
	// cdnjs.cloudflare.com/ajax/libs/moment.js/2.29.4/moment.min.js
	{host: "cdnjs.cloudflare.com", extract: func(path string) (string, string, bool) {
		segments := splitPath(path)
		if len(segments) < 3 || segments[0] != "ajax" || segments[1] != "libs" {
			return "", "", false
		}
		name := segments[2]
		version := ""
		if len(segments) > 3 {
			version = segments[3]
		}
		return name, version, true
	}},
	// cdn.tailwindcss.com has no package name in its URL at all.
	{host: "cdn.tailwindcss.com", extract: func(string) (string, string, bool) {
		return "tailwindcss", "", true
	}},
}

// cdnDependency maps a script-tag src URL onto a recognized CDN host.
func cdnDependency(src string) (Dependency, bool) {
	u, err := url.Parse(src)
	if err != nil {
		return Dependency{}, false
	}
	for _, c := range cdnHosts {
		if !strings.EqualFold(u.Host, c.host) {
			continue
		}
		name, version, ok := c.extract(u.Path)
		if !ok {
			return Dependency{}, false
		}
		return Dependency{
			Name:     name,
			Version:  version,
			Type:     TypeCDN,
			Required: true,
			Source:   SourceScriptTag,
		}, true
	}
	return Dependency{}, false
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// pinnedSegment reads the package name (scoped-aware) and optional @version
// pin from the path segment at the given index.
func pinnedSegment(path string, index int) (string, string, bool) {
	segments := splitPath(path)
	if len(segments) <= index || segments[index] == "" {
		return "", "", false
	}
	specifier := segments[index]
	if strings.HasPrefix(specifier, "@") && len(segments) > index+1 {
		specifier += "/" + segments[index+1]
	}
	name, version := splitNameVersion(specifier)
	return name, version, true
}
