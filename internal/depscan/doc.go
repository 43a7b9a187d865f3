// Package depscan analyzes a single code fragment for module references.
// Three independent scans (ES import targets, CommonJS require calls, and
// script-tag src URLs against a small set of recognized CDN hosts) are merged
// and deduplicated by name, first occurrence wins. This is a text scan, not
// a resolver, so classification is approximate.
package depscan
