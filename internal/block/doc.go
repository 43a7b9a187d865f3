// Package block extracts typed content blocks from free-form text. A fixed,
// ordered set of fence patterns is matched against the input; every captured
// body is trimmed, classified by content sniffing, and returned ordered by
// its position in the source. When nothing matches a non-blank input, the
// whole text becomes a single fallback block. Extraction is best effort by
// contract: overlapping matches are retained, and internal failures degrade
// to an empty result with a diagnostic error rather than failing the caller.
package block
