package block

// Type classifies the effective kind of an extracted fragment. The kind is
// determined by sniffing the fragment's body, not solely by its fence label.
type Type string

const (
	TypeMarkup     Type = "markup"
	TypeScript     Type = "script"
	TypeStylesheet Type = "stylesheet"
	TypeComponent  Type = "component"
	TypePlain      Type = "plain"
)

// Metadata keys attached to every extracted block.
const (
	// MetaPattern names the fence pattern that produced the block.
	MetaPattern = "pattern"
	// MetaStartIndex is the block's starting offset in the source text.
	// It exists only to order blocks; callers should not interpret it.
	MetaStartIndex = "startIndex"
	// MetaWholeDocument marks the single fallback block produced when no
	// fence pattern matched a non-blank input.
	MetaWholeDocument = "wholeDocument"
)

// ContentBlock is one classified fragment extracted from free-form text.
// Blocks are immutable once returned and live only for the extraction call
// that produced them.
type ContentBlock struct {
	ID       string         `json:"id"`
	Type     Type           `json:"type"`
	Code     string         `json:"code"`
	Title    string         `json:"title"`
	Language string         `json:"language"`
	Metadata map[string]any `json:"metadata"`
}
