// Package distill defines the data model shared by the distillation pipeline:
// parsed documents, skill candidates and descriptors, and per-source batch
// results.
package distill

// SourceType identifies how a source was parsed
type SourceType string

const (
	SourcePDF      SourceType = "pdf"
	SourceMarkdown SourceType = "markdown"
	SourceText     SourceType = "text"
	SourceWeb      SourceType = "web"
)

// FallbackSectionTitle names the single section emitted when no headings are detected
const FallbackSectionTitle = "Document"

// Section is one heading-delimited region of a parsed document
type Section struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Level       int       `json:"level"`
	Subsections []Section `json:"subsections,omitempty"`
}

// Document is the output of the structural parser
type Document struct {
	Content    string         `json:"content"`
	Structure  []Section      `json:"structure"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	SourceType SourceType     `json:"source_type"`
	SourcePath string         `json:"source_path"`
}

// SkillCandidate is a lightweight skill mention surfaced by the first pass
type SkillCandidate struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	SourceSection string  `json:"source_section"`
	Confidence    float64 `json:"confidence"`
}

// Step is one ordered action of a skill, with its justification
type Step struct {
	Order     int    `json:"order" jsonschema:"minimum=0"`
	Action    string `json:"action"`
	Reasoning string `json:"reasoning"`
}

// SkillDescriptor is the validated WHAT/WHY/HOW record produced by the pipeline
type SkillDescriptor struct {
	Name        string   `json:"name" jsonschema:"description=kebab-case skill identifier"`
	Description string   `json:"description"`
	What        string   `json:"what"`
	Why         string   `json:"why"`
	How         []Step   `json:"how"`
	When        []string `json:"when"`
	Examples    []string `json:"examples"`
	Constraints []string `json:"constraints"`
}

// IsComplete reports whether the descriptor carries every mandatory field
func (s SkillDescriptor) IsComplete() bool {
	return s.Name != "" && s.Description != "" && s.What != "" && s.Why != "" && len(s.How) > 0
}

// BatchResult records the outcome of processing one source
type BatchResult struct {
	Source     string       `json:"source"`
	Succeeded  bool         `json:"succeeded"`
	SkillCount int          `json:"skill_count"`
	Error      *ErrorRecord `json:"error,omitempty"`
	Warning    string       `json:"warning,omitempty"`
	Artifacts  []string     `json:"artifacts,omitempty"`
	DurationMS int64        `json:"duration_ms"`
}
