// Package skills discovers rendered skills on disk. A skill is either a
// directory or zip package holding a SKILL.md file, or a slash command
// markdown file, each carrying YAML frontmatter with its name and description.
package skills

// Kind is the on-disk shape of a rendered skill
type Kind string

const (
	KindDirectory    Kind = "directory"
	KindPackage      Kind = "package"
	KindSlashCommand Kind = "slash-command"
)

// Skill represents a discovered skill with its metadata
type Skill struct {
	Name        string   // Unique name from frontmatter
	Description string   // Brief description from frontmatter
	Kind        Kind     // directory, zip package or slash command
	Path        string   // Directory, zip archive or markdown file
	Content     string   // Body of SKILL.md or the slash command, without frontmatter
	Files       []string // Entries of a zip package, in archive order
}
