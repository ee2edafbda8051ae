package skills

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

const skillFileName = "SKILL.md"

// Discovery handles skill discovery from configured directories
type Discovery struct {
	skillDirs []string
}

// Option is a function that configures a Discovery
type Option func(*Discovery) error

// WithSkillDirs sets custom skill directories
func WithSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.skillDirs = dirs
		return nil
	}
}

// PrependSkillDirs searches dirs before the directories configured so far
func PrependSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.skillDirs = append(append([]string{}, dirs...), d.skillDirs...)
		return nil
	}
}

// WithDefaultDirs searches the repo-local and user-global skill directories
func WithDefaultDirs() Option {
	return func(d *Discovery) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		d.skillDirs = []string{
			"./.distill/skills", // highest precedence
			filepath.Join(homeDir, ".distill", "skills"),
		}
		return nil
	}
}

// NewDiscovery creates a new skill discovery instance
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{}

	if len(opts) == 0 {
		if err := WithDefaultDirs()(d); err != nil {
			return nil, err
		}
	} else {
		for _, opt := range opts {
			if err := opt(d); err != nil {
				return nil, err
			}
		}
	}

	return d, nil
}

// DiscoverSkills finds all skills in the configured directories. When two
// skills share a name the one from the earlier directory wins.
func (d *Discovery) DiscoverSkills() (map[string]*Skill, error) {
	skills := make(map[string]*Skill)

	for _, dir := range d.skillDirs {
		d.discoverSkillsFromDir(dir, skills)
	}

	return skills, nil
}

func (d *Discovery) discoverSkillsFromDir(dir string, skills map[string]*Skill) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		skill, err := LoadSkill(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if _, exists := skills[skill.Name]; !exists {
			skills[skill.Name] = skill
		}
	}
}

// ListSkills returns all discovered skills sorted by name
func (d *Discovery) ListSkills() ([]*Skill, error) {
	skills, err := d.DiscoverSkills()
	if err != nil {
		return nil, err
	}

	list := make([]*Skill, 0, len(skills))
	for _, s := range skills {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// GetSkill returns a specific skill by name
func (d *Discovery) GetSkill(name string) (*Skill, error) {
	skills, err := d.DiscoverSkills()
	if err != nil {
		return nil, err
	}

	skill, exists := skills[name]
	if !exists {
		return nil, errors.Errorf("skill '%s' not found", name)
	}

	return skill, nil
}

// LoadSkill loads the skill at path: a directory with SKILL.md, a .zip
// package or a slash command .md file.
func LoadSkill(path string) (*Skill, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat skill")
	}

	switch {
	case info.IsDir():
		content, err := os.ReadFile(filepath.Join(path, skillFileName))
		if err != nil {
			return nil, errors.Wrap(err, "failed to read skill file")
		}
		skill, err := parseSkill(content, KindDirectory, path)
		if err != nil {
			return nil, err
		}
		return skill.Skill, nil
	case strings.EqualFold(filepath.Ext(path), ".zip"):
		return loadPackage(path)
	case strings.EqualFold(filepath.Ext(path), ".md"):
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read slash command")
		}
		skill, err := parseSkill(content, KindSlashCommand, path)
		if err != nil {
			return nil, err
		}
		if !skill.invokable {
			return nil, errors.New("markdown file is not an invokable slash command")
		}
		return skill.Skill, nil
	default:
		return nil, errors.Errorf("not a skill: %s", path)
	}
}

func loadPackage(path string) (*Skill, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open skill package")
	}
	defer zr.Close()

	var (
		files   []string
		content []byte
	)
	for _, f := range zr.File {
		files = append(files, f.Name)
		if f.Name != skillFileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrap(err, "failed to open SKILL.md in package")
		}
		content, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read SKILL.md in package")
		}
	}
	if content == nil {
		return nil, errors.Errorf("package %s has no %s", path, skillFileName)
	}

	parsed, err := parseSkill(content, KindPackage, path)
	if err != nil {
		return nil, err
	}
	parsed.Files = files
	return parsed.Skill, nil
}

type parsedSkill struct {
	*Skill
	invokable bool
}

// parseSkill reads the frontmatter of a SKILL.md or slash command document
func parseSkill(content []byte, kind Kind, path string) (parsedSkill, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return parsedSkill{}, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return parsedSkill{}, errors.New("missing frontmatter")
	}

	name, _ := metaData["name"].(string)
	description, _ := metaData["description"].(string)
	invokable, _ := metaData["invokable"].(bool)

	if name == "" {
		return parsedSkill{}, errors.New("skill name is required in frontmatter")
	}
	if description == "" {
		return parsedSkill{}, errors.New("skill description is required in frontmatter")
	}

	return parsedSkill{
		Skill: &Skill{
			Name:        name,
			Description: description,
			Kind:        kind,
			Path:        path,
			Content:     extractBodyContent(string(content)),
		},
		invokable: invokable,
	}, nil
}

// extractBodyContent removes YAML frontmatter and returns the body
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}
