// Package render turns validated skill descriptors into artifacts: skill
// packages, slash commands and the intermediate JSON catalogue.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

// Renderer writes one skill to target and returns the artifact path
type Renderer interface {
	Render(skill distill.SkillDescriptor, target string) (string, error)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(skill distill.SkillDescriptor, target string) (string, error)

// Render implements Renderer
func (f RendererFunc) Render(skill distill.SkillDescriptor, target string) (string, error) {
	return f(skill, target)
}

// Targets names one artifact per skill from base. A single skill renders to
// base itself, several render to base-<slug of skill name>. Every target stays
// in the directory of base whatever the skill names contain.
func Targets(base string, skills []distill.SkillDescriptor) []string {
	if len(skills) == 1 {
		return []string{base}
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = Slug(s.Name)
	}
	names = Unique(names)
	targets := make([]string, len(skills))
	for i, name := range names {
		targets[i] = stem + "-" + name + ext
	}
	return targets
}

// Slug reduces name to lowercase letters and digits joined by single hyphens,
// so it can be used as one path element. An empty result becomes "skill".
func Slug(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
			continue
		}
		hyphen = true
	}
	if b.Len() == 0 {
		return "skill"
	}
	return b.String()
}

// Unique suffixes repeated names with -2, -3 and so on, keeping the first
// occurrence unchanged. Names are compared case-insensitively.
func Unique(names []string) []string {
	used := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		candidate := name
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			candidate = fmt.Sprintf("%s-%d", name, n)
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}

// SourceStem returns the file name of source without directory or extension.
// URLs use their last path element, or the host when the path is empty.
func SourceStem(source string) string {
	s := source
	if i := strings.Index(s, "://"); i >= 0 {
		s = strings.TrimRight(s[i+3:], "/")
		if q := strings.IndexAny(s, "?#"); q >= 0 {
			s = s[:q]
		}
	}
	base := filepath.Base(filepath.FromSlash(s))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "skills"
	}
	return base
}

// SourceStems returns a stem per source that is unique within the batch.
// Sources sharing a file name get -2, -3 suffixes in input order.
func SourceStems(sources []string) []string {
	stems := make([]string, len(sources))
	for i, source := range sources {
		stems[i] = SourceStem(source)
	}
	return Unique(stems)
}

func withExt(path, ext string) string {
	if strings.HasSuffix(path, ext) {
		return path
	}
	return path + ext
}

// outputError classifies a failure to write an artifact
func outputError(target string, err error) error {
	return distill.NewError(distill.KindOutputFailure, target, "failed to write artifact", err)
}

func ensureParent(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	return nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it into place
func writeFileAtomic(path string, data []byte) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".distill-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write temporary file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temporary file")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrap(err, "failed to set file mode")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "failed to move artifact into place")
}

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Invokable   bool   `yaml:"invokable,omitempty"`
}

func (f frontmatter) String() (string, error) {
	b, err := yaml.Marshal(f)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal frontmatter")
	}
	return "---\n" + string(b) + "---\n", nil
}
