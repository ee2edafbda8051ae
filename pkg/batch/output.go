package batch

import (
	"path/filepath"

	"github.com/jingkaihe/distill/pkg/render"
	"github.com/jingkaihe/distill/pkg/types/distill"
)

// Unit is one source of a run as seen by an Output
type Unit struct {
	Source string
	// Stem names the source's artifacts and is unique within the run
	Stem  string
	Multi bool
}

// NewUnit returns the Unit of a lone source
func NewUnit(source string) Unit {
	return Unit{Source: source, Stem: render.SourceStem(source)}
}

// Output writes the validated skills of one source and returns the artifact paths
type Output interface {
	Write(unit Unit, skills []distill.SkillDescriptor) ([]string, error)
}

// Destination names where a source's artifacts go. Target is used as is for
// single-source runs; multi-source runs, and runs without a Target, use
// <Dir>/<unit stem><Suffix>.
type Destination struct {
	Target string
	Dir    string
	Suffix string
}

// Base returns the base path for the artifacts of unit
func (d Destination) Base(unit Unit) string {
	if d.Target != "" && !unit.Multi {
		return d.Target
	}
	stem := unit.Stem
	if stem == "" {
		stem = render.SourceStem(unit.Source)
	}
	return filepath.Join(d.Dir, stem+d.Suffix)
}

// RendererOutput renders each skill to its own artifact
type RendererOutput struct {
	Renderer    render.Renderer
	Destination Destination
}

// Write implements Output. Every skill is attempted; failures are aggregated.
func (o RendererOutput) Write(unit Unit, skills []distill.SkillDescriptor) ([]string, error) {
	targets := render.Targets(o.Destination.Base(unit), skills)

	var artifacts []string
	var errs []error
	for i, skill := range skills {
		path, err := o.Renderer.Render(skill, targets[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		artifacts = append(artifacts, path)
	}
	return artifacts, joinErrors(errs)
}

// JSONOutput saves all skills of a source into one JSON catalogue
type JSONOutput struct {
	Destination Destination
}

// Write implements Output
func (o JSONOutput) Write(unit Unit, skills []distill.SkillDescriptor) ([]string, error) {
	path, err := render.SaveJSON(skills, o.Destination.Base(unit))
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}
