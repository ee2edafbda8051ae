package batch

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

// Summary aggregates one batch run
type Summary struct {
	RunID     string                    `json:"run_id"`
	Results   []distill.BatchResult     `json:"results"`
	Skills    []distill.SkillDescriptor `json:"skills"`
	Succeeded int                       `json:"succeeded"`
	Failed    int                       `json:"failed"`
	Warnings  int                       `json:"warnings"`
}

func (s *Summary) add(result distill.BatchResult, skills []distill.SkillDescriptor) {
	s.Results = append(s.Results, result)
	if result.Succeeded {
		s.Succeeded++
		s.Skills = append(s.Skills, skills...)
	} else {
		s.Failed++
	}
	if result.Warning != "" {
		s.Warnings++
	}
}

// Err returns nil when every source succeeded, otherwise one error per failed source
func (s *Summary) Err() error {
	var result *multierror.Error
	for _, r := range s.Results {
		if r.Succeeded || r.Error == nil {
			continue
		}
		result = multierror.Append(result, fmt.Errorf("%s: %s", r.Source, r.Error.Message))
	}
	return result.ErrorOrNil()
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return multierror.Append(nil, errs...)
}
