package distiller

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

// The types below decode model output leniently. A field of the wrong JSON
// type degrades to its zero value instead of failing the whole object.

// flexString accepts a string, number or bool. Anything else is "".
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = flexString(scalarString(v))
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// flexInt accepts a number or a numeric string. Anything else is 0.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		if !math.IsNaN(t) && !math.IsInf(t, 0) {
			*n = flexInt(int(t))
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			*n = flexInt(i)
		}
	}
	return nil
}

// stringList accepts an array of scalars or a single string
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	case string:
		if t != "" {
			*l = []string{t}
		}
	}
	return nil
}

type wireCandidate struct {
	Name        *flexString `json:"name"`
	Description flexString  `json:"description"`
}

// wireStep is a how entry. A bare string is taken as the action.
type wireStep struct {
	Order     flexInt    `json:"order"`
	Action    flexString `json:"action"`
	Reasoning flexString `json:"reasoning"`
}

func (s *wireStep) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var action string
		if err := json.Unmarshal(b, &action); err != nil {
			return err
		}
		*s = wireStep{Action: flexString(action)}
		return nil
	}
	if len(b) == 0 || b[0] != '{' {
		*s = wireStep{}
		return nil
	}
	type plain wireStep
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = wireStep(p)
	return nil
}

// wireSteps accepts an array of steps. Anything else is empty.
type wireSteps []wireStep

func (w *wireSteps) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		*w = nil
		return nil
	}
	var steps []wireStep
	if err := json.Unmarshal(b, &steps); err != nil {
		return err
	}
	*w = steps
	return nil
}

type wireSkill struct {
	Name        flexString `json:"name"`
	Description flexString `json:"description"`
	What        flexString `json:"what"`
	Why         flexString `json:"why"`
	How         wireSteps  `json:"how"`
	When        stringList `json:"when"`
	Examples    stringList `json:"examples"`
	Constraints stringList `json:"constraints"`
}

func (w wireSkill) descriptor() distill.SkillDescriptor {
	steps := make([]distill.Step, 0, len(w.How))
	for _, s := range w.How {
		steps = append(steps, distill.Step{
			Order:     int(s.Order),
			Action:    string(s.Action),
			Reasoning: string(s.Reasoning),
		})
	}
	return distill.SkillDescriptor{
		Name:        string(w.Name),
		Description: string(w.Description),
		What:        string(w.What),
		Why:         string(w.Why),
		How:         steps,
		When:        nonNil(w.When),
		Examples:    nonNil(w.Examples),
		Constraints: nonNil(w.Constraints),
	}
}

func nonNil(l stringList) []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}
