package render

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

// SaveJSON writes skills as a pretty-printed JSON array to path, appending
// .json when missing, and returns the written path
func SaveJSON(skills []distill.SkillDescriptor, path string) (string, error) {
	path = withExt(path, ".json")
	if skills == nil {
		skills = []distill.SkillDescriptor{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(skills); err != nil {
		return "", outputError(path, errors.Wrap(err, "failed to encode skills"))
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", outputError(path, err)
	}
	return path, nil
}

// LoadJSON reads a catalogue written by SaveJSON
func LoadJSON(path string) ([]distill.SkillDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, distill.NotFound(path, err)
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var skills []distill.SkillDescriptor
	if err := json.Unmarshal(data, &skills); err != nil {
		return nil, distill.ParseFailure(path, "invalid skills JSON", err)
	}
	return skills, nil
}

// Schema returns the JSON schema of the catalogue written by SaveJSON
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := reflector.Reflect([]distill.SkillDescriptor{})
	s.Title = "distill skills catalogue"
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal schema")
	}
	return b, nil
}
