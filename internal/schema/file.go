package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML form of a schema.
type File struct {
	Relation string   `yaml:"relation"`
	Columns  []Column `yaml:"columns"`
}

func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*k = parsed
	return nil
}

// LoadFile reads and validates a YAML schema file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML schema document.
func Parse(data []byte) (*Schema, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return New(f.Relation, f.Columns)
}

// Marshal renders the schema in its YAML file form.
func (s *Schema) Marshal() ([]byte, error) {
	return yaml.Marshal(File{Relation: s.relation, Columns: s.columns})
}

// Resolve returns a built-in profile by name, or loads the schema from a
// YAML file when ref is not a known profile.
func Resolve(ref string) (*Schema, error) {
	if ref == "" {
		ref = ProfileBoTIoT
	}
	if build, ok := profiles[ref]; ok {
		return build()
	}
	if _, err := os.Stat(ref); err != nil {
		return nil, fmt.Errorf("unknown schema profile %q and no such file", ref)
	}
	return LoadFile(ref)
}
