package llm

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

/* =================================================================================
							GEMINI SCHEMA DEFINITION
	Gemini accepts an OpenAPI subset rather than full JSON Schema, so the
	reflected tool schema is converted before it is declared as a function.
=================================================================================*/

// GeminiSchema is the function-declaration parameter schema understood by Gemini.
type GeminiSchema struct {
	// Type is the upper-case data type ("OBJECT", "ARRAY", "STRING", "INTEGER", ...).
	Type string `json:"type"`

	// Format is "enum" for restricted strings.
	Format string `json:"format,omitempty"`

	Description string `json:"description,omitempty"`

	// Properties maps field names to child schemas when Type is "OBJECT".
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`

	// Items is the element schema when Type is "ARRAY".
	Items *GeminiSchema `json:"items,omitempty"`

	Required []string `json:"required,omitempty"`

	Enum []string `json:"enum,omitempty"`
}

// ToGeminiSchema converts a reflected JSON Schema into GeminiSchema.
// Keywords without a Gemini equivalent (additionalProperties, $schema) are dropped.
func ToGeminiSchema(s *jsonschema.Schema) (*GeminiSchema, error) {
	if s == nil {
		return nil, nil
	}
	if s.Type == "" {
		return nil, fmt.Errorf("schema %q has no type", s.Title)
	}

	out := &GeminiSchema{
		Type:        strings.ToUpper(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}

	if len(s.Enum) > 0 {
		out.Format = "enum"
		for _, v := range s.Enum {
			out.Enum = append(out.Enum, fmt.Sprint(v))
		}
	}

	if s.Properties != nil && s.Properties.Len() > 0 {
		out.Properties = make(map[string]*GeminiSchema, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			child, err := ToGeminiSchema(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", pair.Key, err)
			}
			out.Properties[pair.Key] = child
		}
	}

	if s.Items != nil {
		items, err := ToGeminiSchema(s.Items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		out.Items = items
	}

	return out, nil
}
