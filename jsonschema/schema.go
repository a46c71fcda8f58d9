package jsonschema

// Schema is a minimal JSON Schema representation used to describe the JSON
// shape of a collected container. Keep this struct small and extend
// incrementally.
type Schema struct {
	// Core
	Schema      string `json:"$schema,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`

	// Array
	Items       *Schema   `json:"items,omitempty"`
	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	MinItems    *int      `json:"minItems,omitempty"`
	MaxItems    *int      `json:"maxItems,omitempty"`
	UniqueItems bool      `json:"uniqueItems,omitempty"`

	// Object
	AdditionalProperties *Schema `json:"additionalProperties,omitempty"`

	// Union
	AnyOf []*Schema `json:"anyOf,omitempty"`
}

// Draft is the dialect written by the exporters in this module.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Count returns a pointer to n, for MinItems/MaxItems.
func Count(n int) *int { return &n }
