// Package gemini provides implementations for the generation interface using Google's Gemini API.
package gemini

// promptData represents the data passed to the prompt template
type promptData struct {
	SchemaName   string
	Fields       []promptField
	Examples     []string
	Count        int
	Instructions string
}

// promptField is one schema field flattened for the template: the declared
// kind is pre-rendered ("string", "list of number", "optional time", ...)
// so the template stays free of logic.
type promptField struct {
	Name        string
	Type        string
	Description string
}

// responseEnvelope represents the expected structure of the Gemini response
type responseEnvelope struct {
	// Records is the array of generated records, one JSON object per record
	// keyed by schema field name
	Records []map[string]any `json:"records"`
}
