package weft

import "math"

// FieldType identifies the portable value type of an extracted field.
type FieldType string

// Field value types.
const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// ValidFieldType reports whether t is a known field type.
func ValidFieldType(t FieldType) bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeArray, TypeObject:
		return true
	}
	return false
}

// weightTolerance is the allowed deviation of a weight sum from 1.0.
const weightTolerance = 0.01

// QualityWeights apportions the overall quality score across the four
// quality metrics. The weights must sum to 1.0 within a 0.01 tolerance.
type QualityWeights struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Consistency  float64 `json:"consistency"`
	Relevance    float64 `json:"relevance"`
}

// DefaultSchemaWeights returns the weights used when a schema context
// does not supply its own.
func DefaultSchemaWeights() QualityWeights {
	return QualityWeights{Completeness: 0.4, Accuracy: 0.4, Consistency: 0.2}
}

// DefaultReportWeights returns the weights the quality analyzer uses
// when no schema is available.
func DefaultReportWeights() QualityWeights {
	return QualityWeights{Completeness: 0.3, Accuracy: 0.3, Consistency: 0.2, Relevance: 0.2}
}

// Sum returns the total of all four weights.
func (w QualityWeights) Sum() float64 {
	return w.Completeness + w.Accuracy + w.Consistency + w.Relevance
}

// Validate returns an error unless the weights sum to 1.0 within
// tolerance and each weight is non-negative.
func (w QualityWeights) Validate() error {
	for _, v := range []float64{w.Completeness, w.Accuracy, w.Consistency, w.Relevance} {
		if v < 0 {
			return Errorf(EINVALID, "quality weight must be non-negative, got %v", v)
		}
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return Errorf(EINVALID, "quality weights must sum to 1.0, got %v", w.Sum())
	}
	return nil
}

// FieldDefinition describes how to extract and post-process one field.
type FieldDefinition struct {
	Type              FieldType `json:"type"`
	Description       string    `json:"description,omitempty"`
	Selector          string    `json:"selector"`
	FallbackSelectors []string  `json:"fallbackSelectors,omitempty"`
	ValidationPattern string    `json:"validationPattern,omitempty"`
	Required          bool      `json:"required"`
	QualityWeight     float64   `json:"qualityWeight"` // in [0,1]
	PostProcessing    []string  `json:"postProcessing,omitempty"`
}

// Validate returns an error if the field definition is malformed.
func (f *FieldDefinition) Validate() error {
	if f.Selector == "" {
		return Errorf(EINVALID, "field selector required")
	}
	if !ValidFieldType(f.Type) {
		return Errorf(EINVALID, "unknown field type %q", f.Type)
	}
	if f.QualityWeight < 0 || f.QualityWeight > 1 {
		return Errorf(EINVALID, "field quality weight must be in [0,1], got %v", f.QualityWeight)
	}
	return nil
}

// SchemaRecipe is a named, versioned set of field definitions describing
// what to extract from a document family. Recipes are immutable value
// objects that may be cached and replayed across many fetches of the
// same site.
type SchemaRecipe struct {
	Name            string                     `json:"name"`
	Description     string                     `json:"description,omitempty"`
	Fields          map[string]FieldDefinition `json:"fields"`
	ValidationRules []string                   `json:"validationRules,omitempty"`
	Weights         QualityWeights             `json:"qualityWeights"`
	Version         string                     `json:"version"`
	Notes           []string                   `json:"notes,omitempty"`
}

// Validate returns an error if the recipe violates its invariants.
// A recipe with zero fields is valid: it signals that nothing extractable
// was found, which callers must treat as a normal low-confidence case.
func (r *SchemaRecipe) Validate() error {
	if r.Name == "" {
		return Errorf(EINVALID, "recipe name required")
	}
	if r.Version == "" {
		return Errorf(EINVALID, "recipe version required")
	}
	if err := r.Weights.Validate(); err != nil {
		return err
	}
	for name, f := range r.Fields {
		if err := f.Validate(); err != nil {
			return Errorf(EINVALID, "field %q: %s", name, ErrorMessage(err))
		}
	}
	return nil
}

// RequiredFields returns the names of all required fields, in no
// particular order.
func (r *SchemaRecipe) RequiredFields() []string {
	var out []string
	for name, f := range r.Fields {
		if f.Required {
			out = append(out, name)
		}
	}
	return out
}

// ExtractionRules converts the recipe's field definitions into the rule
// map consumed by an Extractor.
func (r *SchemaRecipe) ExtractionRules() map[string]ExtractionRule {
	rules := make(map[string]ExtractionRule, len(r.Fields))
	for name, f := range r.Fields {
		rules[name] = ExtractionRule{
			Selector:          f.Selector,
			FallbackSelectors: f.FallbackSelectors,
			Kind:              kindForField(name, f),
			Weight:            f.QualityWeight,
			PostProcessing:    f.PostProcessing,
		}
	}
	return rules
}

// kindForField picks the extraction kind implied by a field definition.
// Image-like fields read src attributes and link-like fields read hrefs;
// everything else extracts text.
func kindForField(name string, f FieldDefinition) ExtractionKind {
	switch name {
	case "image", "thumbnail", "photo":
		return KindSrc
	case "link", "url":
		return KindHref
	}
	return KindText
}

// SchemaContext carries the caller's intent into schema generation.
type SchemaContext struct {
	// UserCriteria is the free-text request the caller supplied; field
	// patterns whose names appear in it are ranked higher.
	UserCriteria string

	// TargetContentType optionally names the content type the caller is
	// after (e.g. "product", "article").
	TargetContentType string

	// FieldPreferences lists field names to favor, in priority order.
	FieldPreferences []string

	// Weights overrides the default quality weights. Must sum to 1.0
	// when set.
	Weights *QualityWeights
}

// SchemaGenerator infers a field schema from a structural analysis.
type SchemaGenerator interface {
	// Generate clusters repeated structural fragments into field
	// patterns and emits a named field schema. When no candidate
	// containers are found it returns a recipe with zero fields plus a
	// diagnostic note; it never fabricates fields.
	Generate(analysis *StructureAnalysis, html string, sctx SchemaContext) (*SchemaRecipe, error)
}
