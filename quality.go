package weft

// QualityThresholds are the minimum metric values a batch must meet.
type QualityThresholds struct {
	MinCompleteness float64  `json:"minCompleteness"`
	MinAccuracy     float64  `json:"minAccuracy"`
	MinConsistency  float64  `json:"minConsistency"`
	MinOverall      float64  `json:"minOverall"` // in [0,100]
	RequiredFields  []string `json:"requiredFields,omitempty"`
}

// QualityReport scores a batch of extracted records. The component
// metrics are in [0,1]; the overall score is their weighted sum scaled
// to [0,100]. PassesThreshold requires every individual metric to meet
// its threshold and every required field to be present in every record,
// not just the overall average to clear.
type QualityReport struct {
	OverallScore    float64            `json:"overallScore"` // in [0,100]
	Completeness    float64            `json:"completeness"`
	Accuracy        float64            `json:"accuracy"`
	Consistency     float64            `json:"consistency"`
	Relevance       float64            `json:"relevance"`
	FieldScores     map[string]float64 `json:"perFieldScores,omitempty"`
	Issues          []string           `json:"issues,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
	PassesThreshold bool               `json:"passesThreshold"`
	ItemCount       int                `json:"itemCount"`
}

// QualityAnalyzer scores batches of extracted records on completeness,
// accuracy, consistency, and relevance.
type QualityAnalyzer interface {
	// Analyze scores the batch. The recipe, when given, supplies the
	// expected field set and metric weights; otherwise the union of
	// observed fields and default weights are used.
	Analyze(records []*ExtractedRecord, recipe *SchemaRecipe, thresholds QualityThresholds) (*QualityReport, error)

	// Filter returns the subset of records meeting the thresholds,
	// including required-field presence.
	Filter(records []*ExtractedRecord, recipe *SchemaRecipe, thresholds QualityThresholds) []*ExtractedRecord
}
