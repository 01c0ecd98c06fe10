package goquery

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.SchemaGenerator = (*SchemaGenerator)(nil)

// SchemaGenerator clusters repeated structural fragments into field
// patterns and emits a named field schema. It is stateless and safe for
// concurrent use.
type SchemaGenerator struct{}

// NewSchemaGenerator creates a new SchemaGenerator.
func NewSchemaGenerator() *SchemaGenerator {
	return &SchemaGenerator{}
}

// Generation limits.
const (
	maxSampledContainers = 10
	maxSchemaFields      = 10
	maxFieldSamples      = 5
	maxFallbackSelectors = 3

	// requiredImportance marks a field required once its importance
	// exceeds this.
	requiredImportance = 0.7

	// typeVoteRatio is the sample fraction that must match a type's
	// regex family for the type to be adopted.
	typeVoteRatio = 0.6
)

// fieldPattern is one clustered field candidate. Confidence measures
// selector reliability (how consistently the cluster appears across
// containers); importance measures semantic priority. The two axes are
// independent.
type fieldPattern struct {
	name              string
	fieldType         weft.FieldType
	selectors         []string
	samples           []string
	confidence        float64
	importance        float64
	validationPattern string
}

// groupAgg accumulates one (tag, ownClasses, parentClasses) cluster
// across sampled containers.
type groupAgg struct {
	tag         string
	ownClass    string
	parentClass string
	containers  int
	selectors   map[string]int
	samples     []string
}

// Generate infers a schema recipe from the analyzed document. When no
// candidate containers or text-bearing groups are found it returns a
// recipe with zero fields plus a diagnostic note; it never fabricates
// fields.
func (g *SchemaGenerator) Generate(analysis *weft.StructureAnalysis, html string, sctx weft.SchemaContext) (*weft.SchemaRecipe, error) {
	recipe := &weft.SchemaRecipe{
		Name:    recipeName(analysis, sctx),
		Fields:  map[string]weft.FieldDefinition{},
		Weights: schemaWeights(sctx),
		Version: "1.0.0",
	}
	if err := recipe.Weights.Validate(); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		recipe.Notes = append(recipe.Notes, "document could not be parsed; no fields inferred")
		return recipe, nil
	}

	containers := g.sampleContainers(doc, analysis)
	if len(containers) == 0 {
		recipe.Notes = append(recipe.Notes, "no candidate item containers found; no fields inferred")
		return recipe, nil
	}

	groups := g.clusterFields(containers)
	patterns := g.buildFieldPatterns(groups, len(containers))
	patterns = mergePatterns(patterns)
	patterns = rankPatterns(patterns, sctx)
	if len(patterns) > maxSchemaFields {
		patterns = patterns[:maxSchemaFields]
	}

	for _, p := range patterns {
		if _, exists := recipe.Fields[p.name]; exists {
			continue
		}
		def := weft.FieldDefinition{
			Type:              p.fieldType,
			Description:       fmt.Sprintf("inferred %s field (%d samples)", p.name, len(p.samples)),
			Selector:          p.selectors[0],
			ValidationPattern: p.validationPattern,
			Required:          p.importance > requiredImportance,
			QualityWeight:     p.importance,
			PostProcessing:    defaultPostProcessing(p.name),
		}
		if len(p.selectors) > 1 {
			fallbacks := p.selectors[1:]
			if len(fallbacks) > maxFallbackSelectors {
				fallbacks = fallbacks[:maxFallbackSelectors]
			}
			def.FallbackSelectors = fallbacks
		}
		recipe.Fields[p.name] = def
	}

	if len(recipe.Fields) == 0 {
		recipe.Notes = append(recipe.Notes, "containers contained no text-bearing groups; no fields inferred")
	}
	return recipe, nil
}

// sampleContainers locates candidate item containers from the
// analyzer's item selectors, list containers, and high-confidence
// content patterns, capped at maxSampledContainers.
func (g *SchemaGenerator) sampleContainers(doc *goquery.Document, analysis *weft.StructureAnalysis) []*goquery.Selection {
	var out []*goquery.Selection
	appendMatches := func(sel string, itemLevel bool) {
		if sel == "" || len(out) >= maxSampledContainers {
			return
		}
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if itemLevel {
				out = append(out, s)
			} else {
				s.Children().EachWithBreak(func(_ int, child *goquery.Selection) bool {
					out = append(out, child)
					return len(out) < maxSampledContainers
				})
			}
			return len(out) < maxSampledContainers
		})
	}

	for _, sel := range analysis.ItemSelectors {
		appendMatches(sel, true)
	}
	if len(out) == 0 {
		for _, sel := range analysis.ListContainers {
			appendMatches(sel, false)
		}
	}
	if len(out) == 0 {
		for _, p := range analysis.ContentPatterns {
			if p.Confidence < 0.6 {
				continue
			}
			switch p.Kind {
			case weft.PatternList, weft.PatternProduct:
				appendMatches(p.Selector, false)
			case weft.PatternArticle:
				appendMatches(p.Selector, true)
			}
		}
	}
	return out
}

// clusterFields groups text-bearing descendant elements of each
// container by (tag, own classes, parent classes) signature.
func (g *SchemaGenerator) clusterFields(containers []*goquery.Selection) map[string]*groupAgg {
	groups := map[string]*groupAgg{}

	for _, container := range containers {
		seenInContainer := map[string]bool{}

		container.Find("*").Each(func(_ int, el *goquery.Selection) {
			tag := goquery.NodeName(el)

			value := strings.TrimSpace(firstOwnText(el))
			if tag == "img" {
				value = el.AttrOr("src", "")
			}
			if value == "" {
				return
			}

			ownClass := classSignature(el)
			parentClass := classSignature(el.Parent())
			key := tag + "|" + ownClass + "|" + parentClass

			agg, ok := groups[key]
			if !ok {
				agg = &groupAgg{
					tag:         tag,
					ownClass:    ownClass,
					parentClass: parentClass,
					selectors:   map[string]int{},
				}
				groups[key] = agg
			}
			if !seenInContainer[key] {
				seenInContainer[key] = true
				agg.containers++
			}
			agg.selectors[memberSelector(tag, el)]++
			if len(agg.samples) < maxFieldSamples {
				agg.samples = append(agg.samples, value)
			}
		})
	}
	return groups
}

// buildFieldPatterns turns clusters into field candidates with inferred
// names, types, and independent confidence/importance scores.
func (g *SchemaGenerator) buildFieldPatterns(groups map[string]*groupAgg, sampled int) []fieldPattern {
	var patterns []fieldPattern
	for _, agg := range groups {
		if len(agg.samples) == 0 {
			continue
		}
		hint := agg.ownClass
		name, importance := inferFieldName(agg.tag, hint, agg.parentClass, agg.samples[0])
		ftype := majorityType(agg.samples)

		patterns = append(patterns, fieldPattern{
			name:              name,
			fieldType:         ftype,
			selectors:         rankedSelectors(agg.selectors),
			samples:           agg.samples,
			confidence:        min(1.0, float64(agg.containers)/float64(sampled)),
			importance:        importance,
			validationPattern: validationPatternFor(name),
		})
	}
	return patterns
}

// mergePatterns merges duplicate (name, type) patterns, unioning
// selectors and samples and keeping the maximum confidence and
// importance seen.
func mergePatterns(patterns []fieldPattern) []fieldPattern {
	merged := map[string]*fieldPattern{}
	var order []string
	for _, p := range patterns {
		key := p.name + "|" + string(p.fieldType)
		existing, ok := merged[key]
		if !ok {
			cp := p
			merged[key] = &cp
			order = append(order, key)
			continue
		}
		// The more widely observed cluster's selectors rank first.
		if p.confidence > existing.confidence {
			existing.selectors = unionStrings(p.selectors, existing.selectors)
			existing.confidence = p.confidence
		} else {
			existing.selectors = unionStrings(existing.selectors, p.selectors)
		}
		existing.samples = unionStrings(existing.samples, p.samples)
		existing.importance = max(existing.importance, p.importance)
	}

	out := make([]fieldPattern, 0, len(merged))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	return out
}

// rankPatterns orders candidates by importance x confidence, boosts
// patterns named in the user criteria, and moves preferred fields to
// the front in preference order.
func rankPatterns(patterns []fieldPattern, sctx weft.SchemaContext) []fieldPattern {
	criteria := strings.ToLower(sctx.UserCriteria)
	for i := range patterns {
		if criteria != "" && strings.Contains(criteria, patterns[i].name) {
			patterns[i].importance = min(1.0, patterns[i].importance*1.2)
		}
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].importance*patterns[i].confidence > patterns[j].importance*patterns[j].confidence
	})

	// Honor explicit field preferences by stable move-to-front.
	for i := len(sctx.FieldPreferences) - 1; i >= 0; i-- {
		pref := sctx.FieldPreferences[i]
		for j, p := range patterns {
			if p.name != pref {
				continue
			}
			patterns = append(patterns[:j], patterns[j+1:]...)
			patterns = append([]fieldPattern{p}, patterns...)
			break
		}
	}
	return patterns
}

// majorityType adopts a type when at least typeVoteRatio of the samples
// match its regex family, defaulting to string.
func majorityType(samples []string) weft.FieldType {
	if len(samples) == 0 {
		return weft.TypeString
	}
	var numbers, booleans int
	for _, s := range samples {
		if numberPattern.MatchString(s) || pricePattern.MatchString(s) {
			numbers++
		}
		if boolPattern.MatchString(s) {
			booleans++
		}
	}
	n := float64(len(samples))
	switch {
	case float64(booleans)/n >= typeVoteRatio:
		return weft.TypeBoolean
	case float64(numbers)/n >= typeVoteRatio:
		return weft.TypeNumber
	}
	return weft.TypeString
}

// memberSelector builds the in-container selector recorded for a
// cluster member.
func memberSelector(tag string, el *goquery.Selection) string {
	if class := firstUsableClass(el); class != "" {
		return tag + "." + class
	}
	return tag
}

// rankedSelectors orders a cluster's selectors by frequency, most
// common first.
func rankedSelectors(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for sel := range counts {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range append(a, b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// schemaWeights returns the context's weights or the defaults.
func schemaWeights(sctx weft.SchemaContext) weft.QualityWeights {
	if sctx.Weights != nil {
		return *sctx.Weights
	}
	return weft.DefaultSchemaWeights()
}

// recipeName derives a stable recipe name from the source host and the
// targeted content type.
func recipeName(analysis *weft.StructureAnalysis, sctx weft.SchemaContext) string {
	host := "site"
	if u, err := url.Parse(analysis.SourceURL); err == nil && u.Host != "" {
		host = u.Host
	}
	contentType := sctx.TargetContentType
	if contentType == "" && len(analysis.ContentTypes) > 0 {
		contentType = analysis.ContentTypes[0]
	}
	if contentType == "" {
		contentType = "content"
	}
	return host + "-" + contentType
}
