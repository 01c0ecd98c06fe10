package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/weft"
	"github.com/weftlabs/weft/pipeline"
)

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	p := pipeline.NewProcessor()

	tests := []struct {
		name  string
		steps []string
		in    any
		want  any
	}{
		{"trim", []string{"trim"}, "  hello  ", "hello"},
		{"clean strips markup", []string{"clean"}, "<b>Hello</b>&nbsp;  world", "Hello world"},
		{"normalize", []string{"normalize"}, "  Hello, World!  ", "hello, world"},
		{"capitalize", []string{"capitalize"}, "hELLO WORLD", "Hello world"},
		{"title case", []string{"title_case"}, "the quick fox", "The Quick Fox"},
		{"extract numbers", []string{"extract_numbers"}, "$1,299.99 only", "1299.99"},
		{"extract emails", []string{"extract_emails"}, "reach me at jo@example.com now", "jo@example.com"},
		{"to number", []string{"to_number"}, "$19.99", 19.99},
		{"to integer", []string{"to_integer"}, "42 items", int64(42)},
		{"to boolean truthy", []string{"to_boolean"}, "In Stock", true},
		{"to boolean falsy", []string{"to_boolean"}, "out of stock", false},
		{"to date", []string{"to_date"}, "January 2, 2026", "2026-01-02"},
		{"to url valid", []string{"to_url"}, "https://example.com/x", "https://example.com/x"},
		{"to url invalid", []string{"to_url"}, "not a url", nil},
		{"to phone", []string{"to_phone"}, "+1 (555) 123-4567", "+15551234567"},
		{"validate rejects short", []string{"validate"}, "x", nil},
		{"validate rejects punctuation", []string{"validate"}, "?!...---!!", nil},
		{"chained", []string{"trim", "clean", "extract_numbers", "to_number"}, " $19.99 ", 19.99},
		{"non-string passes string steps", []string{"trim", "lowercase"}, 3.5, 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := p.Process(tt.steps, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcessor_UnknownStep(t *testing.T) {
	t.Parallel()

	p := pipeline.NewProcessor()
	_, err := p.Process([]string{"trim", "frobnicate"}, "x")
	require.Error(t, err)
	assert.Equal(t, weft.EINVALID, weft.ErrorCode(err))
}

// Every registered step must be idempotent: running it on its own
// output is a no-op.
func TestProcessor_StepsAreIdempotent(t *testing.T) {
	t.Parallel()

	p := pipeline.NewProcessor()

	inputs := []any{
		"  Mixed CASE text, with 2 numbers: $1,299.99!  ",
		"<p>Some <b>HTML</b> &amp; entities</p>",
		"contact: jo@example.com / +1 555 123 4567",
		"2026-01-02",
		"January 2, 2026",
		"In Stock",
		"apple, banana, apple",
		42.0,
		nil,
	}

	for _, step := range pipeline.Steps() {
		for _, in := range inputs {
			once, err := p.Process([]string{step}, in)
			require.NoError(t, err, "step %s", step)
			twice, err := p.Process([]string{step}, once)
			require.NoError(t, err, "step %s", step)
			assert.Equal(t, once, twice, "step %q not idempotent on %v", step, in)
		}
	}
}

func TestProcessor_PipelineIdempotence(t *testing.T) {
	t.Parallel()

	p := pipeline.NewProcessor()
	steps := []string{"trim", "clean", "normalize"}

	once, err := p.Process(steps, "  <b>Hello</b>   World!  ")
	require.NoError(t, err)
	twice, err := p.Process(steps, once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestProcessor_NilPropagates(t *testing.T) {
	t.Parallel()

	p := pipeline.NewProcessor()

	// A rejected value stays rejected through later steps.
	got, err := p.Process([]string{"to_number", "to_integer", "validate"}, "no digits here")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProcessor_ToArrayAndDedup(t *testing.T) {
	t.Parallel()

	p := pipeline.NewProcessor()

	got, err := p.Process([]string{"to_array", "dedup"}, "a, b, a, c")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, got)

	// Already-converted arrays pass through to_array unchanged.
	again, err := p.Process([]string{"to_array", "dedup"}, got)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}
