package htmltomarkdown_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/weft"
	"github.com/weftlabs/weft/htmltomarkdown"
)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	c := htmltomarkdown.NewConverter()

	t.Run("basic markup", func(t *testing.T) {
		t.Parallel()
		got, err := c.Convert(`<h1>Heading</h1><p>Some <strong>bold</strong> and <em>italic</em> text.</p>`)
		require.NoError(t, err)
		assert.Contains(t, got, "# Heading")
		assert.Contains(t, got, "**bold**")
		assert.Contains(t, got, "*italic*")
	})

	t.Run("links and lists", func(t *testing.T) {
		t.Parallel()
		got, err := c.Convert(`<ul><li><a href="https://example.com">Example</a></li><li>Plain</li></ul>`)
		require.NoError(t, err)
		assert.Contains(t, got, "[Example](https://example.com)")
		assert.Contains(t, got, "- Plain")
	})

	t.Run("tables", func(t *testing.T) {
		t.Parallel()
		got, err := c.Convert(`<table><tr><th>Name</th><th>Price</th></tr><tr><td>Widget</td><td>$9</td></tr></table>`)
		require.NoError(t, err)
		assert.Contains(t, got, "| Name | Price |")
		assert.Contains(t, got, "| Widget | $9 |")
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		_, err := c.Convert("   \n\t  ")
		require.Error(t, err)
		assert.Equal(t, weft.EINVALID, weft.ErrorCode(err))
	})
}
