package weft_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/weftlabs/weft"
)

func TestScrapingStrategy_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *weft.ScrapingStrategy {
		return &weft.ScrapingStrategy{
			ScrapeType:      weft.ScrapeList,
			TargetSelectors: []string{"ul > li"},
			MaxPages:        5,
			RequestDelay:    time.Second,
		}
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, valid().Validate())
	})

	t.Run("unknown scrape type", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.ScrapeType = "grid"
		assert.Error(t, s.Validate())
	})

	t.Run("no selectors", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.TargetSelectors = nil
		assert.Error(t, s.Validate())
	})

	t.Run("empty selector", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.TargetSelectors = []string{"ul > li", ""}
		assert.Error(t, s.Validate())
	})

	t.Run("zero max pages", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.MaxPages = 0
		assert.Error(t, s.Validate())
	})

	t.Run("delay below minimum", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.RequestDelay = 50 * time.Millisecond
		assert.Error(t, s.Validate())
	})

	t.Run("delay at minimum", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.RequestDelay = weft.MinRequestDelay
		assert.NoError(t, s.Validate())
	})
}

func TestExtractedRecord_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *weft.ExtractedRecord {
		return &weft.ExtractedRecord{
			ID:           "r1",
			Data:         map[string]any{"title": "Widget"},
			QualityScore: 80,
		}
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()
		r := valid()
		r.ID = ""
		assert.Error(t, r.Validate())
	})

	t.Run("empty data", func(t *testing.T) {
		t.Parallel()
		r := valid()
		r.Data = nil
		assert.Error(t, r.Validate())
	})

	t.Run("score out of range", func(t *testing.T) {
		t.Parallel()
		r := valid()
		r.QualityScore = 101
		assert.Error(t, r.Validate())
	})
}

func TestExtractedRecord_HasField(t *testing.T) {
	t.Parallel()

	r := &weft.ExtractedRecord{Data: map[string]any{
		"title": "Widget",
		"empty": "",
		"null":  nil,
		"price": 19.99,
	}}

	assert.True(t, r.HasField("title"))
	assert.True(t, r.HasField("price"))
	assert.False(t, r.HasField("empty"))
	assert.False(t, r.HasField("null"))
	assert.False(t, r.HasField("missing"))
}
