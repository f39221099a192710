package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/jewelry-be/internal/core/domain"
)

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		text      string
		category  string
		karat     string
		condition domain.ItemCondition
	}{
		{"18K yellow gold solitaire ring", "rings", "18K", domain.ConditionNew},
		{"22K Cuban link chain", "chains", "22K", domain.ConditionNew},
		{"14kt white gold hoop earrings", "earrings", "14K", domain.ConditionNew},
		{"Used 21 karat wedding band", "rings", "21K", domain.ConditionUsed},
		{"Recycled 18K gold scrap lot", "other", "18K", domain.ConditionRecycled},
		{"Gold nugget", "other", "unknown", domain.ConditionNew},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			category, karat, condition := c.Classify(tt.text)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.karat, karat)
			assert.Equal(t, tt.condition, condition)
		})
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	c := NewClassifier()
	for _, entry := range defaultCatalog {
		item := c.BuildItem(entry)
		assert.NoError(t, item.Validate(), entry.Description)
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"description":"18K ring","weight":"3.5","price_per_gram":"60","stock":2}]`), 0o600))

	entries, err := loadCatalog(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "3.5", entries[0].Weight.String())

	_, err = loadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
