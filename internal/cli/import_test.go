// Package cli — import_test.go contains unit tests for the pure helper
// functions used by the import and query commands.
//
// These tests verify data transformation logic without requiring a
// Weaviate instance or any external dependencies.
package cli

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harukaze-lab/weavekit/internal/dataset"
	"github.com/harukaze-lab/weavekit/internal/weaviate"
)

// makeRecords builds n records with sequential IDs for chunking tests.
func makeRecords(n int) []dataset.Record {
	records := make([]dataset.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, dataset.Record{
			ID:         fmt.Sprintf("id-%d", i),
			Properties: map[string]interface{}{"n": i},
		})
	}
	return records
}

// TestChunkRecords verifies that chunkRecords splits the dataset into
// batches of the right size while preserving order.
func TestChunkRecords(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		size      int
		wantSizes []int
	}{
		{
			name:      "empty dataset yields no chunks",
			total:     0,
			size:      10,
			wantSizes: nil,
		},
		{
			name:      "exact multiple of the batch size",
			total:     20,
			size:      10,
			wantSizes: []int{10, 10},
		},
		{
			name:      "remainder lands in a short final chunk",
			total:     25,
			size:      10,
			wantSizes: []int{10, 10, 5},
		},
		{
			name:      "dataset smaller than one batch",
			total:     3,
			size:      10,
			wantSizes: []int{3},
		},
		{
			name:      "non-positive size falls back to one chunk",
			total:     7,
			size:      0,
			wantSizes: []int{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := makeRecords(tt.total)
			chunks := chunkRecords(records, tt.size)

			require.Len(t, chunks, len(tt.wantSizes))
			for i, chunk := range chunks {
				assert.Len(t, chunk, tt.wantSizes[i])
			}

			// Order must be preserved end to end.
			var flat []dataset.Record
			for _, chunk := range chunks {
				flat = append(flat, chunk...)
			}
			assert.Equal(t, records[:len(flat)], flat)
		})
	}
}

// TestFormatHitFields verifies that requested fields print first in
// their requested order, with unrequested fields appended alphabetically.
func TestFormatHitFields(t *testing.T) {
	hit := weaviate.SearchHit{
		Fields: map[string]interface{}{
			"title":    "Vector Databases",
			"category": "infrastructure",
			"zebra":    "extra",
			"alpha":    "extra",
		},
	}

	lines := formatHitFields(hit, []string{"title", "category", "missing"})

	require.Len(t, lines, 4)
	assert.Equal(t, "title: Vector Databases", lines[0])
	assert.Equal(t, "category: infrastructure", lines[1])
	// Extra fields follow in alphabetical order.
	assert.Equal(t, "alpha: extra", lines[2])
	assert.Equal(t, "zebra: extra", lines[3])
}
