package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		IDs: []string{"a_0", "a_1", "b_0"},
		Embeddings: [][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
	}
}

func TestSnapshotValidate(t *testing.T) {
	t.Run("Parallel Arrays", func(t *testing.T) {
		assert.NoError(t, testSnapshot().Validate())
	})

	t.Run("Length Mismatch", func(t *testing.T) {
		s := testSnapshot()
		s.Embeddings = s.Embeddings[:2]
		assert.Error(t, s.Validate())
	})

	t.Run("Empty Is Valid", func(t *testing.T) {
		assert.NoError(t, (&Snapshot{}).Validate())
		assert.Equal(t, 0, (&Snapshot{}).Len())
	})
}
