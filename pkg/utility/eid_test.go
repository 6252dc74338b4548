package utility

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtility_NewRunID(t *testing.T) {
	id1 := NewRunID()
	id2 := NewRunID()

	assert.NotEqual(t, id1, id2)
	assert.EqualValues(t, 7, id1.Version())
}

func TestUtility_ParseRunID(t *testing.T) {
	id := NewRunID()

	parsed, err := ParseRunID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseRunID("not-a-run")
	assert.Error(t, err)
}

func TestUtility_NewRunIDConcurrent(t *testing.T) {
	const goroutines = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	results := make([]RunID, goroutines)
	for i := 0; i < goroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			results[idx] = NewRunID()
		}(i)
	}
	wg.Wait()

	seen := make(map[RunID]struct{}, goroutines)
	for _, id := range results {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, goroutines)
}
