package rag

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelRegistry(t *testing.T) {
	t.Run("Factory Called Once Per Model", func(t *testing.T) {
		calls := 0
		registry := NewModelRegistry(func(modelName string) (Embedder, error) {
			calls++
			return NewMockEmbedder(8), nil
		})

		first, err := registry.Get("model-a")
		assert.NoError(t, err)
		second, err := registry.Get("model-a")
		assert.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)

		_, err = registry.Get("model-b")
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 2, registry.Len())
	})

	t.Run("Factory Failure Not Cached", func(t *testing.T) {
		fail := true
		registry := NewModelRegistry(func(modelName string) (Embedder, error) {
			if fail {
				return nil, errors.New("backend unreachable")
			}
			return NewMockEmbedder(8), nil
		})

		_, err := registry.Get("model")
		assert.Error(t, err)
		assert.Equal(t, 0, registry.Len())

		fail = false
		_, err = registry.Get("model")
		assert.NoError(t, err)
	})

	t.Run("Register Overrides", func(t *testing.T) {
		registry := NewModelRegistry(nil)
		mock := NewMockEmbedder(16)
		registry.Register("model", mock)

		got, err := registry.Get("model")
		assert.NoError(t, err)
		assert.Same(t, mock, got)
	})

	t.Run("No Factory", func(t *testing.T) {
		registry := NewModelRegistry(nil)
		_, err := registry.Get("model")
		assert.Error(t, err)
	})

	t.Run("Concurrent Get", func(t *testing.T) {
		registry := NewModelRegistry(func(modelName string) (Embedder, error) {
			return NewMockEmbedder(8), nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := registry.Get("shared")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, registry.Len())
	})
}
