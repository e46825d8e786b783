package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_LoadBeforeStore(t *testing.T) {
	var s Snapshot[[]string]
	v, ok := s.Load()
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSnapshot_StoreSwapsValue(t *testing.T) {
	var s Snapshot[map[string]int]
	s.Store(map[string]int{"a": 1})
	s.Store(map[string]int{"b": 2})

	v, ok := s.Load()
	assert.True(t, ok)
	assert.Equal(t, map[string]int{"b": 2}, v)
}

func TestSnapshot_ConcurrentReaders(t *testing.T) {
	var s Snapshot[int]
	s.Store(1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				s.Store(n)
				return
			}
			_, ok := s.Load()
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()
}
