package wrapper

import (
	"sort"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
)

// ConcurrentSwissMap is a string keyed registry safe for concurrent use.
type ConcurrentSwissMap[V any] struct {
	m *csmap.CsMap[string, V]
}

func CreateConcurrentSwissMap[V any](size uint64) *ConcurrentSwissMap[V] {
	return &ConcurrentSwissMap[V]{
		m: csmap.Create[string, V](
			csmap.WithSize[string, V](size),
		),
	}
}

func (m *ConcurrentSwissMap[V]) Load(key string) (value V, ok bool) {
	return m.m.Load(key)
}

// Range calls f for each entry until f returns false.
func (m *ConcurrentSwissMap[V]) Range(f func(key string, value V) bool) {
	m.m.Range(func(key string, value V) bool {
		return !f(key, value)
	})
}

func (m *ConcurrentSwissMap[V]) Store(key string, value V) {
	m.m.Store(key, value)
}

func (m *ConcurrentSwissMap[V]) Count() int {
	return m.m.Count()
}

// Keys returns the keys in ascending order.
func (m *ConcurrentSwissMap[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	sort.Strings(keys)
	return keys
}
