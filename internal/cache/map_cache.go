package cache

import "sync"

var _ Cache = (*MapCache)(nil)

// MapCache is an unbounded, synchronous cache, used in tests and tools.
type MapCache struct {
	cache map[interface{}]interface{}
	mutex sync.Mutex
}

func NewMapCache() *MapCache {
	return &MapCache{
		cache: make(map[interface{}]interface{}),
	}
}

func (mc *MapCache) Get(key interface{}) (interface{}, bool) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	val, ok := mc.cache[key]
	return val, ok
}

func (mc *MapCache) Set(key, value interface{}, _ int64) bool {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	mc.cache[key] = value
	return true
}

func (mc *MapCache) Clear() {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	mc.cache = make(map[interface{}]interface{})
}
