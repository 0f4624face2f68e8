package marshal

import (
	"reflect"
	"runtime"
	"sync"
	"weak"

	"github.com/PatrickSachs/SolScript-sub001/object"
)

type identityKey struct {
	typ  reflect.Type
	addr uintptr
}

// identityCache maps host objects to their script wrappers. Wrappers are held
// weakly; an entry is dropped once its wrapper was collected.
type identityCache struct {
	mu      sync.Mutex
	entries map[identityKey]weak.Pointer[object.ClassInstance]
}

type cacheEntry struct {
	key identityKey
	ptr weak.Pointer[object.ClassInstance]
}

func newIdentityCache() *identityCache {
	return &identityCache{entries: make(map[identityKey]weak.Pointer[object.ClassInstance])}
}

func (c *identityCache) load(key identityKey) (*object.ClassInstance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	wp, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	inst := wp.Value()
	if inst == nil {
		delete(c.entries, key)
		return nil, false
	}
	return inst, true
}

func (c *identityCache) store(key identityKey, inst *object.ClassInstance) {
	wp := weak.Make(inst)
	c.mu.Lock()
	c.entries[key] = wp
	c.mu.Unlock()
	runtime.AddCleanup(inst, c.evict, cacheEntry{key: key, ptr: wp})
}

// evict runs on the cleanup goroutine. A newer wrapper stored under the same
// key is left alone.
func (c *identityCache) evict(e cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[e.key]; ok && cur == e.ptr {
		delete(c.entries, e.key)
	}
}

func (c *identityCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
