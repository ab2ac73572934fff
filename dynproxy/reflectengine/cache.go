package reflectengine

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// TypeKey is the structural identity of a proxy type.
// Interfaces is a canonical fingerprint of the interface set, independent of its order.
type TypeKey struct {
	BaseType              reflect.Type
	TargetType            reflect.Type
	Interfaces            string
	ProxyTargetAttributes bool
}

// NewTypeKey builds a key; interfaces are deduplicated and sorted by name and identity.
func NewTypeKey(baseType, targetType reflect.Type, interfaces []reflect.Type, proxyTargetAttributes bool) TypeKey {
	sorted := slices.Clone(interfaces)
	slices.SortFunc(sorted, func(a, b reflect.Type) int {
		if c := cmp.Compare(a.String(), b.String()); c != 0 {
			return c
		}

		return cmp.Compare(typeIdentity(a), typeIdentity(b))
	})
	sorted = slices.Compact(sorted)

	parts := make([]string, len(sorted))
	for i, iface := range sorted {
		parts[i] = iface.String() + "@" + typeIdentity(iface)
	}

	return TypeKey{
		BaseType:              baseType,
		TargetType:            targetType,
		Interfaces:            strings.Join(parts, ","),
		ProxyTargetAttributes: proxyTargetAttributes,
	}
}

// typeIdentity distinguishes types with equal names, e.g. types declared inside functions.
func typeIdentity(t reflect.Type) string {
	return fmt.Sprintf("%p", t)
}

func (k TypeKey) String() string {
	return fmt.Sprintf("%v|%v|%s|%t", k.BaseType, k.TargetType, k.Interfaces, k.ProxyTargetAttributes)
}

// flightKey is unique per key even when type names collide.
func (k TypeKey) flightKey() string {
	return fmt.Sprintf("%p|%p|%s|%t", k.BaseType, k.TargetType, k.Interfaces, k.ProxyTargetAttributes)
}

// TypeCache memoizes synthesized proxy types by structural key. It never evicts.
// Lookups are lock-free; concurrent misses for one key share a single build.
// A failed build stores nothing.
type TypeCache struct {
	types  sync.Map // TypeKey -> *ProxyType
	builds singleflight.Group
}

var defaultTypeCache = NewTypeCache()

// DefaultTypeCache returns the process-wide cache used by factories without WithTypeCache.
func DefaultTypeCache() *TypeCache { return defaultTypeCache }

func NewTypeCache() *TypeCache {
	return &TypeCache{}
}

// GetOrBuild returns the cached type for key, building it on a miss. hit reports a cache hit.
func (c *TypeCache) GetOrBuild(key TypeKey, build func() (*ProxyType, error)) (pt *ProxyType, hit bool, err error) {
	if cached, ok := c.types.Load(key); ok {
		return cached.(*ProxyType), true, nil
	}

	built, err, _ := c.builds.Do(key.flightKey(), func() (any, error) {
		if cached, ok := c.types.Load(key); ok {
			return cached, nil
		}

		fresh, buildErr := build()
		if buildErr != nil {
			return nil, buildErr
		}

		actual, _ := c.types.LoadOrStore(key, fresh)

		return actual, nil
	})
	if err != nil {
		return nil, false, err
	}

	return built.(*ProxyType), false, nil
}

// Lookup returns the cached type for key without building.
func (c *TypeCache) Lookup(key TypeKey) (*ProxyType, bool) {
	cached, ok := c.types.Load(key)
	if !ok {
		return nil, false
	}

	return cached.(*ProxyType), true
}

// Count returns the number of cached types.
func (c *TypeCache) Count() int {
	n := 0
	c.types.Range(func(any, any) bool {
		n++
		return true
	})

	return n
}

// Clear drops every cached type. Existing proxy instances keep working.
func (c *TypeCache) Clear() {
	c.types.Range(func(key, _ any) bool {
		c.types.Delete(key)
		return true
	})
}
