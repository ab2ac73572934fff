package emit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

const defaultModuleName = "DynamicProxies"

// Module is the namespace synthesized types are registered in.
type Module struct {
	name  string
	mu    sync.RWMutex
	types map[string]*Type
}

var defaultModule = NewModule(defaultModuleName)

// DefaultModule returns the process-wide module.
func DefaultModule() *Module { return defaultModule }

func NewModule(name string) *Module {
	return &Module{name: name, types: map[string]*Type{}}
}

func (m *Module) Name() string { return m.name }

// UniqueName derives a globally unique type name from prefix.
func (m *Module) UniqueName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// DefineType starts building a type named name on top of base.
func (m *Module) DefineType(name string, base reflect.Type) (*TypeBuilder, error) {
	if err := m.checkFree(name); err != nil {
		return nil, err
	}

	return &TypeBuilder{module: m, name: name, base: base}, nil
}

func (m *Module) checkFree(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if existing, ok := m.types[name]; ok {
		return fmt.Errorf("%w: proxy already registered for %q as type %q", dynproxy.ErrTypeNameCollision, existing.Base, name)
	}

	return nil
}

func (m *Module) register(t *Type) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.types[t.Name]; ok {
		return fmt.Errorf("%w: proxy already registered for %q as type %q", dynproxy.ErrTypeNameCollision, existing.Base, t.Name)
	}

	m.types[t.Name] = t

	return nil
}

// Lookup finds a created type by name.
func (m *Module) Lookup(name string) (*Type, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.types[name]

	return t, ok
}

// Count is the number of types created in m.
func (m *Module) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.types)
}

var (
	ErrTypeCreated     = errors.New("type already created")
	ErrDuplicateMethod = errors.New("method already defined")
	ErrNoConstructor   = errors.New("type has no constructor")
)
