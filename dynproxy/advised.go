package dynproxy

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
)

// Advised describes one proxying intent: what is proxied, how, and through which interceptors.
type Advised interface {
	// Target never returns nil; an unset target reads as an EmptyTarget placeholder.
	Target() any
	// TargetType is the target's dynamic type, or the type of any when no target is set.
	TargetType() reflect.Type
	TargetSource() TargetSource
	Interfaces() []reflect.Type
	// Interceptors returns a snapshot in chain order.
	Interceptors() []Interceptor
	ExposeProxy() bool
	ProxyTargetType() bool
	ProxyTargetAttributes() bool
	IsFrozen() bool
	IsInterfaceProxied(iface reflect.Type) bool
}

// EmptyTarget is the placeholder returned by Advised.Target when no target was set.
type EmptyTarget struct{}

var (
	anyType     = reflect.TypeFor[any]()
	placeholder = &EmptyTarget{}
)

// AnyType is the target type reported when no target is configured.
func AnyType() reflect.Type { return anyType }

// AdvisedSupport is the mutable Advised implementation.
// The usual pattern is configure, freeze, share. Creating a proxy freezes the structure
// (target source, interfaces, flags); interceptor reads are lock-free snapshots, so proxies keep
// calling while the chain is still being changed.
type AdvisedSupport struct {
	mu                    sync.RWMutex
	targetSource          TargetSource
	interfaces            []reflect.Type
	exposeProxy           bool
	proxyTargetType       bool
	proxyTargetAttributes bool

	interceptors    atomic.Pointer[[]Interceptor]
	frozen          atomic.Bool
	structureFrozen atomic.Bool
}

// NewAdvisedSupport creates a configuration for target (which may be nil) and the given interfaces.
func NewAdvisedSupport(target any, interfaces ...reflect.Type) (*AdvisedSupport, error) {
	as := &AdvisedSupport{}
	as.interceptors.Store(&[]Interceptor{})

	if target != nil {
		if err := as.SetTarget(target); err != nil {
			return nil, err
		}
	}

	for _, iface := range interfaces {
		if err := as.AddInterface(iface); err != nil {
			return nil, err
		}
	}

	return as, nil
}

func (as *AdvisedSupport) Target() any {
	as.mu.RLock()
	ts := as.targetSource
	as.mu.RUnlock()

	if static, ok := ts.(*StaticTargetSource); ok && static.target != nil {
		return static.target
	}

	return placeholder
}

// SetTarget installs a StaticTargetSource for target.
func (as *AdvisedSupport) SetTarget(target any) error {
	return as.SetTargetSource(NewStaticTargetSource(target))
}

func (as *AdvisedSupport) TargetSource() TargetSource {
	as.mu.RLock()
	defer as.mu.RUnlock()

	if as.targetSource == nil {
		return emptyTargetSource
	}

	return as.targetSource
}

func (as *AdvisedSupport) SetTargetSource(ts TargetSource) error {
	if as.IsStructureFrozen() {
		return ErrConfigurationFrozen
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	as.targetSource = ts

	return nil
}

func (as *AdvisedSupport) TargetType() reflect.Type {
	as.mu.RLock()
	ts := as.targetSource
	as.mu.RUnlock()

	if ts == nil || ts.TargetType() == nil {
		return anyType
	}

	return ts.TargetType()
}

func (as *AdvisedSupport) Interfaces() []reflect.Type {
	as.mu.RLock()
	defer as.mu.RUnlock()

	return slices.Clone(as.interfaces)
}

// AddInterface appends iface unless it is already configured.
func (as *AdvisedSupport) AddInterface(iface reflect.Type) error {
	if iface == nil || iface.Kind() != reflect.Interface {
		return fmt.Errorf("%w: %v", ErrNotAnInterface, iface)
	}

	if as.IsStructureFrozen() {
		return ErrConfigurationFrozen
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	if !slices.Contains(as.interfaces, iface) {
		as.interfaces = append(as.interfaces, iface)
	}

	return nil
}

// RemoveInterface reports whether iface was configured.
func (as *AdvisedSupport) RemoveInterface(iface reflect.Type) (bool, error) {
	if as.IsStructureFrozen() {
		return false, ErrConfigurationFrozen
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	i := slices.Index(as.interfaces, iface)
	if i < 0 {
		return false, nil
	}

	as.interfaces = slices.Delete(as.interfaces, i, i+1)

	return true, nil
}

// IsInterfaceProxied reports whether iface is satisfied by any configured interface.
func (as *AdvisedSupport) IsInterfaceProxied(iface reflect.Type) bool {
	if iface == nil || iface.Kind() != reflect.Interface {
		return false
	}

	as.mu.RLock()
	defer as.mu.RUnlock()

	for _, proxied := range as.interfaces {
		if proxied.Implements(iface) {
			return true
		}
	}

	return false
}

func (as *AdvisedSupport) Interceptors() []Interceptor {
	if p := as.interceptors.Load(); p != nil {
		return *p
	}

	return nil
}

// AddInterceptor appends to the chain. The first added interceptor runs outermost.
func (as *AdvisedSupport) AddInterceptor(interceptors ...Interceptor) error {
	return as.updateInterceptors(func(current []Interceptor) ([]Interceptor, error) {
		for _, interceptor := range interceptors {
			if interceptor == nil {
				return nil, ErrNilInterceptor
			}
		}

		return append(current, interceptors...), nil
	})
}

// AddInterceptorAt inserts interceptor at chain position pos.
func (as *AdvisedSupport) AddInterceptorAt(pos int, interceptor Interceptor) error {
	return as.updateInterceptors(func(current []Interceptor) ([]Interceptor, error) {
		if interceptor == nil {
			return nil, ErrNilInterceptor
		}

		if pos < 0 || pos > len(current) {
			return nil, fmt.Errorf("interceptor position %d out of range [0,%d]", pos, len(current))
		}

		return slices.Insert(current, pos, interceptor), nil
	})
}

// RemoveInterceptor removes the first occurrence of interceptor.
func (as *AdvisedSupport) RemoveInterceptor(interceptor Interceptor) (bool, error) {
	removed := false
	err := as.updateInterceptors(func(current []Interceptor) ([]Interceptor, error) {
		i := slices.IndexFunc(current, func(candidate Interceptor) bool {
			return sameInterceptor(candidate, interceptor)
		})
		if i < 0 {
			return current, nil
		}

		removed = true

		return slices.Delete(current, i, i+1), nil
	})

	return removed, err
}

func (as *AdvisedSupport) ClearInterceptors() error {
	return as.updateInterceptors(func([]Interceptor) ([]Interceptor, error) {
		return []Interceptor{}, nil
	})
}

// updateInterceptors swaps in a modified copy, readers keep the snapshot they loaded.
func (as *AdvisedSupport) updateInterceptors(change func([]Interceptor) ([]Interceptor, error)) error {
	if as.frozen.Load() {
		return ErrConfigurationFrozen
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	updated, err := change(slices.Clone(as.Interceptors()))
	if err != nil {
		return err
	}

	as.interceptors.Store(&updated)

	return nil
}

func sameInterceptor(a, b Interceptor) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}

	if !ta.Comparable() {
		return false
	}

	return a == b
}

func (as *AdvisedSupport) ExposeProxy() bool {
	as.mu.RLock()
	defer as.mu.RUnlock()

	return as.exposeProxy
}

func (as *AdvisedSupport) SetExposeProxy(expose bool) error {
	return as.setFlag(&as.exposeProxy, expose)
}

func (as *AdvisedSupport) ProxyTargetType() bool {
	as.mu.RLock()
	defer as.mu.RUnlock()

	return as.proxyTargetType
}

func (as *AdvisedSupport) SetProxyTargetType(proxyTargetType bool) error {
	return as.setFlag(&as.proxyTargetType, proxyTargetType)
}

func (as *AdvisedSupport) ProxyTargetAttributes() bool {
	as.mu.RLock()
	defer as.mu.RUnlock()

	return as.proxyTargetAttributes
}

func (as *AdvisedSupport) SetProxyTargetAttributes(copyAttributes bool) error {
	return as.setFlag(&as.proxyTargetAttributes, copyAttributes)
}

func (as *AdvisedSupport) setFlag(flag *bool, value bool) error {
	if as.IsStructureFrozen() {
		return ErrConfigurationFrozen
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	*flag = value

	return nil
}

func (as *AdvisedSupport) IsFrozen() bool { return as.frozen.Load() }

// Freeze makes every further mutation fail with ErrConfigurationFrozen.
func (as *AdvisedSupport) Freeze() { as.frozen.Store(true) }

// IsStructureFrozen reports whether the target source, interfaces and flags are fixed.
func (as *AdvisedSupport) IsStructureFrozen() bool {
	return as.frozen.Load() || as.structureFrozen.Load()
}

// FreezeStructure fixes the target source, interfaces and flags, which decide the shape and
// target of created proxies. The interceptor chain stays editable until Freeze.
func (as *AdvisedSupport) FreezeStructure() { as.structureFrozen.Store(true) }

var _ Advised = (*AdvisedSupport)(nil)
