package reflectengine

import (
	"fmt"
	"reflect"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/reflectengine/internal/emit"
)

// compositionStrategy builds types that derive from the dispatch runtime and reach the target through it.
type compositionStrategy struct {
	target reflect.Type
	ifaces []reflect.Type
}

func newCompositionStrategy(target reflect.Type, interfaces []reflect.Type) *compositionStrategy {
	return &compositionStrategy{target: target, ifaces: interfaces}
}

func (s *compositionStrategy) kind() Strategy { return StrategyComposition }

func (s *compositionStrategy) typePrefix() string { return compositionTypePrefix }

func (s *compositionStrategy) baseType() reflect.Type { return advisedProxyType }

func (s *compositionStrategy) targetType() reflect.Type { return s.target }

func (s *compositionStrategy) interfaces() []reflect.Type { return s.ifaces }

// validate only needs the interfaces to be interfaces; the target is never subclassed.
func (s *compositionStrategy) validate() error {
	for _, iface := range s.ifaces {
		if iface.Kind() != reflect.Interface {
			return fmt.Errorf("%w: %s", dynproxy.ErrNotAnInterface, iface)
		}
	}

	return nil
}

func (s *compositionStrategy) declareFields(*emit.TypeBuilder) {}

func (s *compositionStrategy) constructor() emit.Constructor {
	return func(obj *emit.Object, args ...any) error {
		advised, err := adviceFrom(args)
		if err != nil {
			return err
		}

		obj.Base = NewAdvisedProxy(advised)

		return nil
	}
}

func (s *compositionStrategy) proxiedMethods() ([]*methodPlan, error) {
	var plans []*methodPlan

	for _, iface := range s.ifaces {
		for _, m := range dynproxy.MethodsOf(iface) {
			plan := &methodPlan{exposed: m, target: m, direct: m}

			if s.target != nil && s.target.Kind() != reflect.Interface {
				if tm, ok := dynproxy.FindMethod(s.target, m.Name); ok && tm.Type == m.Type {
					plan.target = tm
					plan.proxyMethod = m
				}
			}

			var err error
			if plans, err = addPlan(plans, plan); err != nil {
				return nil, err
			}
		}
	}

	return plans, nil
}

func (s *compositionStrategy) dispatchOf(obj *emit.Object) *AdvisedProxy {
	return obj.Base.(*AdvisedProxy)
}
