package reflectengine

import (
	"fmt"
	"reflect"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/reflectengine/internal/emit"
)

// decorationStrategy builds types over the target's own concrete method set.
// Direct calls bind the target type's methods statically, the dispatch runtime sits in a field.
type decorationStrategy struct {
	target            reflect.Type
	ifaces            []reflect.Type
	advisedProxyField int
}

func newDecorationStrategy(target reflect.Type, interfaces []reflect.Type) *decorationStrategy {
	return &decorationStrategy{target: target, ifaces: interfaces}
}

func (s *decorationStrategy) kind() Strategy { return StrategyDecoration }

func (s *decorationStrategy) typePrefix() string { return decorationTypePrefix }

func (s *decorationStrategy) baseType() reflect.Type { return s.target }

func (s *decorationStrategy) targetType() reflect.Type { return s.target }

func (s *decorationStrategy) interfaces() []reflect.Type { return s.ifaces }

func (s *decorationStrategy) validate() error {
	if s.target == nil {
		return dynproxy.ErrNilTargetType
	}

	if !dynproxy.IsVisible(s.target) {
		return fmt.Errorf("%w: %s", dynproxy.ErrNonVisibleType, s.target)
	}

	if dynproxy.IsSealed(s.target) {
		return fmt.Errorf("%w: %s", dynproxy.ErrSealedType, s.target)
	}

	for _, iface := range s.ifaces {
		if iface.Kind() != reflect.Interface {
			return fmt.Errorf("%w: %s", dynproxy.ErrNotAnInterface, iface)
		}
	}

	return nil
}

func (s *decorationStrategy) declareFields(tb *emit.TypeBuilder) {
	s.advisedProxyField = tb.DefineField(advisedProxyFieldName, advisedProxyType)
}

func (s *decorationStrategy) constructor() emit.Constructor {
	field := s.advisedProxyField

	return func(obj *emit.Object, args ...any) error {
		advised, err := adviceFrom(args)
		if err != nil {
			return err
		}

		obj.Fields[field] = NewAdvisedProxy(advised)

		return nil
	}
}

func (s *decorationStrategy) proxiedMethods() ([]*methodPlan, error) {
	var plans []*methodPlan

	for _, m := range dynproxy.MethodsOf(s.target) {
		plans = append(plans, &methodPlan{exposed: m, target: m, direct: m})
	}

	for _, iface := range s.ifaces {
		for _, m := range dynproxy.MethodsOf(iface) {
			var err error
			if plans, err = addPlan(plans, &methodPlan{exposed: m, target: m, direct: m}); err != nil {
				return nil, err
			}
		}
	}

	return plans, nil
}

func (s *decorationStrategy) dispatchOf(obj *emit.Object) *AdvisedProxy {
	return obj.Fields[s.advisedProxyField].(*AdvisedProxy)
}
