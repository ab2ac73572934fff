package reflectengine

import (
	"fmt"
	"reflect"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/reflectengine/internal/emit"
)

// Strategy names how a proxy type reaches its target.
type Strategy string

const (
	// StrategyComposition wraps the target and implements only the requested interfaces.
	StrategyComposition Strategy = "composition"
	// StrategyDecoration proxies the target's concrete method set plus the requested interfaces.
	StrategyDecoration Strategy = "decoration"
)

const (
	compositionTypePrefix = "CompositionDynamicProxy"
	decorationTypePrefix  = "DecoratorDynamicProxy"
	advisedProxyFieldName = "__advisedProxy"
)

var advisedProxyType = reflect.TypeFor[*AdvisedProxy]()

// typeStrategy holds the hook points that differ between the two strategies.
// buildProxyType is the shared algorithm.
type typeStrategy interface {
	kind() Strategy
	typePrefix() string
	baseType() reflect.Type
	targetType() reflect.Type
	interfaces() []reflect.Type
	validate() error
	declareFields(tb *emit.TypeBuilder)
	constructor() emit.Constructor
	proxiedMethods() ([]*methodPlan, error)
	dispatchOf(obj *emit.Object) *AdvisedProxy
}

// methodPlan describes one proxied method before and after its body is generated.
type methodPlan struct {
	// exposed is the signature callers of the proxy see.
	exposed *dynproxy.Method
	// target is the method resolved on the target type and the interceptor lookup key.
	target *dynproxy.Method
	// proxyMethod is the interface method when it differs from target.
	proxyMethod *dynproxy.Method
	// direct is the method the zero-interceptor call binds to.
	direct *dynproxy.Method

	annotations []dynproxy.Annotation
	body        *emit.Body
}

// buildProxyType runs the strategy-independent part of type synthesis.
func buildProxyType(s typeStrategy, module *emit.Module, key TypeKey) (*ProxyType, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	tb, err := module.DefineType(module.UniqueName(s.typePrefix()), s.baseType())
	if err != nil {
		return nil, err
	}

	for _, iface := range s.interfaces() {
		tb.AddInterface(iface)
	}

	s.declareFields(tb)
	tb.DefineConstructor(s.constructor())

	plans, err := s.proxiedMethods()
	if err != nil {
		return nil, err
	}

	if key.ProxyTargetAttributes {
		if err := copyAnnotations(tb, s.targetType(), plans); err != nil {
			return nil, err
		}
	}

	pt := &ProxyType{
		strategy: s,
		key:      key,
		plans:    make(map[string]*methodPlan, len(plans)),
		order:    plans,
	}

	for _, plan := range plans {
		plan.body, err = buildMethodBody(plan)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", plan.exposed, err)
		}

		def := &emit.MethodDef{
			Name:        plan.exposed.Name,
			Signature:   plan.exposed,
			Body:        plan.body,
			Annotations: plan.annotations,
		}
		if err := tb.DefineMethod(def); err != nil {
			return nil, err
		}

		pt.plans[plan.exposed.Name] = plan
	}

	pt.typ, err = tb.CreateType()
	if err != nil {
		return nil, err
	}

	return pt, nil
}

func copyAnnotations(tb *emit.TypeBuilder, targetType reflect.Type, plans []*methodPlan) error {
	typeAnnotations, err := dynproxy.AnnotationsOf(targetType, "")
	if err != nil {
		return err
	}

	tb.SetAnnotations(typeAnnotations)

	for _, plan := range plans {
		plan.annotations, err = dynproxy.AnnotationsOf(targetType, plan.exposed.Name)
		if err != nil {
			return err
		}
	}

	return nil
}

// addPlan appends plan unless a method of the same name exists.
// Same name with another signature is a conflict no single proxy method can serve.
func addPlan(plans []*methodPlan, plan *methodPlan) ([]*methodPlan, error) {
	for _, existing := range plans {
		if existing.exposed.Name != plan.exposed.Name {
			continue
		}

		if existing.exposed.Type != plan.exposed.Type {
			return nil, fmt.Errorf("%w: %s and %s", dynproxy.ErrMethodConflict, existing.exposed, plan.exposed)
		}

		return plans, nil
	}

	return append(plans, plan), nil
}

func adviceFrom(args []any) (dynproxy.Advised, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: proxy constructor expects the configuration only", dynproxy.ErrIncorrectArgumentCount)
	}

	advised, ok := args[0].(dynproxy.Advised)
	if !ok || advised == nil {
		return nil, fmt.Errorf("%w: proxy constructor expects a dynproxy.Advised, got %T", dynproxy.ErrInvalidArgumentValue, args[0])
	}

	return advised, nil
}
