package reflectengine

import (
	"context"
	"reflect"
	"slices"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// AdvisedProxy is the dispatch runtime every synthesized proxy instance delegates to.
// There is one per proxy instance; it holds no state besides its configuration.
type AdvisedProxy struct {
	advised dynproxy.Advised
}

// NewAdvisedProxy binds a dispatch runtime to advised.
func NewAdvisedProxy(advised dynproxy.Advised) *AdvisedProxy {
	return &AdvisedProxy{advised: advised}
}

func (ap *AdvisedProxy) Advised() dynproxy.Advised { return ap.advised }

// TargetType is read from the configuration on every call since the target source may change it.
func (ap *AdvisedProxy) TargetType() reflect.Type { return ap.advised.TargetType() }

func (ap *AdvisedProxy) IsInterfaceProxied(iface reflect.Type) bool {
	return ap.advised.IsInterfaceProxied(iface)
}

func (ap *AdvisedProxy) GetTarget(ctx context.Context) (any, error) {
	return ap.advised.TargetSource().GetTarget(ctx)
}

// ReleaseTarget hands target back to the target source, which closes or returns it as it sees fit.
func (ap *AdvisedProxy) ReleaseTarget(target any) error {
	return ap.advised.TargetSource().ReleaseTarget(target)
}

// releaseNeeded reports whether targets must be released after each call.
func (ap *AdvisedProxy) releaseNeeded() bool {
	return !ap.advised.TargetSource().IsStatic()
}

// GetInterceptors returns the current interceptors that apply to m on targetType, in chain order.
func (ap *AdvisedProxy) GetInterceptors(targetType reflect.Type, m *dynproxy.Method) []dynproxy.Interceptor {
	all := ap.advised.Interceptors()

	applicable := all[:0:0]
	for _, interceptor := range all {
		if dynproxy.AppliesTo(interceptor, targetType, m) {
			applicable = append(applicable, interceptor)
		}
	}

	return applicable
}

// Invoke runs the interceptor chain for one call and returns what the chain returns.
func (ap *AdvisedProxy) Invoke(
	proxy any,
	target any,
	targetType reflect.Type,
	targetMethod *dynproxy.Method,
	proxyMethod *dynproxy.Method,
	args []any,
	interceptors []dynproxy.Interceptor,
) ([]any, error) {
	valid := slices.DeleteFunc(slices.Clone(interceptors), func(i dynproxy.Interceptor) bool {
		return i == nil
	})

	inv := dynproxy.NewMethodInvocation(proxy, target, targetType, targetMethod, proxyMethod, args, valid, invokeMethod)

	return inv.Proceed()
}

// invokeMethod performs the real call. Interface methods are resolved by name on the target,
// concrete methods are bound statically when the target has the declaring type.
func invokeMethod(target any, m *dynproxy.Method, args []any) ([]any, error) {
	role := dynproxy.RoleTarget
	if m.DeclaringType.Kind() != reflect.Interface {
		role = dynproxy.RoleBase
	}

	if isNil(target) {
		return nil, dynproxy.UnsupportedOperation(role, m)
	}

	recv := reflect.ValueOf(target)

	var fn reflect.Value
	var in []reflect.Value

	if role == dynproxy.RoleBase && recv.Type() == m.DeclaringType {
		fn = m.DeclaringType.Method(m.Index).Func
		in = append(in, recv)
	} else {
		fn = recv.MethodByName(m.Name)
		if !fn.IsValid() || fn.Type() != m.Type {
			return nil, dynproxy.UnsupportedOperation(role, m)
		}
	}

	callArgs, boxes, err := prepareArguments(m, args)
	if err != nil {
		return nil, err
	}

	in = append(in, callArgs...)

	var out []reflect.Value
	if m.IsVariadic() {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}

	for i, box := range boxes {
		args[i] = box.Elem().Interface()
	}

	return dynproxy.Interfaces(out), nil
}

// prepareArguments converts args for a reflective call. By-reference arguments that arrive as plain
// values are boxed into fresh pointers, returned so their final values can be copied back.
func prepareArguments(m *dynproxy.Method, args []any) ([]reflect.Value, map[int]reflect.Value, error) {
	if len(args) != m.NumIn() {
		_, err := dynproxy.ConvertArguments(m, args)
		return nil, nil, err
	}

	var boxes map[int]reflect.Value

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		param := m.In(i)

		if m.IsByRef(i) && arg != nil && !reflect.TypeOf(arg).AssignableTo(param) {
			v, err := dynproxy.ConvertValue(arg, param.Elem())
			if err != nil {
				return nil, nil, err
			}

			box := reflect.New(param.Elem())
			box.Elem().Set(v)
			in[i] = box

			if boxes == nil {
				boxes = map[int]reflect.Value{}
			}
			boxes[i] = box

			continue
		}

		v, err := dynproxy.ConvertValue(arg, param)
		if err != nil {
			return nil, nil, err
		}

		in[i] = v
	}

	return in, boxes, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
