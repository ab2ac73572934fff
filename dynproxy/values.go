package dynproxy

import (
	"fmt"
	"math"
	"reflect"
)

// ConvertValue turns v into a value of type t.
// nil becomes the zero value. Scalars convert between named and unnamed forms as long as the value
// survives: integers must fit the target kind, floats never become integers.
func ConvertValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		if rv.Type() == t {
			return rv, nil
		}

		out := reflect.New(t).Elem()
		out.Set(rv)

		return out, nil
	}

	if out, ok := convertScalar(rv, t); ok {
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrInvalidArgumentValue, rv.Type(), t)
}

// ConvertArguments converts args to the parameter types of m.
// A variadic parameter is passed as one slice argument.
func ConvertArguments(m *Method, args []any) ([]reflect.Value, error) {
	if len(args) != m.NumIn() {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrIncorrectArgumentCount, m, m.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := ConvertValue(arg, m.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, m, err)
		}

		in[i] = v
	}

	return in, nil
}

// Interfaces turns reflect values into plain values.
func Interfaces(values []reflect.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v.Interface()
	}

	return out
}

type matchQuality int

const (
	noMatch matchQuality = iota
	convertibleMatch
	exactMatch
)

// matchArguments rates how well args fit the parameter list params.
func matchArguments(params []reflect.Type, args []any) matchQuality {
	if len(params) != len(args) {
		return noMatch
	}

	quality := exactMatch
	for i, arg := range args {
		switch {
		case arg == nil:
			if !isNillable(params[i].Kind()) {
				return noMatch
			}
			quality = convertibleMatch
		case reflect.TypeOf(arg) == params[i]:
		case reflect.TypeOf(arg).AssignableTo(params[i]):
			quality = convertibleMatch
		default:
			if _, ok := convertScalar(reflect.ValueOf(arg), params[i]); !ok {
				return noMatch
			}
			quality = convertibleMatch
		}
	}

	return quality
}

type scalarClass int

const (
	notScalar scalarClass = iota
	boolClass
	stringClass
	signedClass
	unsignedClass
	floatClass
	complexClass
)

func classOf(k reflect.Kind) scalarClass {
	switch k {
	case reflect.Bool:
		return boolClass
	case reflect.String:
		return stringClass
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return signedClass
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsignedClass
	case reflect.Float32, reflect.Float64:
		return floatClass
	case reflect.Complex64, reflect.Complex128:
		return complexClass
	default:
		return notScalar
	}
}

func isInteger(c scalarClass) bool { return c == signedClass || c == unsignedClass }

// convertScalar converts rv to t when both are scalars and the value keeps its meaning.
func convertScalar(rv reflect.Value, t reflect.Type) (reflect.Value, bool) {
	from, to := classOf(rv.Kind()), classOf(t.Kind())
	if from == notScalar || to == notScalar {
		return reflect.Value{}, false
	}

	zero := reflect.New(t).Elem()

	switch {
	case from == to && (from == boolClass || from == stringClass):
	case isInteger(from) && isInteger(to):
		if overflowsInteger(rv, zero) {
			return reflect.Value{}, false
		}
	case isInteger(from) && to == floatClass:
	case from == floatClass && to == floatClass:
		if zero.OverflowFloat(rv.Float()) {
			return reflect.Value{}, false
		}
	case from == complexClass && to == complexClass:
		if zero.OverflowComplex(rv.Complex()) {
			return reflect.Value{}, false
		}
	default:
		return reflect.Value{}, false
	}

	return rv.Convert(t), true
}

// overflowsInteger reports whether the integer in rv does not fit the integer kind of zero.
func overflowsInteger(rv, zero reflect.Value) bool {
	if classOf(rv.Kind()) == signedClass {
		n := rv.Int()
		if classOf(zero.Kind()) == signedClass {
			return zero.OverflowInt(n)
		}

		return n < 0 || zero.OverflowUint(uint64(n))
	}

	u := rv.Uint()
	if classOf(zero.Kind()) == signedClass {
		return u > math.MaxInt64 || zero.OverflowInt(int64(u))
	}

	return zero.OverflowUint(u)
}

func isNillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}
