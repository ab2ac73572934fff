package emit

import (
	"reflect"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// Frame holds the locals of one method body execution.
type Frame struct {
	// Self is the object whose method runs.
	Self any
	// Dispatch is the dispatch runtime loaded by OpLoadDispatch.
	Dispatch any

	Args         []any
	Results      []any
	Err          error
	Target       any
	TargetType   reflect.Type
	Interceptors []dynproxy.Interceptor

	// Refs keeps the caller's pointers of by-reference parameters while Args carries their values.
	Refs []any
	// Saved keeps the caller's context while Args[0] carries the one exposing the proxy.
	Saved any
	// Pushed is the context Enter derived. Interceptors may replace Args[0], Exit pops this one.
	Pushed any

	Entered  bool
	Acquired bool
	Direct   bool
}
