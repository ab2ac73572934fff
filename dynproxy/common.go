package dynproxy

import (
	"errors"
)

// Construction errors. They abort proxy creation, there is no partially built proxy.
var (
	ErrNonVisibleType    = errors.New("cannot create decorator-based proxy for a non visible type")
	ErrSealedType        = errors.New("cannot create decorator-based proxy for a sealed type")
	ErrTypeNameCollision = errors.New("proxy type name already registered")
	ErrNotAnInterface    = errors.New("type is not an interface")
	ErrNilTargetType     = errors.New("target type must not be nil")
	ErrShapeMissing      = errors.New("no shape registered for interface")
	ErrMethodConflict    = errors.New("method declared with conflicting signatures")
)

// Call-time errors.
var (
	ErrUnsupportedOperation   = errors.New("unsupported operation")
	ErrMethodNotFound         = errors.New("method not found")
	ErrIncorrectArgumentCount = errors.New("incorrect argument count")
	ErrInvalidArgumentValue   = errors.New("invalid argument value")
	ErrInvalidReturnValue     = errors.New("invalid return value")
	ErrTargetSourceFailed     = errors.New("target source failed")
)

// Expose-proxy errors.
var (
	ErrNoCurrentProxy  = errors.New("cannot find proxy: set ExposeProxy to true on the proxy configuration to make it available")
	ErrProxyStackEmpty = errors.New("proxy stack empty: always push a proxy before popping it")
)

// Configuration and resolution errors.
var (
	ErrConfigurationFrozen   = errors.New("proxy configuration is frozen")
	ErrNilInterceptor        = errors.New("interceptor must not be nil")
	ErrAmbiguousMatch        = errors.New("ambiguous match")
	ErrNoMatchingConstructor = errors.New("no constructor matches the supplied arguments")
	ErrInvalidConstructor    = errors.New("constructor must be a non-nil func returning the target and optionally an error")
)

// Role names reported with ErrUnsupportedOperation.
const (
	RoleTarget = "target"
	RoleBase   = "base"
)

// UnsupportedOperation returns ErrUnsupportedOperation naming the unusable role and the method.
func UnsupportedOperation(role string, m *Method) error {
	return errors.Join(ErrUnsupportedOperation, errors.New("the "+role+" is nil or does not implement "+m.String()))
}
