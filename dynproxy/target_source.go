package dynproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/puddle/v2"
)

// TargetSource abstracts where the target of a call comes from and what happens to it afterwards.
type TargetSource interface {
	TargetType() reflect.Type
	// IsStatic reports whether every call uses the same target, so that release is unnecessary.
	IsStatic() bool
	GetTarget(ctx context.Context) (any, error)
	ReleaseTarget(target any) error
}

// StaticTargetSource always returns one fixed target. Release does nothing.
type StaticTargetSource struct {
	target any
}

var emptyTargetSource = &StaticTargetSource{}

// NewStaticTargetSource wraps target.
func NewStaticTargetSource(target any) *StaticTargetSource {
	return &StaticTargetSource{target: target}
}

func (s *StaticTargetSource) TargetType() reflect.Type {
	if s.target == nil {
		return anyType
	}

	return reflect.TypeOf(s.target)
}

func (s *StaticTargetSource) IsStatic() bool { return true }

func (s *StaticTargetSource) GetTarget(context.Context) (any, error) {
	if s.target == nil {
		return placeholder, nil
	}

	return s.target, nil
}

func (s *StaticTargetSource) ReleaseTarget(any) error { return nil }

// PrototypeTargetSource creates a fresh target for every call and closes it afterwards
// when it implements io.Closer.
type PrototypeTargetSource struct {
	targetType  reflect.Type
	constructor reflect.Value
	args        []reflect.Value
}

// NewPrototypeTargetSource picks the constructor matching args and calls it once per call.
// A constructor is a func returning the target, or the target and an error.
func NewPrototypeTargetSource(args []any, constructors ...any) (*PrototypeTargetSource, error) {
	constructor, err := ResolveConstructor(constructors, args)
	if err != nil {
		return nil, err
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, convErr := ConvertValue(arg, constructor.Type().In(i))
		if convErr != nil {
			return nil, convErr
		}
		in[i] = v
	}

	return &PrototypeTargetSource{
		targetType:  constructor.Type().Out(0),
		constructor: constructor,
		args:        in,
	}, nil
}

func (p *PrototypeTargetSource) TargetType() reflect.Type { return p.targetType }

func (p *PrototypeTargetSource) IsStatic() bool { return false }

func (p *PrototypeTargetSource) GetTarget(context.Context) (any, error) {
	out := p.constructor.Call(p.args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, errors.Join(ErrTargetSourceFailed, out[1].Interface().(error))
	}

	return out[0].Interface(), nil
}

func (p *PrototypeTargetSource) ReleaseTarget(target any) error {
	if closer, ok := target.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

// ResolveConstructor selects the constructor whose parameters fit args.
// An exact type match wins at once. Otherwise exactly one compatible constructor must exist,
// several equally good ones fail with ErrAmbiguousMatch.
func ResolveConstructor(constructors []any, args []any) (reflect.Value, error) {
	var candidates []reflect.Value

	for _, c := range constructors {
		fn := reflect.ValueOf(c)
		if c == nil || fn.Kind() != reflect.Func || !isConstructorType(fn.Type()) {
			return reflect.Value{}, fmt.Errorf("%w: %T", ErrInvalidConstructor, c)
		}

		params := make([]reflect.Type, fn.Type().NumIn())
		for i := range params {
			params[i] = fn.Type().In(i)
		}

		switch matchArguments(params, args) {
		case exactMatch:
			return fn, nil
		case convertibleMatch:
			candidates = append(candidates, fn)
		case noMatch:
		}
	}

	switch len(candidates) {
	case 0:
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrNoMatchingConstructor, describeArgs(args))
	case 1:
		return candidates[0], nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: constructor of %s for %s", ErrAmbiguousMatch, candidates[0].Type().Out(0), describeArgs(args))
	}
}

func isConstructorType(t reflect.Type) bool {
	switch t.NumOut() {
	case 1:
		return true
	case 2:
		return t.Out(1) == errorType
	default:
		return false
	}
}

func describeArgs(args []any) string {
	types := make([]string, len(args))
	for i, arg := range args {
		types[i] = fmt.Sprintf("%T", arg)
	}

	return "(" + strings.Join(types, ", ") + ")"
}

// PooledTargetSource borrows targets from a bounded pool and returns them after each call.
// Equal targets may be borrowed at the same time; each release returns one of them.
type PooledTargetSource[T comparable] struct {
	pool *puddle.Pool[T]

	mu       sync.Mutex
	borrowed map[T][]*puddle.Resource[T]
}

// NewPooledTargetSource creates a pool of at most maxSize targets built by constructor.
// Targets implementing io.Closer are closed when the pool discards them.
func NewPooledTargetSource[T comparable](
	constructor func(ctx context.Context) (T, error),
	maxSize int32,
) (*PooledTargetSource[T], error) {
	if constructor == nil {
		return nil, ErrInvalidConstructor
	}

	pool, err := puddle.NewPool(&puddle.Config[T]{
		Constructor: constructor,
		Destructor: func(target T) {
			if closer, ok := any(target).(io.Closer); ok {
				_ = closer.Close()
			}
		},
		MaxSize: maxSize,
	})
	if err != nil {
		return nil, errors.Join(ErrTargetSourceFailed, err)
	}

	return &PooledTargetSource[T]{pool: pool, borrowed: make(map[T][]*puddle.Resource[T])}, nil
}

func (p *PooledTargetSource[T]) TargetType() reflect.Type { return reflect.TypeFor[T]() }

func (p *PooledTargetSource[T]) IsStatic() bool { return false }

func (p *PooledTargetSource[T]) GetTarget(ctx context.Context) (any, error) {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Join(ErrTargetSourceFailed, err)
	}

	p.mu.Lock()
	p.borrowed[res.Value()] = append(p.borrowed[res.Value()], res)
	p.mu.Unlock()

	return res.Value(), nil
}

func (p *PooledTargetSource[T]) ReleaseTarget(target any) error {
	t, ok := target.(T)
	if !ok {
		return fmt.Errorf("%w: %T was not borrowed from this pool", ErrTargetSourceFailed, target)
	}

	p.mu.Lock()
	held := p.borrowed[t]
	if len(held) == 0 {
		p.mu.Unlock()
		return fmt.Errorf("%w: target was not borrowed from this pool", ErrTargetSourceFailed)
	}

	res := held[len(held)-1]
	if len(held) == 1 {
		delete(p.borrowed, t)
	} else {
		p.borrowed[t] = held[:len(held)-1]
	}
	p.mu.Unlock()

	res.Release()

	return nil
}

// Stat reports the number of idle and borrowed targets.
func (p *PooledTargetSource[T]) Stat() (idle, borrowed int32) {
	s := p.pool.Stat()
	return s.IdleResources(), s.AcquiredResources()
}

// Close destroys all pooled targets. Borrowed targets are destroyed when released.
func (p *PooledTargetSource[T]) Close() {
	p.pool.Close()
}

var (
	_ TargetSource = (*StaticTargetSource)(nil)
	_ TargetSource = (*PrototypeTargetSource)(nil)
	_ TargetSource = (*PooledTargetSource[*EmptyTarget])(nil)
)
