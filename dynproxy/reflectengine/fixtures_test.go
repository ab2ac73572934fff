package reflectengine_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// Shapes below are written the way proxygen emits them.

type Greeter interface {
	Greet(name string) string
	Shout(name string) (string, error)
}

type greeterShape struct{ h dynproxy.Handler }

func (s *greeterShape) ProxyHandler() dynproxy.Handler { return s.h }

func (s *greeterShape) Greet(name string) string {
	out := s.h.Invoke("Greet", name)
	r0, _ := out[0].(string)

	return r0
}

func (s *greeterShape) Shout(name string) (string, error) {
	out := s.h.Invoke("Shout", name)
	r0, _ := out[0].(string)
	r1, _ := out[1].(error)

	return r0, r1
}

type Builder interface {
	With(part string) Builder
	Build() string
}

type builderShape struct{ h dynproxy.Handler }

func (s *builderShape) ProxyHandler() dynproxy.Handler { return s.h }

func (s *builderShape) With(part string) Builder {
	out := s.h.Invoke("With", part)
	r0, _ := out[0].(Builder)

	return r0
}

func (s *builderShape) Build() string {
	out := s.h.Invoke("Build")
	r0, _ := out[0].(string)

	return r0
}

type Level int

type Counter interface {
	Bump(n *int)
	Raise(level *Level) bool
}

type counterShape struct{ h dynproxy.Handler }

func (s *counterShape) ProxyHandler() dynproxy.Handler { return s.h }

func (s *counterShape) Bump(n *int) {
	s.h.Invoke("Bump", n)
}

func (s *counterShape) Raise(level *Level) bool {
	out := s.h.Invoke("Raise", level)
	r0, _ := out[0].(bool)

	return r0
}

type Service interface {
	Current(ctx context.Context) (any, error)
	Depth(ctx context.Context) int
}

type serviceShape struct{ h dynproxy.Handler }

func (s *serviceShape) ProxyHandler() dynproxy.Handler { return s.h }

func (s *serviceShape) Current(ctx context.Context) (any, error) {
	out := s.h.Invoke("Current", ctx)
	r0 := out[0]
	r1, _ := out[1].(error)

	return r0, r1
}

func (s *serviceShape) Depth(ctx context.Context) int {
	out := s.h.Invoke("Depth", ctx)
	r0, _ := out[0].(int)

	return r0
}

type Worker interface {
	Work(ctx context.Context, job string) (int, error)
}

type workerShape struct{ h dynproxy.Handler }

func (s *workerShape) ProxyHandler() dynproxy.Handler { return s.h }

func (s *workerShape) Work(ctx context.Context, job string) (int, error) {
	out := s.h.Invoke("Work", ctx, job)
	r0, _ := out[0].(int)
	r1, _ := out[1].(error)

	return r0, r1
}

func init() {
	dynproxy.RegisterShape(func(h dynproxy.Handler) Worker { return &workerShape{h} })
	dynproxy.RegisterShape(func(h dynproxy.Handler) Greeter { return &greeterShape{h} })
	dynproxy.RegisterShape(func(h dynproxy.Handler) Builder { return &builderShape{h} })
	dynproxy.RegisterShape(func(h dynproxy.Handler) Counter { return &counterShape{h} })
	dynproxy.RegisterShape(func(h dynproxy.Handler) Service { return &serviceShape{h} })
}

var errShout = errors.New("too quiet")

type greeter struct{ calls int }

func (g *greeter) Greet(name string) string {
	g.calls++
	return "hello " + name
}

func (g *greeter) Shout(name string) (string, error) {
	if name == "" {
		return "", errShout
	}

	return "HELLO " + name, nil
}

type builder struct{ parts []string }

func (b *builder) With(part string) Builder {
	b.parts = append(b.parts, part)
	return b
}

func (b *builder) Build() string { return fmt.Sprint(b.parts) }

type counter struct{}

func (counter) Bump(n *int) { *n++ }

func (counter) Raise(level *Level) bool {
	*level *= 2
	return *level > 10
}

type service struct{}

func (service) Current(ctx context.Context) (any, error) { return dynproxy.CurrentProxy(ctx) }

func (service) Depth(ctx context.Context) int { return dynproxy.ProxyDepth(ctx) }

// Account is a decoratable concrete type.
type Account struct{ Balance int }

func (a *Account) Deposit(amount int) int {
	a.Balance += amount
	return a.Balance
}

func (a *Account) Greet(name string) string { return "account of " + name }

func (a *Account) Shout(name string) (string, error) { return name, nil }

type hiddenAccount struct{}

func (*hiddenAccount) Deposit(int) int { return 0 }

// Vault opts out of decoration.
type Vault struct{}

func (*Vault) Sealed() {}

func (*Vault) Open() bool { return true }

// ConflictingGreeter declares Greet with a signature no Greeter proxy can serve.
type ConflictingGreeter struct{}

func (*ConflictingGreeter) Greet(times int) string { return fmt.Sprint(times) }

var errJobFailed = errors.New("job failed hard")

// worker panics on the job "boom" and otherwise reports how many proxies are exposed.
type worker struct{ closed int }

func (w *worker) Work(ctx context.Context, job string) (int, error) {
	if job == "boom" {
		panic(errJobFailed)
	}

	return dynproxy.ProxyDepth(ctx), nil
}

func (w *worker) Close() error {
	w.closed++
	return nil
}
