package pact

import (
	"os"
	"sync"
)

// Lazy is a process-wide once-cell for a shared downstream resource such as
// a database handle. Construction is single-flight guarded: concurrent first
// use runs the initializer exactly once, and every caller observes the same
// value and error.
type Lazy[T any] struct {
	once sync.Once
	init func() (T, error)
	v    T
	err  error
}

// NewLazy returns a cell that constructs its value on first Get.
func NewLazy[T any](init func() (T, error)) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get returns the shared value, constructing it on first use.
func (l *Lazy[T]) Get() (T, error) {
	l.once.Do(func() {
		l.v, l.err = l.init()
	})
	return l.v, l.err
}

// Access is the capability a handler declares for a backing resource. The
// provisioning layer translates it into actual grants.
type Access string

const (
	AccessRead      Access = "read"
	AccessWrite     Access = "write"
	AccessReadWrite Access = "read-write"
)

// ResourceRef declares a backing resource a handler depends on. The
// provisioning layer injects the resource's address through the named
// environment variable.
type ResourceRef struct {
	Name   string
	EnvVar string
	Access Access
}

// Address returns the injected resource address, empty when the environment
// variable is unset.
func (r ResourceRef) Address() string {
	return os.Getenv(r.EnvVar)
}
