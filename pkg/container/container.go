// Package container is a small typed service registry for main's wiring.
//
// Providers are registered per type and built lazily on first Resolve;
// every resolved value is a singleton for the life of the container.
package container

import (
	"fmt"
	"reflect"
	"sync"
)

type Container struct {
	mu        sync.Mutex
	providers map[reflect.Type]func(*Container) (any, error)
	instances map[reflect.Type]any
	building  map[reflect.Type]bool
}

func New() *Container {
	return &Container{
		providers: make(map[reflect.Type]func(*Container) (any, error)),
		instances: make(map[reflect.Type]any),
		building:  make(map[reflect.Type]bool),
	}
}

func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

// Provide registers the constructor for T. fn may Resolve its own dependencies.
func Provide[T any](c *Container, fn func(*Container) (T, error)) error {
	t := typeOf[T]()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.providers[t]; exists {
		return fmt.Errorf("container: provider already exists for %v", t)
	}
	c.providers[t] = func(c *Container) (any, error) { return fn(c) }
	return nil
}

// Resolve returns the T instance, building it (and its dependencies) once.
func Resolve[T any](c *Container) (T, error) {
	var zero T
	t := typeOf[T]()

	c.mu.Lock()
	if v, ok := c.instances[t]; ok {
		c.mu.Unlock()
		out, _ := v.(T)
		return out, nil
	}
	fn, ok := c.providers[t]
	if !ok {
		c.mu.Unlock()
		return zero, fmt.Errorf("container: no provider for %v", t)
	}
	if c.building[t] {
		c.mu.Unlock()
		return zero, fmt.Errorf("container: cyclic dependency for %v", t)
	}
	c.building[t] = true
	c.mu.Unlock()

	// The lock is released while fn runs so it can Resolve its dependencies.
	v, err := fn(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.building, t)
	if err != nil {
		return zero, fmt.Errorf("container: build %v: %w", t, err)
	}
	c.instances[t] = v
	out, _ := v.(T)
	return out, nil
}

// MustResolve is Resolve for wiring code where a missing provider is a bug.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}
