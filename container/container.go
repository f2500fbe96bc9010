package container

import (
	"fmt"
	"reflect"
	"sync"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value from the container.
type Factory func(c *Container) any

// binding holds a registered factory, its lifetime and capability tags.
type binding struct {
	factory      Factory
	singleton    bool
	capabilities []string
}

// extender wraps an already-resolved instance with decorator logic.
type extender func(instance any, c *Container) any

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container — mirrors Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Make / TryMake / Resolve (generic)
//   - Capability tags on bindings (see As) and declaration-order enumeration
//   - Tags (group multiple abstractions under one tag)
//   - Extend (decorate / wrap resolved instances)
//   - Contextual binding (when A needs B, give it C)
//
// Declaration order is preserved: Bindings() and Capable() report keys in the
// order they were first registered, which is what the controller bootstrap
// relies on.
type Container struct {
	mu sync.RWMutex

	// abstract → binding
	bindings map[string]*binding

	// canonical keys in first-registration order
	order []string

	// abstract → resolved singleton instance
	instances map[string]any

	// alias → abstract (canonical key)
	aliases map[string]string

	// abstract → extender funcs
	extenders map[string][]extender

	// tag → []abstract
	tags map[string][]string

	// contextual: when[concrete][abstract] = factory
	contextual map[string]map[string]Factory

	// capability tags for pre-built instances (factory bindings keep
	// theirs on the binding itself)
	instCaps map[string][]string

	// stack of abstracts currently being resolved (for contextual lookup)
	buildStack []string
}

// New creates an empty container bound to itself under "container".
func New() *Container {
	c := &Container{
		bindings:   make(map[string]*binding),
		instances:  make(map[string]any),
		aliases:    make(map[string]string),
		extenders:  make(map[string][]extender),
		tags:       make(map[string][]string),
		contextual: make(map[string]map[string]Factory),
	}
	c.Instance("container", c)
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient (new instance each Make) factory.
//
//	// Laravel: $app->bind(UserRepository::class, fn($app) => new DbUserRepository($app))
//	c.Bind("UserRepository", func(c *container.Container) any {
//	    return &DbUserRepository{Store: container.Resolve[*Store](c, "store")}
//	})
func (c *Container) Bind(abstract string, factory Factory, opts ...BindOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bind(abstract, factory, false, opts)
}

// Singleton registers a factory whose result is cached after first resolution.
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache($app))
//	c.Singleton("cache", func(c *container.Container) any {
//	    return cache.New(Resolve[*config.Config](c, "config"))
//	})
func (c *Container) Singleton(abstract string, factory Factory, opts ...BindOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bind(abstract, factory, true, opts)
}

// Instance registers a pre-built value as a singleton.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
func (c *Container) Instance(abstract string, instance any, opts ...BindOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	c.instances[key] = instance
	c.record(key, applyOptions(opts))
}

// bind is the internal registration helper (must hold mu.Lock).
func (c *Container) bind(abstract string, factory Factory, singleton bool, opts []BindOption) {
	key := c.canonical(abstract)

	// Drop any cached singleton so it's rebuilt with the new factory.
	delete(c.instances, key)

	b := &binding{factory: factory, singleton: singleton}
	for _, opt := range opts {
		opt(b)
	}
	c.bindings[key] = b
	c.record(key, b.capabilities)
}

// record appends key to the declaration order (first registration wins the
// position) and stores capability tags for pre-built instances.
func (c *Container) record(key string, capabilities []string) {
	known := false
	for _, existing := range c.order {
		if existing == key {
			known = true
			break
		}
	}
	if !known {
		c.order = append(c.order, key)
	}
	if len(capabilities) > 0 && c.bindings[key] == nil {
		if c.instCaps == nil {
			c.instCaps = make(map[string][]string)
		}
		c.instCaps[key] = mergeStrings(c.instCaps[key], capabilities)
	}
}

// Alias registers an alternative name for an abstract.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
func (c *Container) Alias(abstract, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if abstract == alias {
		panic(fmt.Errorf("container: %w: [%s]", ErrSelfAlias, abstract))
	}
	c.aliases[alias] = c.canonical(abstract)
}

// ── Contextual Binding ────────────────────────────────────────────────────────

// When starts a contextual binding chain for one or more consumers.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(fn() => new S3)
//	c.When("photos.controller").Needs("filesystem").Give(func(c *container.Container) any {
//	    return filesystem.NewS3(...)
//	})
func (c *Container) When(consumers ...string) *ContextualBuilder {
	return &ContextualBuilder{container: c, consumers: consumers}
}

// getContextual returns the override factory for (consumer, dependency),
// or nil. Both keys are canonical.
func (c *Container) getContextual(consumer, dependency string) Factory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if overrides, ok := c.contextual[consumer]; ok {
		if f, ok := overrides[dependency]; ok {
			return f
		}
	}
	return nil
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the resolved instance of an abstract.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("log", func(instance any, c *container.Container) any {
//	    return logging.WithTimestamps(instance.(*logging.Logger))
//	})
func (c *Container) Extend(abstract string, fn extender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	c.extenders[key] = append(c.extenders[key], fn)

	// Already-resolved singletons get the extender applied immediately.
	if inst, ok := c.instances[key]; ok {
		c.instances[key] = c.applyExtenders(key, inst)
	}
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple abstracts under a named group.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemoryReport"}, "reports")
func (c *Container) Tag(abstracts []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], abstracts...)
}

// Tagged resolves all abstracts registered under a tag.
//
//	// Laravel: $app->tagged('reports')
//	reports := c.Tagged("reports")  // []any
func (c *Container) Tagged(tag string) []any {
	c.mu.RLock()
	abstracts := c.tags[tag]
	c.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		result = append(result, c.make(abs))
	}
	return result
}

// ── Capabilities ──────────────────────────────────────────────────────────────

// Capable returns, in declaration order, the canonical keys of every binding
// registered with the given capability tag (see As). It never resolves
// anything — enumeration is side-effect free.
func (c *Container) Capable(capability string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, key := range c.order {
		if c.hasCapability(key, capability) {
			out = append(out, key)
		}
	}
	return out
}

// HasCapability reports whether the binding for abstract carries the
// capability tag.
func (c *Container) HasCapability(abstract, capability string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasCapability(c.canonical(abstract), capability)
}

func (c *Container) hasCapability(key, capability string) bool {
	if b, ok := c.bindings[key]; ok {
		for _, tag := range b.capabilities {
			if tag == capability {
				return true
			}
		}
	}
	for _, tag := range c.instCaps[key] {
		if tag == capability {
			return true
		}
	}
	return false
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves an abstract from the container, panicking if no binding
// exists. Use TryMake when the caller wants an error instead.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo := c.Make("UserRepository")
func (c *Container) Make(abstract string) any {
	return c.make(abstract)
}

// TryMake resolves an abstract, converting a missing binding or a panicking
// factory into an error. This is what bootstrap-time callers use so a broken
// binding surfaces as an ordinary error rather than a process abort.
func (c *Container) TryMake(abstract string) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("container: resolving [%s]: %w", abstract, e)
				return
			}
			err = fmt.Errorf("container: resolving [%s]: %v", abstract, r)
		}
	}()

	key := c.canonical(abstract)
	c.mu.RLock()
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	c.mu.RUnlock()
	if !hasBinding && !hasInstance {
		return nil, fmt.Errorf("container: %w: [%s]", ErrBindingNotFound, abstract)
	}
	return c.make(abstract), nil
}

// make is the internal resolver (no outer lock — individual ops lock as needed).
func (c *Container) make(abstract string) any {
	key := c.canonical(abstract)

	// Singleton instance cache first.
	c.mu.RLock()
	if inst, ok := c.instances[key]; ok {
		c.mu.RUnlock()
		return inst
	}
	c.mu.RUnlock()

	// Contextual binding (look at current build stack top).
	if len(c.buildStack) > 0 {
		caller := c.buildStack[len(c.buildStack)-1]
		if f := c.getContextual(caller, key); f != nil {
			return c.runFactory(key, f, false)
		}
	}

	c.mu.RLock()
	b, ok := c.bindings[key]
	c.mu.RUnlock()

	if !ok {
		panic(fmt.Errorf("container: %w: [%s]", ErrBindingNotFound, abstract))
	}

	return c.runFactory(key, b.factory, b.singleton)
}

// runFactory executes a factory, optionally caching the result.
func (c *Container) runFactory(key string, f Factory, singleton bool) any {
	c.buildStack = append(c.buildStack, key)
	instance := f(c)
	c.buildStack = c.buildStack[:len(c.buildStack)-1]

	c.mu.RLock()
	hasExtenders := len(c.extenders[key]) > 0
	c.mu.RUnlock()
	if hasExtenders {
		instance = c.applyExtenders(key, instance)
	}

	if singleton {
		c.mu.Lock()
		c.instances[key] = instance
		c.mu.Unlock()
	}
	return instance
}

func (c *Container) applyExtenders(key string, instance any) any {
	for _, ext := range c.extenders[key] {
		instance = ext(instance, c)
	}
	return instance
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Bound returns true if an abstract has been registered.
//
//	// Laravel: $app->bound(UserRepository::class)
func (c *Container) Bound(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(abstract)
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	return hasBinding || hasInstance
}

// Resolved returns true if the abstract has been resolved at least once.
//
//	// Laravel: $app->resolved(Cache::class)
func (c *Container) Resolved(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[c.canonical(abstract)]
	return ok
}

// Bindings returns all registered canonical keys in declaration order.
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Forget removes all registrations for an abstract (binding + instance).
// The key keeps its declaration-order slot if re-registered later.
func (c *Container) Forget(abstract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	delete(c.instances, key)
	delete(c.instCaps, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Flush resets the entire container.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = make(map[string]*binding)
	c.instances = make(map[string]any)
	c.aliases = make(map[string]string)
	c.extenders = make(map[string][]extender)
	c.tags = make(map[string][]string)
	c.contextual = make(map[string]map[string]Factory)
	c.instCaps = nil
	c.order = nil
}

// canonical resolves an alias to its canonical key.
func (c *Container) canonical(abstract string) string {
	if target, ok := c.aliases[abstract]; ok {
		return target
	}
	return abstract
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key when working with interfaces.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	// Instead of: router := c.Make("router").(*routing.Router)
//	// Write:      router := container.Resolve[*routing.Router](c, "router")
func Resolve[T any](c *Container, abstract string) T {
	instance := c.Make(abstract)
	typed, ok := instance.(T)
	if !ok {
		panic(fmt.Errorf("container: %w: Resolve[%T]: [%s] resolved to %T",
			ErrResolveType, *new(T), abstract, instance))
	}
	return typed
}

// MustResolve is like Resolve but returns (T, bool) without panicking.
func MustResolve[T any](c *Container, abstract string) (T, bool) {
	instance := c.Make(abstract)
	typed, ok := instance.(T)
	return typed, ok
}

// ── small helpers ─────────────────────────────────────────────────────────────

func mergeStrings(dst, src []string) []string {
outer:
	for _, s := range src {
		for _, existing := range dst {
			if existing == s {
				continue outer
			}
		}
		dst = append(dst, s)
	}
	return dst
}
