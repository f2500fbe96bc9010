package app

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-foundry/container"
	"github.com/km-arc/go-foundry/routing"
)

// ControllerCapability is the capability tag that marks a binding as an HTTP
// controller. Bindings registered with container.As(ControllerCapability) are
// discovered by BindControllers during bootstrap.
const ControllerCapability = "http.controller"

// Controller is the capability every auto-registered controller satisfies:
// attach zero or more routes to the shared routing surface. Implementations
// are free to resolve their own dependencies from the container at
// construction time.
type Controller interface {
	RegisterRoutes(r *routing.Router)
}

// BindController registers a controller factory as a singleton carrying the
// controller capability. Sugar for the common case:
//
//	app.BindController(c, "users.controller", func(c *container.Container) any {
//	    return &UsersController{Store: container.Resolve[*UserStore](c, "users.store")}
//	})
func BindController(c *container.Container, abstract string, factory container.Factory) {
	c.Singleton(abstract, factory, container.As(ControllerCapability))
}

// ── Options ──────────────────────────────────────────────────────────────────

type bootstrapConfig struct {
	continueOnError bool
	log             zerolog.Logger
}

// BootstrapOption configures BindControllers.
type BootstrapOption func(*bootstrapConfig)

// ContinueOnError makes BindControllers log a failing controller and keep
// going instead of aborting. The first failure is still returned once the
// walk completes. Default behaviour is fail-fast: never serve a
// half-registered API.
func ContinueOnError() BootstrapOption {
	return func(cfg *bootstrapConfig) { cfg.continueOnError = true }
}

// WithLogger sets the logger used for bootstrap diagnostics.
func WithLogger(log zerolog.Logger) BootstrapOption {
	return func(cfg *bootstrapConfig) { cfg.log = log }
}

// ── Controller bootstrap ─────────────────────────────────────────────────────

// BindControllers walks every controller-capable binding in declaration
// order, resolves it (honouring singleton vs transient scoping), and invokes
// its RegisterRoutes against the shared router — each controller exactly
// once.
//
// Rules:
//   - bindings without the controller capability are never resolved;
//   - a resolved instance that does not structurally satisfy Controller is
//     skipped silently (a mistagged binding is not an error);
//   - a controller reachable through several binding paths (alias, second
//     key resolving to the same singleton) registers only once;
//   - a resolution failure or a panic inside RegisterRoutes aborts the
//     remaining registrations and is returned as an error, unless
//     ContinueOnError is set.
//
// Must run to completion before the router is handed to the HTTP server.
func BindControllers(c *container.Container, r *routing.Router, opts ...BootstrapOption) error {
	cfg := bootstrapConfig{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	seen := make(map[any]bool)
	var firstErr error

	fail := func(err error) bool {
		if firstErr == nil {
			firstErr = err
		}
		if cfg.continueOnError {
			cfg.log.Error().Err(err).Msg("controller bootstrap: skipping failed controller")
			return false
		}
		return true
	}

	for _, key := range c.Capable(ControllerCapability) {
		instance, err := c.TryMake(key)
		if err != nil {
			if fail(fmt.Errorf("bootstrap [%s]: %w", key, err)) {
				return firstErr
			}
			continue
		}

		ctrl, ok := instance.(Controller)
		if !ok {
			// Tagged but structurally not a controller: not an error.
			cfg.log.Debug().Str("binding", key).Msg("controller bootstrap: binding lacks RegisterRoutes, skipped")
			continue
		}

		// One registration per instance, however many keys reach it.
		if t := reflect.TypeOf(instance); t != nil && t.Comparable() {
			if seen[instance] {
				continue
			}
			seen[instance] = true
		}

		if err := register(ctrl, r); err != nil {
			if fail(fmt.Errorf("bootstrap [%s]: %w", key, err)) {
				return firstErr
			}
			continue
		}
		cfg.log.Debug().Str("binding", key).Msg("controller routes registered")
	}

	return firstErr
}

// register invokes RegisterRoutes, converting a panic (typically a transitive
// container.Make on a missing binding) into an error so bootstrap can fail
// fast without taking the process down.
func register(ctrl Controller, r *routing.Router) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = fmt.Errorf("registering routes: %w", e)
				return
			}
			err = fmt.Errorf("registering routes: %v", rec)
		}
	}()
	ctrl.RegisterRoutes(r)
	return nil
}
