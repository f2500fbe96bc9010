// Package app is the application kernel: it owns the IoC container, the
// provider registry, and the controller bootstrap that bridges the two to
// the HTTP router.
//
// # Bootstrap
//
// Applications declare controllers as capability-tagged container bindings
// and never register routes by hand:
//
//	application := app.New()
//
//	app.BindController(application.Container, "users.controller", func(c *container.Container) any {
//	    return &UsersController{store: container.Resolve[*UserStore](c, "users.store")}
//	})
//
//	application.Run()
//
// Boot walks every controller-capable binding in declaration order, resolves
// it (singletons stay singletons), and calls its RegisterRoutes against the
// shared router — each controller exactly once, before the server listens.
// Any resolution or registration failure aborts bootstrap: the process never
// serves a half-registered API. See BindControllers for the exact rules and
// ContinueOnError for the opt-out.
package app
