package app

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-foundry/config"
	"github.com/km-arc/go-foundry/container"
	gohttp "github.com/km-arc/go-foundry/http"
	"github.com/km-arc/go-foundry/providers"
	"github.com/km-arc/go-foundry/routing"
)

// Application is the top-level application container.
// It embeds the IoC Container and ProviderRegistry so user code can
// call app.Bind(), app.Singleton(), app.Register() directly —
// exactly like $app in Laravel's bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	bootstrapOpts []BootstrapOption
}

// New creates the application and registers the framework core providers.
// The application binds itself under "app", which controllers rely on being
// resolvable.
func New(envFiles ...string) *Application {
	c := container.New()
	registry := container.NewProviderRegistry(c)

	a := &Application{
		Container: c,
		Providers: registry,
	}
	c.Instance("app", a)

	// Framework core providers, in dependency order.
	registry.Register(&providers.ConfigServiceProvider{EnvFiles: envFiles})
	registry.Register(&providers.LogServiceProvider{})
	registry.Register(&providers.RoutingServiceProvider{})

	return a
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) {
	a.Providers.Register(provider)
}

// Configure sets options applied to the controller bootstrap phase of Boot.
func (a *Application) Configure(opts ...BootstrapOption) {
	a.bootstrapOpts = append(a.bootstrapOpts, opts...)
}

// Boot runs the provider Boot() phase, then discovers and registers every
// controller-capable binding against the router. On error the application
// must not be served: the router may hold a partial route set.
func (a *Application) Boot() error {
	a.Providers.Boot()

	opts := append([]BootstrapOption{WithLogger(a.Log())}, a.bootstrapOpts...)
	return BindControllers(a.Container, a.Router(), opts...)
}

// ── Core service accessors ───────────────────────────────────────────────────

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.Resolve[*config.Config](a.Container, "config")
}

// Log resolves the application logger from the container.
func (a *Application) Log() zerolog.Logger {
	return container.Resolve[zerolog.Logger](a.Container, "log")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.Resolve[*routing.Router](a.Container, "router")
}

// ── Serving ──────────────────────────────────────────────────────────────────

// Run boots the application (if needed) and starts the HTTP server.
// Bootstrap failures are fatal: the process never listens with a
// half-registered API.
func (a *Application) Run() {
	log := a.Log()

	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			log.Fatal().Err(err).Msg("bootstrap failed")
		}
	}

	cfg := a.Config()
	addr := ":" + cfg.App.Port
	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Str("addr", addr).
		Msg("server starting")

	if err := http.ListenAndServe(addr, a.Router()); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// ── Environment helpers ──────────────────────────────────────────────────────

func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return "0.1.0" }

// ── Controller base ──────────────────────────────────────────────────────────

// BaseController is an embeddable base for HTTP controllers, providing
// request/response factory helpers.
type BaseController struct{}

func (c *BaseController) Request(r *http.Request) *gohttp.Request {
	return gohttp.NewRequest(r)
}

func (c *BaseController) Response(w http.ResponseWriter) *gohttp.Response {
	return gohttp.NewResponse(w)
}
