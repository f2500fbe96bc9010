package container_test

import (
	"errors"
	"testing"

	"github.com/km-arc/go-foundry/container"
)

type service struct{ name string }

// ── Bind / Singleton / Instance ───────────────────────────────────────────────

func TestContainer_Bind_TransientReturnsNewInstances(t *testing.T) {
	c := container.New()
	c.Bind("svc", func(c *container.Container) any { return &service{name: "transient"} })

	a := c.Make("svc").(*service)
	b := c.Make("svc").(*service)
	if a == b {
		t.Error("transient binding should build a new instance per Make")
	}
}

func TestContainer_Singleton_CachesInstance(t *testing.T) {
	c := container.New()
	calls := 0
	c.Singleton("svc", func(c *container.Container) any {
		calls++
		return &service{name: "single"}
	})

	a := c.Make("svc").(*service)
	b := c.Make("svc").(*service)
	if a != b {
		t.Error("singleton binding should return the identical instance")
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
}

func TestContainer_Instance_ReturnsPreBuiltValue(t *testing.T) {
	c := container.New()
	want := &service{name: "prebuilt"}
	c.Instance("svc", want)

	if got := c.Make("svc"); got != want {
		t.Errorf("Make returned %v, want the registered instance", got)
	}
}

func TestContainer_Rebind_DropsCachedSingleton(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return &service{name: "old"} })
	_ = c.Make("svc")

	c.Singleton("svc", func(c *container.Container) any { return &service{name: "new"} })
	if got := c.Make("svc").(*service).name; got != "new" {
		t.Errorf("got %q, want rebuilt instance 'new'", got)
	}
}

// ── Aliases ──────────────────────────────────────────────────────────────────

func TestContainer_Alias_ResolvesSameSingleton(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return &service{} })
	c.Alias("svc", "service")

	if c.Make("svc") != c.Make("service") {
		t.Error("alias should resolve to the same singleton instance")
	}
}

func TestContainer_Alias_SelfAliasPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on self alias")
		}
		if err, ok := r.(error); !ok || !errors.Is(err, container.ErrSelfAlias) {
			t.Errorf("panic value %v, want ErrSelfAlias", r)
		}
	}()
	container.New().Alias("svc", "svc")
}

// ── Declaration order ────────────────────────────────────────────────────────

func TestContainer_Bindings_PreservesDeclarationOrder(t *testing.T) {
	c := container.New()
	c.Bind("first", func(c *container.Container) any { return 1 })
	c.Singleton("second", func(c *container.Container) any { return 2 })
	c.Instance("third", 3)

	got := c.Bindings()
	// "container" is self-bound by New and always comes first.
	want := []string{"container", "first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestContainer_Rebind_KeepsOriginalOrderSlot(t *testing.T) {
	c := container.New()
	c.Bind("a", func(c *container.Container) any { return "a" })
	c.Bind("b", func(c *container.Container) any { return "b" })
	c.Bind("a", func(c *container.Container) any { return "a2" })

	got := c.Bindings()
	if got[1] != "a" || got[2] != "b" {
		t.Errorf("re-binding must not move the key: got %v", got)
	}
}

// ── Capabilities ─────────────────────────────────────────────────────────────

func TestContainer_Capable_FiltersByTagInOrder(t *testing.T) {
	c := container.New()
	c.Singleton("plain", func(c *container.Container) any { return 0 })
	c.Singleton("ctrl.b", func(c *container.Container) any { return 1 }, container.As("http.controller"))
	c.Bind("ctrl.a", func(c *container.Container) any { return 2 }, container.As("http.controller"))

	got := c.Capable("http.controller")
	if len(got) != 2 || got[0] != "ctrl.b" || got[1] != "ctrl.a" {
		t.Errorf("Capable: got %v, want [ctrl.b ctrl.a]", got)
	}
}

func TestContainer_Capable_NeverResolves(t *testing.T) {
	c := container.New()
	c.Singleton("ctrl", func(c *container.Container) any {
		t.Fatal("Capable must not run factories")
		return nil
	}, container.As("http.controller"))

	_ = c.Capable("http.controller")
	if c.Resolved("ctrl") {
		t.Error("binding should remain unresolved after Capable")
	}
}

func TestContainer_Instance_CanCarryCapability(t *testing.T) {
	c := container.New()
	c.Instance("ctrl", &service{}, container.As("http.controller"))

	if !c.HasCapability("ctrl", "http.controller") {
		t.Error("instance registration should carry capability tags")
	}
}

func TestContainer_HasCapability_FalseForUntagged(t *testing.T) {
	c := container.New()
	c.Singleton("plain", func(c *container.Container) any { return 0 })

	if c.HasCapability("plain", "http.controller") {
		t.Error("untagged binding must not report the capability")
	}
}

// ── TryMake ──────────────────────────────────────────────────────────────────

func TestContainer_TryMake_MissingBinding(t *testing.T) {
	c := container.New()
	_, err := c.TryMake("ghost")
	if !errors.Is(err, container.ErrBindingNotFound) {
		t.Errorf("got %v, want ErrBindingNotFound", err)
	}
}

func TestContainer_TryMake_RecoversFactoryPanic(t *testing.T) {
	c := container.New()
	c.Singleton("broken", func(c *container.Container) any {
		return c.Make("missing-dependency")
	})

	_, err := c.TryMake("broken")
	if err == nil {
		t.Fatal("expected error from panicking factory")
	}
	if !errors.Is(err, container.ErrBindingNotFound) {
		t.Errorf("got %v, want wrapped ErrBindingNotFound", err)
	}
}

func TestContainer_Make_PanicsOnMissingBinding(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	container.New().Make("ghost")
}

// ── Tags ─────────────────────────────────────────────────────────────────────

func TestContainer_Tagged_ResolvesGroup(t *testing.T) {
	c := container.New()
	c.Singleton("report.cpu", func(c *container.Container) any { return "cpu" })
	c.Singleton("report.mem", func(c *container.Container) any { return "mem" })
	c.Tag([]string{"report.cpu", "report.mem"}, "reports")

	got := c.Tagged("reports")
	if len(got) != 2 || got[0] != "cpu" || got[1] != "mem" {
		t.Errorf("Tagged: got %v", got)
	}
}

// ── Extend ───────────────────────────────────────────────────────────────────

func TestContainer_Extend_DecoratesResolvedInstance(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return &service{name: "base"} })
	c.Extend("svc", func(instance any, c *container.Container) any {
		instance.(*service).name = "decorated"
		return instance
	})

	if got := c.Make("svc").(*service).name; got != "decorated" {
		t.Errorf("got %q, want 'decorated'", got)
	}
}

// ── Contextual binding ───────────────────────────────────────────────────────

func TestContainer_Contextual_GivesPerConsumer(t *testing.T) {
	c := container.New()
	c.Bind("path", func(c *container.Container) any { return "/default" })
	c.When("PhotoController").Needs("path").GiveValue("/photos")

	c.Bind("PhotoController", func(c *container.Container) any {
		return c.Make("path")
	})

	if got := c.Make("PhotoController"); got != "/photos" {
		t.Errorf("contextual: got %v, want /photos", got)
	}
	if got := c.Make("path"); got != "/default" {
		t.Errorf("direct: got %v, want /default", got)
	}
}

func TestContainer_Contextual_SharedAcrossConsumers(t *testing.T) {
	c := container.New()
	c.Bind("path", func(c *container.Container) any { return "/default" })
	c.When("PhotoController", "VideoController").Needs("path").GiveValue("/media")

	for _, consumer := range []string{"PhotoController", "VideoController"} {
		c.Bind(consumer, func(c *container.Container) any { return c.Make("path") })
	}
	c.Bind("ReportController", func(c *container.Container) any { return c.Make("path") })

	if got := c.Make("PhotoController"); got != "/media" {
		t.Errorf("PhotoController: got %v, want /media", got)
	}
	if got := c.Make("VideoController"); got != "/media" {
		t.Errorf("VideoController: got %v, want /media", got)
	}
	if got := c.Make("ReportController"); got != "/default" {
		t.Errorf("ReportController: got %v, want /default", got)
	}
}

func TestContainer_Contextual_HonorsDependencyAlias(t *testing.T) {
	c := container.New()
	c.Bind("filesystem", func(c *container.Container) any { return "local" })
	c.Alias("filesystem", "fs")

	// Override declared against the alias, dependency resolved by its
	// canonical name — the override must still apply.
	c.When("PhotoController").Needs("fs").GiveValue("s3")
	c.Bind("PhotoController", func(c *container.Container) any {
		return c.Make("filesystem")
	})

	if got := c.Make("PhotoController"); got != "s3" {
		t.Errorf("got %v, want s3", got)
	}
	if got := c.Make("filesystem"); got != "local" {
		t.Errorf("direct: got %v, want local", got)
	}
}

// ── Generic Resolve ──────────────────────────────────────────────────────────

func TestResolve_TypedHelper(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return &service{name: "typed"} })

	svc := container.Resolve[*service](c, "svc")
	if svc.name != "typed" {
		t.Errorf("got %q, want 'typed'", svc.name)
	}
}

func TestResolve_WrongTypePanics(t *testing.T) {
	c := container.New()
	c.Instance("svc", "a string")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if err, ok := r.(error); !ok || !errors.Is(err, container.ErrResolveType) {
			t.Errorf("panic value %v, want ErrResolveType", r)
		}
	}()
	_ = container.Resolve[*service](c, "svc")
}

func TestMustResolve_ReportsMismatch(t *testing.T) {
	c := container.New()
	c.Instance("svc", "a string")

	if _, ok := container.MustResolve[*service](c, "svc"); ok {
		t.Error("MustResolve should report a type mismatch")
	}
	if s, ok := container.MustResolve[string](c, "svc"); !ok || s != "a string" {
		t.Error("MustResolve should succeed for the right type")
	}
}

// ── Housekeeping ─────────────────────────────────────────────────────────────

func TestContainer_BoundAndResolved(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return &service{} })

	if !c.Bound("svc") {
		t.Error("Bound should be true after registration")
	}
	if c.Resolved("svc") {
		t.Error("Resolved should be false before first Make")
	}
	_ = c.Make("svc")
	if !c.Resolved("svc") {
		t.Error("Resolved should be true after Make")
	}
}

func TestContainer_Forget_RemovesBindingAndOrderSlot(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return &service{} })
	c.Forget("svc")

	if c.Bound("svc") {
		t.Error("Forget should remove the binding")
	}
	for _, key := range c.Bindings() {
		if key == "svc" {
			t.Error("Forget should remove the declaration-order slot")
		}
	}
}

func TestContainer_Forget_DropsInstanceCapability(t *testing.T) {
	c := container.New()
	c.Instance("ctrl", &service{}, container.As("http.controller"))
	c.Forget("ctrl")

	c.Instance("ctrl", &service{})
	if c.HasCapability("ctrl", "http.controller") {
		t.Error("re-registered key must not inherit a forgotten capability")
	}
	if got := c.Capable("http.controller"); len(got) != 0 {
		t.Errorf("Capable: got %v, want none", got)
	}
}

func TestContainer_Flush_ResetsEverything(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return &service{} }, container.As("cap"))
	c.Flush()

	if c.Bound("svc") || len(c.Bindings()) != 0 || len(c.Capable("cap")) != 0 {
		t.Error("Flush should clear bindings, order and capabilities")
	}
}
