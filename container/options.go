package container

// BindOption configures a binding during registration.
type BindOption func(*binding)

// As tags a binding with one or more capability names. Capabilities are how
// bootstrap-time machinery finds bindings by what they can do rather than by
// key — the controller binder walks Capable("http.controller") instead of
// resolving every binding to sniff its type.
//
//	c.Singleton("users.controller", factory, container.As("http.controller"))
func As(capabilities ...string) BindOption {
	return func(b *binding) {
		b.capabilities = mergeStrings(b.capabilities, capabilities)
	}
}

// applyOptions runs opts against a throwaway binding and returns the
// capability tags they produce. Used for Instance registrations, which have
// no factory binding to hang tags on.
func applyOptions(opts []BindOption) []string {
	if len(opts) == 0 {
		return nil
	}
	var b binding
	for _, opt := range opts {
		opt(&b)
	}
	return b.capabilities
}
