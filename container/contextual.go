package container

// ContextualBuilder accumulates a contextual override before it is stored:
// the consumers it applies to and the dependency it replaces for them.
// The chain is complete once Give (or GiveValue) runs; a builder that never
// reaches Give records nothing.
//
//	// Laravel: $app->when([PhotoController::class, VideoController::class])
//	//              ->needs(Filesystem::class)->give(fn() => new S3)
//	c.When("photos.controller", "videos.controller").
//	    Needs("filesystem").
//	    Give(func(c *container.Container) any { return filesystem.NewS3(...) })
type ContextualBuilder struct {
	container *Container
	consumers []string
	needs     string
}

// Needs names the dependency being overridden for the chain's consumers.
func (b *ContextualBuilder) Needs(abstract string) *ContextualBuilder {
	b.needs = abstract
	return b
}

// Give stores the override factory for every consumer in the chain.
// Both sides of the override are canonicalized, so it holds regardless of
// which alias the consumer was bound under or the dependency is resolved by.
func (b *ContextualBuilder) Give(factory Factory) {
	b.container.mu.Lock()
	defer b.container.mu.Unlock()

	needs := b.container.canonical(b.needs)
	for _, consumer := range b.consumers {
		key := b.container.canonical(consumer)
		overrides := b.container.contextual[key]
		if overrides == nil {
			overrides = make(map[string]Factory)
			b.container.contextual[key] = overrides
		}
		overrides[needs] = factory
	}
}

// GiveValue stores a pre-built value, for overrides with no construction
// logic of their own.
//
//	// Laravel: ->give('/tmp/photos')
//	c.When("photos.controller").Needs("storage.path").GiveValue("/tmp/photos")
func (b *ContextualBuilder) GiveValue(value any) {
	b.Give(func(*Container) any { return value })
}
