package container

import "errors"

var (
	// ErrBindingNotFound is returned (or carried by a panic from Make) when
	// no binding or instance is registered for the requested abstract.
	ErrBindingNotFound = errors.New("no binding registered")

	// ErrResolveType is carried by the panic from Resolve when the resolved
	// instance does not match the requested type parameter.
	ErrResolveType = errors.New("resolved instance has wrong type")

	// ErrSelfAlias is carried by the panic from Alias when an abstract is
	// aliased to itself.
	ErrSelfAlias = errors.New("abstract aliased to itself")
)
