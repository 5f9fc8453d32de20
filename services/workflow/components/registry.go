// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package components

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownComponentType is returned when a workflow references a component
// type that was never registered.
var ErrUnknownComponentType = errors.New("unknown component type")

// Factory constructs a configured component instance for one node. Factories
// close over their external collaborators (vector store, LLM client, web
// searcher), so the engine never sees those dependencies.
//
// A factory may fail when the raw config cannot even be bound to the
// component. That is a constructor-time error, distinct from ValidateConfig
// returning false later.
type Factory func(id string, config map[string]any) (Component, error)

// Registry maps component type names to factories.
//
// The registry is built once at the composition root and injected into the
// engine; there is no package-level mutable registry. Register is not safe
// for concurrent use with Create, but registration finishes before the
// service starts handling requests.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a component type name to its factory. Registering the same
// type twice replaces the previous factory.
func (r *Registry) Register(componentType string, factory Factory) {
	r.factories[componentType] = factory
}

// Create instantiates a component of the given type for the given node id
// and config. It fails with ErrUnknownComponentType when the type is not
// registered, or with the factory's own error when construction fails.
func (r *Registry) Create(componentType, id string, config map[string]any) (Component, error) {
	factory, ok := r.factories[componentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponentType, componentType)
	}
	if config == nil {
		config = map[string]any{}
	}
	return factory(id, config)
}

// AvailableTypes returns the registered type names, sorted for stable
// presentation.
func (r *Registry) AvailableTypes() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// SchemaFor returns the introspection schema for a component type by
// constructing a probe instance with an empty config. It fails with
// ErrUnknownComponentType for unregistered types.
func (r *Registry) SchemaFor(componentType string) (*ComponentSchema, error) {
	probe, err := r.Create(componentType, "schema-probe", map[string]any{})
	if err != nil {
		return nil, err
	}
	return &ComponentSchema{
		InputSchema:    probe.InputSchema(),
		OutputSchema:   probe.OutputSchema(),
		RequiredInputs: probe.RequiredInputs(),
		OptionalInputs: probe.OptionalInputs(),
	}, nil
}

// ValidateConfig reports whether the given config would produce a valid
// component of the given type. Construction errors are swallowed into false;
// this is a pre-flight convenience for callers, not something the engine
// relies on.
func (r *Registry) ValidateConfig(componentType string, config map[string]any) bool {
	probe, err := r.Create(componentType, "validation-probe", config)
	if err != nil {
		return false
	}
	return probe.ValidateConfig()
}
