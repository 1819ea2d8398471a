package instancer

import (
	"github.com/CygnusX-26/mood/engine/model"
)

// InstancerBuilderOption is a functional option for configuring an Instancer during construction.
type InstancerBuilderOption func(*instancerImpl)

// WithModel sets the Model whose mesh all instances of this Instancer draw.
//
// Parameters:
//   - m: the Model to associate
//
// Returns:
//   - InstancerBuilderOption: functional option to set the Model
func WithModel(m model.Model) InstancerBuilderOption {
	return func(inst *instancerImpl) {
		inst.model = m
	}
}

// WithMaxInstances sets the initial instance capacity. The Instancer still grows
// automatically when AddInstance exceeds it; this option just avoids early
// regrowth for scenes that know their instance counts up front.
//
// Parameters:
//   - maxInstances: the initial capacity (minimum 1)
//
// Returns:
//   - InstancerBuilderOption: functional option to set the initial capacity
func WithMaxInstances(maxInstances uint32) InstancerBuilderOption {
	return func(inst *instancerImpl) {
		if maxInstances < 1 {
			maxInstances = 1
		}
		inst.maxInstances = maxInstances
	}
}
