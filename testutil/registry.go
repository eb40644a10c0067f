package testutil

import (
	"time"

	"github.com/skosovsky/wardly"
)

// NewTestRegistry returns a Registry over the given backend with a long
// timeout and panic recovery enabled, suitable for tests.
func NewTestRegistry(backend wardly.Caller, descriptors ...*wardly.ToolDescriptor) *wardly.Registry {
	reg := wardly.NewRegistry(backend,
		wardly.WithDefaultTimeout(30*time.Second),
		wardly.WithRecoverPanics(true),
	)
	reg.MustRegister(descriptors...)
	return reg
}
