// Package travel is the sample graph module: cities joined by highways and
// walkers that tour them.
package travel

import (
	"github.com/specialistvlad/osgraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the module's graph types.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegister(&City{}, &Highway{}, &Tourist{}, &Surveyor{})
}
