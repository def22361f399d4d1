package app

import (
	"github.com/specialistvlad/osgraph/internal/registry"
	"github.com/specialistvlad/osgraph/modules/travel"
)

// coreModules is the definitive list of all modules that are compiled into
// the osgraph binary.
var coreModules = []registry.Module{
	&travel.Module{},
}
