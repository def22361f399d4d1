package travel

import (
	"github.com/specialistvlad/osgraph/internal/entity"
)

// City is a node.
type City struct {
	entity.Node
	Name       string `json:"name"`
	Population int    `json:"population"`
}

// Highway connects two cities.
type Highway struct {
	entity.Edge
	Lanes int    `json:"lanes"`
	Code  string `json:"code"`
}
