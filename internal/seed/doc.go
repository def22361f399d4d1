// Package seed loads graph fixtures written in HCL and applies them to a
// session.
//
//	root_edge = "Highway"
//
//	node "chicago" {
//	  type   = "City"
//	  fields = { name = "Chicago" }
//	}
//
//	edge "i55" {
//	  type      = "Highway"
//	  from      = "chicago"
//	  to        = "st_louis"
//	  direction = "out"
//	  fields    = { lanes = 4 }
//	}
//
// Labels are local to the seed; Apply maps them to generated entity ids. The
// label "root" is reserved and names the root node.
package seed
