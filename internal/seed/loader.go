package seed

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/osgraph/internal/ctxlog"
	"github.com/specialistvlad/osgraph/internal/fsutil"
)

// fileRoot is the top-level layout of a seed file.
type fileRoot struct {
	RootEdge *string      `hcl:"root_edge,attr"`
	Nodes    []*nodeBlock `hcl:"node,block"`
	Edges    []*edgeBlock `hcl:"edge,block"`
}

type nodeBlock struct {
	Label  string         `hcl:"label,label"`
	Type   string         `hcl:"type"`
	Fields hcl.Expression `hcl:"fields,optional"`
}

type edgeBlock struct {
	Label     string         `hcl:"label,label"`
	Type      string         `hcl:"type"`
	From      string         `hcl:"from"`
	To        string         `hcl:"to"`
	Direction *string        `hcl:"direction"`
	Fields    hcl.Expression `hcl:"fields,optional"`
}

// Load parses every .hcl file under paths. Directories are walked; files are
// read in lexical order within each path.
func Load(ctx context.Context, paths ...string) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.Expand(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl seed files found in %v", paths)
	}
	logger.Debug("Discovered seed files.", "count", len(files))

	parser := hclparse.NewParser()
	g := &Graph{}
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse seed file %s: %w", file, diags)
		}
		part, err := decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode seed file %s: %w", file, err)
		}
		if err := g.merge(part); err != nil {
			return nil, fmt.Errorf("seed file %s: %w", file, err)
		}
	}

	logger.Debug("Loaded seed.", "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

// Parse decodes a single seed document held in memory.
func Parse(src []byte, filename string) (*Graph, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse seed %s: %w", filename, diags)
	}
	return decode(f)
}

func decode(f *hcl.File) (*Graph, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, diags
	}

	g := &Graph{}
	if root.RootEdge != nil {
		g.RootEdge = *root.RootEdge
	}
	for _, b := range root.Nodes {
		fields, err := evalFields(b.Fields)
		if err != nil {
			return nil, fmt.Errorf("node '%s': %w", b.Label, err)
		}
		g.Nodes = append(g.Nodes, &Node{Label: b.Label, Type: b.Type, Fields: fields})
	}
	for _, b := range root.Edges {
		fields, err := evalFields(b.Fields)
		if err != nil {
			return nil, fmt.Errorf("edge '%s': %w", b.Label, err)
		}
		e := &Edge{Label: b.Label, Type: b.Type, From: b.From, To: b.To, Fields: fields}
		if b.Direction != nil {
			e.Direction = *b.Direction
		}
		g.Edges = append(g.Edges, e)
	}
	return g, nil
}

func evalFields(expr hcl.Expression) (map[string]any, error) {
	if expr == nil {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	return fieldsOf(v)
}
