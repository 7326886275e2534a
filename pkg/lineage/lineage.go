// Package lineage records which pipelines every generated document derives from and renders it as a DOT graph.
package lineage

import (
	"io"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/gen192/pkg/combination"
)

// BaseLabel is the label of the edge from a base pipeline to its outputs.
const BaseLabel = "base"

const (
	maxRGB     = 240
	baseColour = "#000000"
)

// Graph is a directed graph from source pipelines to generated documents. It is safe for concurrent use.
type Graph struct {
	mu      sync.Mutex
	graph   graph.Graph[string, string]
	colours map[string]string
}

// New creates an empty graph. Edges of every step get their own colour, from blue for the first step to red for the
// last one.
func New(steps []combination.MergeStep) (*Graph, error) {
	colours := make(map[string]string, len(steps))
	for i, step := range steps {
		fraction := 1.0
		if len(steps) > 1 {
			fraction = float64(i) / float64(len(steps)-1)
		}
		red := maxRGB * fraction
		blue := maxRGB - red

		colour, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return nil, errors.Wrap(err, "unable to get colour")
		}
		colours[step.Name] = colour.ToHEX().String()
	}

	return &Graph{
		graph:   graph.New(graph.StringHash, graph.Directed()),
		colours: colours,
	}, nil
}

func (g *Graph) addVertex(name string, options ...func(*graph.VertexProperties)) error {
	err := g.graph.AddVertex(name, options...)
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return errors.Wrapf(err, "unable to add vertex %s", name)
	}

	return nil
}

func (g *Graph) addPipeline(p combination.Pipeline) error {
	return g.addVertex(p.Label,
		graph.VertexAttribute("shape", "box"),
		graph.VertexAttribute("xlabel", p.ID),
	)
}

// AddDerivation records that output was built from combi.
func (g *Graph) AddDerivation(output string, combi combination.Combination) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range []combination.Pipeline{combi.Base, combi.Perturb} {
		err := g.addPipeline(p)
		if err != nil {
			return err
		}
	}

	err := g.graph.AddVertex(output, graph.VertexAttribute("shape", "note"))
	if err != nil {
		return errors.Wrapf(err, "unable to add output %s", output)
	}

	err = g.graph.AddEdge(combi.Base.Label, output,
		graph.EdgeAttribute("label", BaseLabel),
		graph.EdgeAttribute("color", baseColour),
	)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", combi.Base.Label, output)
	}

	colour, ok := g.colours[combi.Step.Name]
	if !ok {
		colour = baseColour
	}
	err = g.graph.AddEdge(combi.Perturb.Label, output,
		graph.EdgeAttribute("label", combi.Step.Name),
		graph.EdgeAttribute("fontcolor", colour),
		graph.EdgeAttribute("color", colour),
	)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", combi.Perturb.Label, output)
	}

	return nil
}

// Derived returns the outputs built from the pipeline labelled label, sorted.
func (g *Graph) Derived(label string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	adjacencyMap, err := g.graph.AdjacencyMap()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get adjacency map")
	}

	adjacencies, ok := adjacencyMap[label]
	if !ok {
		return nil, errors.Wrapf(graph.ErrVertexNotFound, "%s", label)
	}

	out := make([]string, 0, len(adjacencies))
	for target := range adjacencies {
		out = append(out, target)
	}
	sort.Strings(out)

	return out, nil
}

// WriteDOT renders the graph. Statements are sorted so that the same derivations always render the same bytes.
func (g *Graph) WriteDOT(wrt io.Writer) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	desc, err := generateDOT(g.graph, GraphAttribute("rankdir", "LR"))
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(wrt, desc)
}

// Save writes the DOT graph to path, creating its parent directories.
func (g *Graph) Save(fs afero.Fs, path string) error {
	err := fs.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", path)
	}

	file, err := fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", path)
	}
	defer file.Close()

	err = g.WriteDOT(file)
	if err != nil {
		return errors.Wrapf(err, "unable to write dot file %s", path)
	}

	return errors.Wrapf(file.Close(), "unable to close %s", path)
}
