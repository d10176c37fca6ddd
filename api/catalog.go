package api

import (
	"errors"
	"sort"
	"sync"

	"github.com/deepnoodle-ai/automation"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrWorkflowExists   = errors.New("workflow already exists")
)

// Catalog is an in-memory set of registered workflow graphs
type Catalog struct {
	mutex  sync.RWMutex
	graphs map[string]*automation.Graph
}

func NewCatalog() *Catalog {
	return &Catalog{graphs: map[string]*automation.Graph{}}
}

// Add registers a graph. Ids must be unique.
func (c *Catalog) Add(graph *automation.Graph) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.graphs[graph.ID()]; ok {
		return ErrWorkflowExists
	}
	c.graphs[graph.ID()] = graph
	return nil
}

func (c *Catalog) Get(id string) (*automation.Graph, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	graph, ok := c.graphs[id]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	return graph, nil
}

func (c *Catalog) Remove(id string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.graphs[id]; !ok {
		return ErrWorkflowNotFound
	}
	delete(c.graphs, id)
	return nil
}

// List returns the registered graphs sorted by id
func (c *Catalog) List() []*automation.Graph {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	graphs := make([]*automation.Graph, 0, len(c.graphs))
	for _, graph := range c.graphs {
		graphs = append(graphs, graph)
	}
	sort.Slice(graphs, func(i, j int) bool { return graphs[i].ID() < graphs[j].ID() })
	return graphs
}
