package automation

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// GraphOptions are used to configure a graph.
type GraphOptions struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []*Node `json:"nodes" yaml:"nodes"`
	Edges       []*Edge `json:"edges,omitempty" yaml:"edges,omitempty"`

	// AllowIncomplete admits drafts saved by the builder: graphs without a
	// trigger and nodes with missing required settings. Such problems then
	// surface during execution instead of here.
	AllowIncomplete bool `json:"-" yaml:"-"`
}

// Graph is an immutable workflow description. It is safe to share across
// concurrent executions.
type Graph struct {
	id          string
	name        string
	description string
	nodes       []*Node
	edges       []*Edge
	nodesByID   map[string]*Node
	outgoing    map[string][]*Edge
	trigger     *Node
}

// NewGraph returns a new Graph configured with the given options.
func NewGraph(opts GraphOptions) (*Graph, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("graph id required")
	}
	if len(opts.Nodes) == 0 && !opts.AllowIncomplete {
		return nil, fmt.Errorf("nodes required")
	}

	nodesByID := make(map[string]*Node, len(opts.Nodes))
	nodes := make([]*Node, 0, len(opts.Nodes))
	var triggers []string
	for _, node := range opts.Nodes {
		if node == nil {
			return nil, fmt.Errorf("graph %q: nil node", opts.ID)
		}
		if err := node.validate(!opts.AllowIncomplete); err != nil {
			return nil, fmt.Errorf("graph %q: %w", opts.ID, err)
		}
		if _, exists := nodesByID[node.ID]; exists {
			return nil, fmt.Errorf("graph %q: %w", opts.ID, &ConfigError{NodeID: node.ID, Reason: "duplicate node id"})
		}
		copied := copyNode(node)
		nodesByID[node.ID] = copied
		nodes = append(nodes, copied)
		if node.Kind == NodeKindTrigger {
			triggers = append(triggers, node.ID)
		}
	}

	switch {
	case len(triggers) > 1:
		return nil, &MultipleTriggersError{GraphID: opts.ID, NodeIDs: triggers}
	case len(triggers) == 0 && !opts.AllowIncomplete:
		return nil, &NoTriggerError{GraphID: opts.ID}
	}

	edges := make([]*Edge, 0, len(opts.Edges))
	outgoing := make(map[string][]*Edge, len(opts.Nodes))
	for i, edge := range opts.Edges {
		if edge == nil {
			return nil, fmt.Errorf("graph %q: nil edge at index %d", opts.ID, i)
		}
		if _, ok := nodesByID[edge.Source]; !ok {
			return nil, fmt.Errorf("graph %q: edge source %q not found", opts.ID, edge.Source)
		}
		if _, ok := nodesByID[edge.Target]; !ok {
			return nil, fmt.Errorf("graph %q: edge target %q not found", opts.ID, edge.Target)
		}
		switch edge.SourceHandle {
		case "", HandleDefault, HandleTrue, HandleFalse:
		default:
			return nil, fmt.Errorf("graph %q: edge %s->%s has unsupported handle %q",
				opts.ID, edge.Source, edge.Target, edge.SourceHandle)
		}
		copied := *edge
		edges = append(edges, &copied)
		outgoing[edge.Source] = append(outgoing[edge.Source], &copied)
	}

	g := &Graph{
		id:          opts.ID,
		name:        opts.Name,
		description: opts.Description,
		nodes:       nodes,
		edges:       edges,
		nodesByID:   nodesByID,
		outgoing:    outgoing,
	}
	if len(triggers) == 1 {
		g.trigger = nodesByID[triggers[0]]
	}
	return g, nil
}

// ID returns the graph (workflow) id
func (g *Graph) ID() string {
	return g.id
}

// Name returns the graph name
func (g *Graph) Name() string {
	return g.name
}

// Description returns the graph description
func (g *Graph) Description() string {
	return g.description
}

// Nodes returns the nodes in declaration order
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Edges returns the edges in declaration order
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// Trigger returns the trigger node, or nil for an incomplete graph.
func (g *Graph) Trigger() *Node {
	return g.trigger
}

// Node returns a node by id
func (g *Graph) Node(id string) (*Node, bool) {
	node, ok := g.nodesByID[id]
	return node, ok
}

// Outgoing returns the edges leaving a node, in declaration order.
func (g *Graph) Outgoing(id string) []*Edge {
	return g.outgoing[id]
}

// NodeIDs returns the ids of all nodes, sorted.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodesByID))
	for id := range g.nodesByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Options returns options that reproduce the graph. The result is suitable
// for serialization.
func (g *Graph) Options() GraphOptions {
	opts := GraphOptions{
		ID:          g.id,
		Name:        g.name,
		Description: g.description,
		Nodes:       make([]*Node, 0, len(g.nodes)),
		Edges:       make([]*Edge, 0, len(g.edges)),
	}
	for _, node := range g.nodes {
		opts.Nodes = append(opts.Nodes, copyNode(node))
	}
	for _, edge := range g.edges {
		copied := *edge
		opts.Edges = append(opts.Edges, &copied)
	}
	return opts
}

// MarshalJSON encodes the graph as a graph document.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Options())
}

// LoadFile loads a graph from a YAML or JSON file
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return LoadString(string(data))
}

// LoadString loads a graph from a YAML string. JSON is valid YAML, so JSON
// documents are accepted too.
func LoadString(data string) (*Graph, error) {
	var document any
	if err := yaml.Unmarshal([]byte(data), &document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph document: %w", err)
	}
	// Round trip through JSON so the schema sees JSON types
	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize graph document: %w", err)
	}
	return LoadJSON(encoded)
}

// LoadJSON loads a graph from a JSON document
func LoadJSON(data []byte) (*Graph, error) {
	opts, err := DecodeGraphDocument(data)
	if err != nil {
		return nil, err
	}
	return NewGraph(opts)
}

// DecodeGraphDocument validates a JSON graph document against the graph
// schema and decodes it into options.
func DecodeGraphDocument(data []byte) (GraphOptions, error) {
	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		return GraphOptions{}, fmt.Errorf("failed to unmarshal graph document: %w", err)
	}
	if err := ValidateGraphDocument(document); err != nil {
		return GraphOptions{}, err
	}
	var opts GraphOptions
	if err := json.Unmarshal(data, &opts); err != nil {
		return GraphOptions{}, fmt.Errorf("failed to decode graph document: %w", err)
	}
	return opts, nil
}

func copyNode(n *Node) *Node {
	copied := *n
	if n.Trigger != nil {
		copied.Trigger = &TriggerConfig{Conditions: copyMap(n.Trigger.Conditions)}
	}
	if n.Action != nil {
		copied.Action = &ActionConfig{ActionType: n.Action.ActionType, Settings: copyMap(n.Action.Settings)}
	}
	if n.Condition != nil {
		condition := *n.Condition
		copied.Condition = &condition
	}
	if n.Wait != nil {
		wait := *n.Wait
		copied.Wait = &wait
	}
	return &copied
}

// copyMap creates a shallow copy of a map
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	copy := make(map[string]any, len(m))
	for k, v := range m {
		copy[k] = v
	}
	return copy
}
