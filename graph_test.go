package automation

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewGraphValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    GraphOptions
		wantErr string
	}{
		{
			name:    "missing id",
			opts:    GraphOptions{Nodes: []*Node{triggerNode("start", nil)}},
			wantErr: "graph id required",
		},
		{
			name:    "no nodes",
			opts:    GraphOptions{ID: "g"},
			wantErr: "nodes required",
		},
		{
			name:    "duplicate node",
			opts:    GraphOptions{ID: "g", Nodes: []*Node{triggerNode("a", nil), actionNode("a", "x", nil)}},
			wantErr: "duplicate node id",
		},
		{
			name:    "missing edge source",
			opts:    GraphOptions{ID: "g", Nodes: []*Node{triggerNode("a", nil)}, Edges: []*Edge{edge("missing", "a")}},
			wantErr: `edge source "missing" not found`,
		},
		{
			name:    "missing edge target",
			opts:    GraphOptions{ID: "g", Nodes: []*Node{triggerNode("a", nil)}, Edges: []*Edge{edge("a", "missing")}},
			wantErr: `edge target "missing" not found`,
		},
		{
			name:    "unsupported handle",
			opts:    GraphOptions{ID: "g", Nodes: []*Node{triggerNode("a", nil), actionNode("b", "x", nil)}, Edges: []*Edge{branch("a", "b", "maybe")}},
			wantErr: `unsupported handle "maybe"`,
		},
		{
			name:    "action without type",
			opts:    GraphOptions{ID: "g", Nodes: []*Node{triggerNode("a", nil), {ID: "b", Kind: NodeKindAction}}},
			wantErr: "action type not configured",
		},
		{
			name:    "condition without operator",
			opts:    GraphOptions{ID: "g", Nodes: []*Node{triggerNode("a", nil), conditionNode("b", "email", "", nil)}},
			wantErr: "condition operator required",
		},
		{
			name:    "negative wait",
			opts:    GraphOptions{ID: "g", Nodes: []*Node{triggerNode("a", nil), waitNode("b", -1, WaitUnitMinutes)}},
			wantErr: "wait amount must not be negative",
		},
		{
			name: "payload of another kind",
			opts: GraphOptions{ID: "g", Nodes: []*Node{
				{ID: "a", Kind: NodeKindTrigger, Wait: &WaitConfig{Amount: 1}},
			}},
			wantErr: "payload not allowed on trigger node",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.opts)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewGraphTriggerCount(t *testing.T) {
	_, err := NewGraph(GraphOptions{ID: "g", Nodes: []*Node{actionNode("a", "x", nil)}})
	var noTrigger *NoTriggerError
	require.True(t, errors.As(err, &noTrigger))
	require.Equal(t, "g", noTrigger.GraphID)

	_, err = NewGraph(GraphOptions{ID: "g", Nodes: []*Node{triggerNode("a", nil), triggerNode("b", nil)}})
	var multiple *MultipleTriggersError
	require.True(t, errors.As(err, &multiple))
	require.Equal(t, []string{"a", "b"}, multiple.NodeIDs)

	// Drafts may lack a trigger but never carry two
	_, err = NewGraph(GraphOptions{ID: "g", Nodes: []*Node{triggerNode("a", nil), triggerNode("b", nil)}, AllowIncomplete: true})
	require.True(t, errors.As(err, &multiple))

	g, err := NewGraph(GraphOptions{ID: "g", AllowIncomplete: true})
	require.NoError(t, err)
	require.Nil(t, g.Trigger())
}

func TestGraphLookups(t *testing.T) {
	g := newTestGraph(t,
		[]*Node{
			triggerNode("start", nil),
			conditionNode("check", "email", OperatorExists, nil),
			actionNode("yes", "add_tag", map[string]any{"tagName": "VIP"}),
			actionNode("no", "add_tag", nil),
		},
		[]*Edge{
			edge("start", "check"),
			branch("check", "yes", HandleTrue),
			branch("check", "no", HandleFalse),
		},
	)

	require.Equal(t, "wf-test", g.ID())
	require.Equal(t, "start", g.Trigger().ID)
	require.Equal(t, []string{"check", "no", "start", "yes"}, g.NodeIDs())
	require.Len(t, g.Nodes(), 4)
	require.Len(t, g.Edges(), 3)

	node, ok := g.Node("yes")
	require.True(t, ok)
	require.Equal(t, "VIP", node.Action.Settings["tagName"])
	_, ok = g.Node("missing")
	require.False(t, ok)

	outgoing := g.Outgoing("check")
	require.Len(t, outgoing, 2)
	require.Equal(t, "yes", outgoing[0].Target)
	require.True(t, outgoing[0].Conditional())
	require.Empty(t, g.Outgoing("yes"))
}

func TestGraphCopiesInput(t *testing.T) {
	settings := map[string]any{"tagName": "VIP"}
	nodes := []*Node{triggerNode("start", nil), actionNode("tag", "add_tag", settings)}
	g := newTestGraph(t, nodes, []*Edge{edge("start", "tag")})

	settings["tagName"] = "changed"
	nodes[1].ID = "renamed"

	node, ok := g.Node("tag")
	require.True(t, ok)
	require.Equal(t, "VIP", node.Action.Settings["tagName"])
}

func TestWaitDuration(t *testing.T) {
	tests := []struct {
		amount float64
		unit   WaitUnit
		want   time.Duration
	}{
		{2, WaitUnitHours, 7_200_000 * time.Millisecond},
		{5, WaitUnitMinutes, 300_000 * time.Millisecond},
		{1, WaitUnitDays, 86_400_000 * time.Millisecond},
		{3, "", 3 * time.Second},
		{3, "fortnights", 3 * time.Second},
		{1.5, WaitUnitMinutes, 90 * time.Second},
	}
	for _, tt := range tests {
		w := WaitConfig{Amount: tt.amount, Unit: tt.unit}
		require.Equal(t, tt.want, w.Duration(), "%v %s", tt.amount, tt.unit)
	}
}

const yamlGraph = `
id: welcome
name: Welcome new leads
nodes:
  - id: start
    kind: trigger
    trigger:
      conditions:
        status: lead
  - id: check
    kind: condition
    condition:
      field: email
      operator: exists
  - id: email
    kind: action
    action:
      actionType: send_email
      settings:
        subject: Welcome
        message: "Hi {{first_name}}"
  - id: pause
    kind: wait
    wait:
      amount: 2
      unit: hours
edges:
  - source: start
    target: check
  - source: check
    target: email
    sourceHandle: "true"
  - source: email
    target: pause
`

func TestLoadString(t *testing.T) {
	g, err := LoadString(yamlGraph)
	require.NoError(t, err)
	require.Equal(t, "welcome", g.ID())
	require.Equal(t, "Welcome new leads", g.Name())
	require.Equal(t, "start", g.Trigger().ID)
	require.Equal(t, map[string]any{"status": "lead"}, g.Trigger().Trigger.Conditions)

	email, ok := g.Node("email")
	require.True(t, ok)
	require.Equal(t, "send_email", email.Action.ActionType)
	require.Equal(t, "Hi {{first_name}}", email.Action.Settings["message"])

	pause, ok := g.Node("pause")
	require.True(t, ok)
	require.Equal(t, 2*time.Hour, pause.Wait.Duration())

	require.Equal(t, HandleTrue, g.Outgoing("check")[0].SourceHandle)
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing nodes", `{"id": "g"}`},
		{"node without kind", `{"id": "g", "nodes": [{"id": "a"}]}`},
		{"bad handle", `{"id": "g", "nodes": [{"id": "a", "kind": "trigger"}], "edges": [{"source": "a", "target": "a", "sourceHandle": "maybe"}]}`},
		{"negative wait", `{"id": "g", "nodes": [{"id": "a", "kind": "wait", "wait": {"amount": -1}}]}`},
		{"not an object", `[1, 2, 3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON([]byte(tt.doc))
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid graph document")
		})
	}

	_, err := LoadString("id: [unterminated")
	require.Error(t, err)
}

func TestGraphJSONRoundTrip(t *testing.T) {
	g, err := LoadString(yamlGraph)
	require.NoError(t, err)

	encoded, err := json.Marshal(g)
	require.NoError(t, err)

	decoded, err := LoadJSON(encoded)
	require.NoError(t, err)
	require.Equal(t, g.Options(), decoded.Options())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "welcome.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlGraph), 0644))

	g, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "welcome", g.ID())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read graph file")
}
