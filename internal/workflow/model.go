package workflow

// Workflow is the root in-memory document.
type Workflow struct {
	ID          string                     `json:"id,omitempty"`
	Name        string                     `json:"name"`
	Nodes       []*Node                    `json:"nodes"`
	Connections map[string]ConnectionGroup `json:"connections"`
	Settings    map[string]Value           `json:"settings,omitempty"`
	Active      bool                       `json:"active,omitempty"`
	Tags        []string                   `json:"tags,omitempty"`

	// reverse is the derived ReverseConnectionIndex; rebuilt by Reindex.
	reverse ReverseConnectionIndex
}

// Node is a unit of work in the workflow graph.
type Node struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	TypeVersion float64          `json:"typeVersion"`
	Position    [2]float64       `json:"position"`
	Parameters  map[string]Value `json:"parameters,omitempty"`
	Credentials map[string]Value `json:"credentials,omitempty"`
	Disabled    bool             `json:"disabled,omitempty"`
	WebhookID   string           `json:"webhookId,omitempty"`
}

// ConnectionGroup maps a ConnectionType to an ordered list of output slots.
type ConnectionGroup map[string][]ConnectionSlot

// ConnectionSlot is one ordered list of targets for a single output index.
type ConnectionSlot struct {
	Targets []ConnectionTarget
}

// ConnectionTarget names the consumer of an output.
type ConnectionTarget struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// ReverseConnectionIndex maps a consumer node name to its inbound edges.
type ReverseConnectionIndex map[string][]ReverseEdge

// ReverseEdge identifies one inbound connection to a consumer node.
type ReverseEdge struct {
	SourceName string
	SourceType string
	Index      int
}

// NodeByName returns the node with the given name, or nil.
func (w *Workflow) NodeByName(name string) *Node {
	for _, n := range w.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// NodeIndex returns the index of the node with the given name, or -1.
func (w *Workflow) NodeIndex(name string) int {
	for i, n := range w.Nodes {
		if n.Name == name {
			return i
		}
	}
	return -1
}

// Reindex rebuilds the derived ReverseConnectionIndex. Must be called after
// any mutation to connections before AI-topology checks or reverse lookups.
func (w *Workflow) Reindex() {
	idx := make(ReverseConnectionIndex)
	for source, group := range w.Connections {
		for connType, slots := range group {
			for slotIdx, slot := range slots {
				for _, target := range slot.Targets {
					idx[target.Node] = append(idx[target.Node], ReverseEdge{
						SourceName: source,
						SourceType: connType,
						Index:      slotIdx,
					})
				}
			}
		}
	}
	w.reverse = idx
}

// Reverse returns the derived ReverseConnectionIndex, rebuilding it first if
// it has never been computed.
func (w *Workflow) Reverse() ReverseConnectionIndex {
	if w.reverse == nil {
		w.Reindex()
	}
	return w.reverse
}

// Clone returns a deep copy of the workflow, used by the diff and autofix
// engines as a working copy.
func (w *Workflow) Clone() *Workflow {
	return deepCloneWorkflow(w)
}
