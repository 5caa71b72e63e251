// Package graph builds the relationship network derived from an enriched
// timeline: users, events, and extracted entities as weighted nodes, with
// typed edges keyed canonically so discovery order never produces duplicate
// records.
package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// NodeKind classifies a node.
type NodeKind string

const (
	KindUser   NodeKind = "user"
	KindEntity NodeKind = "entity"
	KindEvent  NodeKind = "event"
)

// NodeKey identifies a node as a (kind, identifier) tuple. Using a typed
// key instead of ad hoc string concatenation makes the canonicalization
// rules type-checked rather than convention-based.
type NodeKey struct {
	Kind       NodeKind
	Identifier string
}

// UserKey builds the key for a user handle. Handles are case-folded so
// "@Alice" and "@alice" are the same node.
func UserKey(handle string) NodeKey {
	return NodeKey{Kind: KindUser, Identifier: strings.ToLower(strings.TrimPrefix(handle, "@"))}
}

// EntityKey builds the key for an extracted entity; the identifier embeds
// the entity type so "Acme" the hashtag and "Acme" the organization stay
// distinct nodes.
func EntityKey(entityType, text string) NodeKey {
	return NodeKey{Kind: KindEntity, Identifier: entityType + ":" + text}
}

// EventKey builds the key for a timeline event.
func EventKey(id string) NodeKey {
	return NodeKey{Kind: KindEvent, Identifier: id}
}

func (k NodeKey) String() string {
	return string(k.Kind) + ":" + k.Identifier
}

// MarshalJSON serializes the key in its canonical string form.
func (k NodeKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses the canonical string form.
func (k *NodeKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, identifier, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("malformed node key %q", s)
	}
	k.Kind = NodeKind(kind)
	k.Identifier = identifier
	return nil
}

// EdgeType classifies a relationship.
type EdgeType string

const (
	EdgeCreated   EdgeType = "created"
	EdgeContains  EdgeType = "contains"
	EdgeMentioned EdgeType = "mentioned"
	EdgeCooccurs  EdgeType = "cooccurs_with"
)

// edgeKey is the canonical identity of an edge: the two endpoint keys
// sorted lexicographically, combined with the edge type. An edge between A
// and B is the same record regardless of discovery order.
type edgeKey struct {
	low  string
	high string
	typ  EdgeType
}

func canonicalEdgeKey(a, b NodeKey, typ EdgeType) edgeKey {
	sa, sb := a.String(), b.String()
	if sa > sb {
		sa, sb = sb, sa
	}
	return edgeKey{low: sa, high: sb, typ: typ}
}

// Node is a weighted graph vertex. Weight counts occurrences across the
// timeline.
type Node struct {
	Key        NodeKey        `json:"key"`
	Label      string         `json:"label"`
	Weight     int            `json:"weight"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Edge is a weighted, typed relationship. Weight accumulates over multiple
// discoveries; properties merge, promoting a scalar to an array on
// collision.
type Edge struct {
	Source     NodeKey        `json:"source"`
	Target     NodeKey        `json:"target"`
	Type       EdgeType       `json:"type"`
	Weight     int            `json:"weight"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Graph is an arena of nodes and edges with canonical-key indexes. The
// arenas preserve insertion order so serialization is deterministic for a
// fixed input sequence.
type Graph struct {
	nodes     []*Node
	nodeIndex map[NodeKey]int
	edges     []*Edge
	edgeIndex map[edgeKey]int
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodeIndex: make(map[NodeKey]int),
		edgeIndex: make(map[edgeKey]int),
	}
}

// Touch creates the node if needed, adds delta to its weight, and returns
// it. The first caller's label wins.
func (g *Graph) Touch(key NodeKey, label string, delta int) *Node {
	if idx, ok := g.nodeIndex[key]; ok {
		g.nodes[idx].Weight += delta
		return g.nodes[idx]
	}
	node := &Node{Key: key, Label: label, Weight: delta}
	g.nodeIndex[key] = len(g.nodes)
	g.nodes = append(g.nodes, node)
	return node
}

// Connect records a relationship between two nodes. Repeated discoveries of
// the same canonical (pair, type) accumulate weight on the one existing
// record and merge properties.
func (g *Graph) Connect(source, target NodeKey, typ EdgeType, properties map[string]any) *Edge {
	key := canonicalEdgeKey(source, target, typ)
	if idx, ok := g.edgeIndex[key]; ok {
		edge := g.edges[idx]
		edge.Weight++
		for k, v := range properties {
			edge.Properties = mergeProperty(edge.Properties, k, v)
		}
		return edge
	}
	edge := &Edge{Source: source, Target: target, Type: typ, Weight: 1}
	for k, v := range properties {
		edge.Properties = mergeProperty(edge.Properties, k, v)
	}
	g.edgeIndex[key] = len(g.edges)
	g.edges = append(g.edges, edge)
	return edge
}

// mergeProperty merges a value into props under key: absent keys are set,
// equal scalars are kept, and conflicting scalars promote to an array of
// scalars that collects every distinct value.
func mergeProperty(props map[string]any, key string, value any) map[string]any {
	if props == nil {
		props = make(map[string]any)
	}
	existing, ok := props[key]
	if !ok {
		props[key] = value
		return props
	}
	if list, isList := existing.([]any); isList {
		for _, v := range list {
			if v == value {
				return props
			}
		}
		props[key] = append(list, value)
		return props
	}
	if existing == value {
		return props
	}
	props[key] = []any{existing, value}
	return props
}

// Node returns the node for key, if present.
func (g *Graph) Node(key NodeKey) (*Node, bool) {
	idx, ok := g.nodeIndex[key]
	if !ok {
		return nil, false
	}
	return g.nodes[idx], true
}

// Edge returns the edge for the canonical (pair, type), if present.
func (g *Graph) Edge(a, b NodeKey, typ EdgeType) (*Edge, bool) {
	idx, ok := g.edgeIndex[canonicalEdgeKey(a, b, typ)]
	if !ok {
		return nil, false
	}
	return g.edges[idx], true
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// Order returns the node count; Size returns the edge count.
func (g *Graph) Order() int { return len(g.nodes) }
func (g *Graph) Size() int  { return len(g.edges) }

// EdgesByWeight returns edges of the given type sorted by descending
// weight, ties broken by ascending canonical key.
func (g *Graph) EdgesByWeight(typ EdgeType) []*Edge {
	var matched []*Edge
	for _, e := range g.edges {
		if e.Type == typ {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Weight != matched[j].Weight {
			return matched[i].Weight > matched[j].Weight
		}
		ki := canonicalEdgeKey(matched[i].Source, matched[i].Target, matched[i].Type)
		kj := canonicalEdgeKey(matched[j].Source, matched[j].Target, matched[j].Type)
		if ki.low != kj.low {
			return ki.low < kj.low
		}
		return ki.high < kj.high
	})
	return matched
}

// snapshot is the serialized shape of a Graph.
type snapshot struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// MarshalJSON serializes the graph as {nodes, edges} arrays.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{Nodes: g.nodes, Edges: g.edges})
}

// UnmarshalJSON restores a serialized graph, rebuilding the canonical-key
// indexes from the arenas.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	g.nodes = snap.Nodes
	g.edges = snap.Edges
	g.nodeIndex = make(map[NodeKey]int, len(snap.Nodes))
	for i, node := range snap.Nodes {
		g.nodeIndex[node.Key] = i
	}
	g.edgeIndex = make(map[edgeKey]int, len(snap.Edges))
	for i, edge := range snap.Edges {
		g.edgeIndex[canonicalEdgeKey(edge.Source, edge.Target, edge.Type)] = i
	}
	return nil
}
