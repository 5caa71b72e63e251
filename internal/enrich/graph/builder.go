package graph

import (
	"github.com/footprintlab/timeline-engine/internal/timeline"
)

// Builder constructs the relationship graph from an enriched timeline. It
// runs after every annotation stage because it consumes extracted entities.
type Builder struct {
	minConfidence float64
}

// NewBuilder creates a Builder; entities below minConfidence contribute no
// nodes or edges.
func NewBuilder(minConfidence float64) *Builder {
	return &Builder{minConfidence: minConfidence}
}

// Build walks the event list once. Every event contributes a user node for
// its author and an event node joined by a created edge; every qualifying
// entity contributes an entity node, a contains edge from the event, and a
// mentioned edge from the author. A mention-typed entity additionally
// creates or updates a user node for the mentioned handle with a user-user
// mentioned edge. When two or more qualifying entities co-occur in one
// event, every pairwise combination gets a cooccurs_with edge, once per
// event.
func (b *Builder) Build(events []timeline.Event) *Graph {
	g := New()
	for i := range events {
		b.addEvent(g, &events[i])
	}
	return g
}

func (b *Builder) addEvent(g *Graph, ev *timeline.Event) {
	author := UserKey(ev.Username)
	g.Touch(author, ev.Username, 1)

	eventNode := EventKey(ev.ID)
	g.Touch(eventNode, ev.Title, 1)
	g.Connect(author, eventNode, EdgeCreated, map[string]any{
		"platform": string(ev.Platform),
		"category": string(ev.Category),
	})

	var qualifying []timeline.Entity
	for _, ent := range ev.Entities {
		if ent.Confidence < b.minConfidence {
			continue
		}
		qualifying = append(qualifying, ent)

		entityNode := EntityKey(string(ent.Type), ent.Text)
		g.Touch(entityNode, ent.Text, 1)
		g.Connect(eventNode, entityNode, EdgeContains, nil)
		g.Connect(author, entityNode, EdgeMentioned, nil)

		if ent.Type == timeline.EntityMention {
			mentioned := UserKey(ent.Text)
			g.Touch(mentioned, ent.Text, 1)
			if mentioned != author {
				g.Connect(author, mentioned, EdgeMentioned, map[string]any{
					"via": ev.ID,
				})
			}
		}
	}

	// All pairwise combinations, not just adjacent pairs.
	for i := 0; i < len(qualifying); i++ {
		for j := i + 1; j < len(qualifying); j++ {
			a := EntityKey(string(qualifying[i].Type), qualifying[i].Text)
			c := EntityKey(string(qualifying[j].Type), qualifying[j].Text)
			if a == c {
				continue
			}
			g.Connect(a, c, EdgeCooccurs, nil)
		}
	}
}
