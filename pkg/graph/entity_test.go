package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphseal/graphseal/pkg/graph"
)

func TestEntityAppendToPromotesScalar(t *testing.T) {
	e := graph.NewEntity("#a", graph.KindPlain, map[string]any{"keywords": "one"})

	e.AppendTo("keywords", "two")
	require.Equal(t, []any{"one", "two"}, e.Get("keywords"))

	e.AppendTo("keywords", "three")
	require.Equal(t, []any{"one", "two", "three"}, e.Get("keywords"))
}

func TestEntityAppendToCreatesList(t *testing.T) {
	e := graph.NewEntity("#a", graph.KindPlain, nil)
	e.AppendTo(graph.PropRecipients, graph.Ref("#keyholder-1"))
	require.Equal(t, []any{graph.Ref("#keyholder-1")}, e.Get(graph.PropRecipients))
}

func TestEntityRefs(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"bare string", "#a", []string{"#a"}},
		{"reference object", graph.Ref("#a"), []string{"#a"}},
		{"mixed list", []any{"#a", graph.Ref("#b")}, []string{"#a", "#b"}},
		{"absent", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := graph.NewEntity("#e", graph.KindPlain, nil)
			if tt.value != nil {
				e.Set(graph.PropRecipients, tt.value)
			}
			require.Equal(t, tt.want, e.Refs(graph.PropRecipients))
		})
	}
}

func TestEntityStrings(t *testing.T) {
	e := graph.NewEntity("#e", graph.KindPlain, map[string]any{
		"single": "AA",
		"many":   []any{"AA", "BB"},
	})
	require.Equal(t, []string{"AA"}, e.Strings("single"))
	require.Equal(t, []string{"AA", "BB"}, e.Strings("many"))
	require.Nil(t, e.Strings("absent"))
}

func TestEntityTypes(t *testing.T) {
	e := graph.NewEntity("#e", graph.KindPlain, map[string]any{"@type": "Person"})
	require.Equal(t, []string{"Person"}, e.Types())
	require.True(t, e.HasType("Person"))

	e.Set("@type", []any{"ContactPoint", graph.TypeAudience})
	require.True(t, e.HasType(graph.TypeAudience))
	require.False(t, e.HasType("Person"))
}

func TestGraphAddReplaceKeepsPosition(t *testing.T) {
	g := graph.New()
	g.Add(graph.NewEntity("#a", graph.KindPlain, nil))
	g.Add(graph.NewEntity("#b", graph.KindPlain, nil))
	g.Add(graph.NewEntity("#a", graph.KindPlain, map[string]any{"name": "replaced"}))

	entities := g.Entities()
	require.Len(t, entities, 2)
	require.Equal(t, "#a", entities[0].ID())
	require.Equal(t, "replaced", entities[0].Get("name"))
	require.Equal(t, "#b", entities[1].ID())
}

func TestGraphDereference(t *testing.T) {
	g := graph.New()
	g.Add(graph.NewEntity("#a", graph.KindPlain, nil))

	require.NotNil(t, g.Dereference("#a"))
	require.Nil(t, g.Dereference("#unknown"))

	g.Remove("#a")
	require.Nil(t, g.Dereference("#a"))
	require.Zero(t, g.Len())
}
