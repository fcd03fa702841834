package validators

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflowstudio/domain/catalog"
	"workflowstudio/domain/core/entities"
	"workflowstudio/pkg/errors"
)

func testCatalog(t *testing.T) *catalog.StaticCatalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

func TestGraphValidator_Validate(t *testing.T) {
	a := entities.Node{ID: "a", Type: "agent"}
	b := entities.Node{ID: "b", Type: "output"}

	tests := []struct {
		name       string
		nodes      []entities.Node
		edges      []entities.Edge
		violations int
	}{
		{
			name:  "valid graph",
			nodes: []entities.Node{a, b},
			edges: []entities.Edge{{ID: "e1", Source: "a", Target: "b"}},
		},
		{
			name:       "dangling target",
			nodes:      []entities.Node{a},
			edges:      []entities.Edge{{ID: "e1", Source: "a", Target: "b"}},
			violations: 1,
		},
		{
			name:       "duplicate node id",
			nodes:      []entities.Node{a, a},
			violations: 1,
		},
		{
			name:       "duplicate edge id",
			nodes:      []entities.Node{a, b},
			edges:      []entities.Edge{{ID: "e1", Source: "a", Target: "b"}, {ID: "e1", Source: "b", Target: "a"}},
			violations: 1,
		},
		{
			name:       "self loop",
			nodes:      []entities.Node{a},
			edges:      []entities.Edge{{ID: "e1", Source: "a", Target: "a"}},
			violations: 1,
		},
		{
			name:  "self loop between different handles is allowed",
			nodes: []entities.Node{a},
			edges: []entities.Edge{{ID: "e1", Source: "a", Target: "a", SourceHandle: "out", TargetHandle: "in"}},
		},
		{
			name:       "duplicate endpoints",
			nodes:      []entities.Node{a, b},
			edges:      []entities.Edge{{ID: "e1", Source: "a", Target: "b"}, {ID: "e2", Source: "a", Target: "b"}},
			violations: 1,
		},
		{
			name:       "unknown type",
			nodes:      []entities.Node{{ID: "x", Type: "bogus"}},
			violations: 1,
		},
		{
			name:       "empty type and missing edge id",
			nodes:      []entities.Node{{ID: "x"}},
			edges:      []entities.Edge{{Source: "x", Target: "x"}},
			violations: 2,
		},
	}

	v := NewGraphValidator(testCatalog(t), 0, 0)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.nodes, tt.edges)
			if tt.violations == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidGraph))
			domainErr := errors.GetDomainError(err)
			require.NotNil(t, domainErr)
			assert.Len(t, domainErr.Details["violations"], tt.violations)
		})
	}
}

func TestGraphValidator_Limits(t *testing.T) {
	v := NewGraphValidator(nil, 1, 0)

	err := v.Validate([]entities.Node{{ID: "a", Type: "x"}, {ID: "b", Type: "y"}}, nil)

	assert.True(t, stderrors.Is(err, errors.ErrInvalidGraph))
}

func TestAllowAllConnections(t *testing.T) {
	assert.True(t, AllowAllConnections.IsConnectionAllowed("a", "", "b", ""))
}

func TestCatalogPolicy(t *testing.T) {
	tests := []struct {
		name         string
		enforcePorts bool
		sourceType   string
		sourceHandle string
		targetType   string
		targetHandle string
		want         bool
	}{
		{"agent to output", false, "agent", "out", "output", "in", true},
		{"into a source-only block", false, "agent", "", "starter", "", false},
		{"output refuses starter", false, "starter", "out", "output", "", false},
		{"unknown types are unrestricted", false, "custom", "", "other", "", true},
		{"unknown handle ignored without enforcement", false, "agent", "nope", "agent", "", true},
		{"unknown source handle enforced", true, "agent", "nope", "agent", "in", false},
		{"unknown target handle enforced", true, "agent", "out", "agent", "nope", false},
		{"default handles always pass", true, "agent", "", "team", "", true},
	}

	c := testCatalog(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewCatalogPolicy(c, tt.enforcePorts)
			assert.Equal(t, tt.want, p.IsConnectionAllowed(tt.sourceType, tt.sourceHandle, tt.targetType, tt.targetHandle))
		})
	}
}
