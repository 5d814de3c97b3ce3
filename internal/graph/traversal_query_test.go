package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeintel/engine/internal/model"
)

// Exercises the SQL-building halves of traverseQuery without a database —
// no Postgres test double exists anywhere in the retrieved corpus, so
// Traverse/FindPath themselves are left to integration testing against a
// real instance; this locks down the direction-flip and relation-filter
// wiring that a unit test can check without a connection.

func TestTraverseQuery_OutboundFollowsSourceToTarget(t *testing.T) {
	query, args := traverseQuery("node1", DirectionOutbound, "", 2)

	assert.Contains(t, query, "e.target, 1, ARRAY[e.source]")
	assert.Contains(t, query, "e.source = $1")
	assert.Equal(t, []any{"node1", 2}, args)
}

func TestTraverseQuery_InboundFlipsSourceAndTarget(t *testing.T) {
	query, args := traverseQuery("node1", DirectionInbound, "", 2)

	assert.Contains(t, query, "e.source, 1, ARRAY[e.target]")
	assert.Contains(t, query, "e.target = $1")
	assert.Equal(t, []any{"node1", 2}, args)
}

func TestTraverseQuery_RelationFilterAddsThirdArg(t *testing.T) {
	_, args := traverseQuery("node1", DirectionOutbound, model.RelationCalls, 3)

	assert.Equal(t, []any{"node1", 3, "calls"}, args)
}
