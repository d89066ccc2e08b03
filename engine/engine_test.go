/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/graph/util"
	"github.com/krotik/graphdb/txn"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestCreateAndGetNode(t *testing.T) {
	e := openTestEngine(t)

	n, err := e.CreateNode([]string{"User"}, map[string]data.Value{"name": data.String("alice")})
	require.NoError(t, err)

	got, ok := e.GetNode(n.ID)
	require.True(t, ok)
	assert.Equal(t, "alice", got.Properties["name"].Str())
}

func TestCreateEdgeAgainstMissingEndpointsPanics(t *testing.T) {
	// CreateEdge's builder deliberately defers endpoint validation to the
	// Coordinator's apply step (txn/builder.go), whose failure policy for
	// an apply-time referential integrity violation is to abort via panic
	// (see the Commit protocol's Open Question decision).
	e := openTestEngine(t)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.Contains(t, fmt.Sprint(r), util.ErrReferentialIntegrity.Error())
	}()

	_, _ = e.CreateEdge("FRIEND", "missing-a", "missing-b", nil)
}

func TestDeleteNodeCascadesToEdges(t *testing.T) {
	e := openTestEngine(t)

	a, _ := e.CreateNode([]string{"User"}, nil)
	b, _ := e.CreateNode([]string{"User"}, nil)
	ed, err := e.CreateEdge("FRIEND", a.ID, b.ID, nil)
	require.NoError(t, err)

	require.NoError(t, e.DeleteNode(a.ID))

	_, ok := e.GetEdge(ed.ID)
	assert.False(t, ok)
	_, ok = e.GetNode(a.ID)
	assert.False(t, ok)
}

func TestUpdateNodeMergesProperties(t *testing.T) {
	e := openTestEngine(t)

	n, _ := e.CreateNode([]string{"User"}, map[string]data.Value{"age": data.Int(30)})
	updated, err := e.UpdateNode(n.ID, txn.NodeChanges{
		Properties: map[string]data.Value{"name": data.String("alice")},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(30), updated.Properties["age"].Int64())
	assert.Equal(t, "alice", updated.Properties["name"].Str())
}

func TestQueryReturnsMatchingNodes(t *testing.T) {
	e := openTestEngine(t)

	_, err := e.CreateNode([]string{"User"}, map[string]data.Value{"name": data.String("alice"), "age": data.Int(30)})
	require.NoError(t, err)
	_, err = e.CreateNode([]string{"User"}, map[string]data.Value{"name": data.String("bob"), "age": data.Int(20)})
	require.NoError(t, err)

	rows, err := e.Query(`MATCH (n:User) WHERE n.age > 25 RETURN n.name`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0]["n.name"].(data.Value).Str())
}

func TestQueryPlanCacheIsReusedAcrossCalls(t *testing.T) {
	e := openTestEngine(t)
	_, err := e.CreateNode([]string{"User"}, map[string]data.Value{"name": data.String("alice")})
	require.NoError(t, err)

	const q = `MATCH (n:User) RETURN n.name`

	first, err := e.plan(q)
	require.NoError(t, err)
	second, err := e.plan(q)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	e1, err := Open(dir)
	require.NoError(t, err)
	n, err := e1.CreateNode([]string{"User"}, map[string]data.Value{"name": data.String("alice")})
	require.NoError(t, err)
	require.NoError(t, e1.CreateSnapshot())
	require.NoError(t, e1.Close())

	e2, err := Open(dir)
	require.NoError(t, err)
	defer e2.Close()

	got, ok := e2.GetNode(n.ID)
	require.True(t, ok)
	assert.Equal(t, "alice", got.Properties["name"].Str())
}

func TestWALReplaySurvivesReopenWithoutSnapshot(t *testing.T) {
	dir := t.TempDir()

	e1, err := Open(dir)
	require.NoError(t, err)
	n, err := e1.CreateNode([]string{"User"}, nil)
	require.NoError(t, err)
	require.NoError(t, e1.Close())

	e2, err := Open(dir)
	require.NoError(t, err)
	defer e2.Close()

	_, ok := e2.GetNode(n.ID)
	assert.True(t, ok)
}

func TestNeighborsReturnsBothDirections(t *testing.T) {
	e := openTestEngine(t)

	a, _ := e.CreateNode(nil, nil)
	b, _ := e.CreateNode(nil, nil)
	c, _ := e.CreateNode(nil, nil)
	_, err := e.CreateEdge("FRIEND", a.ID, b.ID, nil)
	require.NoError(t, err)
	_, err = e.CreateEdge("FRIEND", c.ID, a.ID, nil)
	require.NoError(t, err)

	neighbors, err := e.Neighbors(a.ID, "")
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
}

func TestBFSVisitsWithinDepth(t *testing.T) {
	e := openTestEngine(t)

	a, _ := e.CreateNode(nil, nil)
	b, _ := e.CreateNode(nil, nil)
	c, _ := e.CreateNode(nil, nil)
	_, err := e.CreateEdge("LINK", a.ID, b.ID, nil)
	require.NoError(t, err)
	_, err = e.CreateEdge("LINK", b.ID, c.ID, nil)
	require.NoError(t, err)

	within1, err := e.BFS(a.ID, 1)
	require.NoError(t, err)
	assert.Len(t, within1, 1)

	unbounded, err := e.BFS(a.ID, 0)
	require.NoError(t, err)
	assert.Len(t, unbounded, 2)
}

func TestShortestPathFindsRoute(t *testing.T) {
	e := openTestEngine(t)

	a, _ := e.CreateNode(nil, nil)
	b, _ := e.CreateNode(nil, nil)
	c, _ := e.CreateNode(nil, nil)
	_, err := e.CreateEdge("LINK", a.ID, b.ID, nil)
	require.NoError(t, err)
	_, err = e.CreateEdge("LINK", b.ID, c.ID, nil)
	require.NoError(t, err)

	path, err := e.ShortestPath(a.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, a.ID, path[0].ID)
	assert.Equal(t, c.ID, path[2].ID)
}

func TestShortestPathNoRouteReturnsNil(t *testing.T) {
	e := openTestEngine(t)

	a, _ := e.CreateNode(nil, nil)
	b, _ := e.CreateNode(nil, nil)

	path, err := e.ShortestPath(a.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, path)
}
