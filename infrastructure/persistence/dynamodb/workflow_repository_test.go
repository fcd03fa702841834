package dynamodb

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/entities"
	"workflowstudio/domain/core/valueobjects"
	pkgerrors "workflowstudio/pkg/errors"
)

// fakeTable keeps items keyed by PK and pages scans pageSize items at a time
type fakeTable struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	scans    []*dynamodb.ScanInput
	pageSize int
	err      error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]types.AttributeValue)}
}

func partitionKey(key map[string]types.AttributeValue) string {
	if pk, ok := key["PK"].(*types.AttributeValueMemberS); ok {
		return pk.Value
	}
	return ""
}

func (f *fakeTable) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.items[partitionKey(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[partitionKey(params.Key)]}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk := partitionKey(params.Key)
	if _, ok := f.items[pk]; !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	delete(f.items, pk)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans = append(f.scans, params)

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if params.ExclusiveStartKey != nil {
		after := partitionKey(params.ExclusiveStartKey)
		start = sort.SearchStrings(keys, after) + 1
	}
	end := len(keys)
	if f.pageSize > 0 && start+f.pageSize < end {
		end = start + f.pageSize
	}

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, f.items[k])
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: keys[end-1]},
		}
	}
	return out, nil
}

func testDocument(updated time.Time) aggregates.Document {
	return aggregates.Document{
		ID:   valueobjects.NewWorkflowID().String(),
		Name: "flow",
		Nodes: []entities.Node{
			{ID: "a", Type: entities.DefaultNodeType, Position: valueobjects.Position{X: 1, Y: 2}, Data: map[string]any{"label": "Start"}},
			{ID: "b", Type: entities.DefaultNodeType},
		},
		Edges: []entities.Edge{
			{ID: "e1", Source: "a", Target: "b", SourceHandle: "out", Type: entities.DefaultEdgeType},
		},
		Version:   4,
		CreatedAt: updated.Add(-time.Hour),
		UpdatedAt: updated,
	}
}

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := NewWorkflowRepository(table, "workflows", zap.NewNop())
	doc := testDocument(time.Now())

	require.NoError(t, repo.Save(ctx, doc))

	got, err := repo.GetByID(ctx, valueobjects.WorkflowID(doc.ID))
	require.NoError(t, err)

	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.Name, got.Name)
	assert.Equal(t, doc.Version, got.Version)
	assert.True(t, doc.UpdatedAt.Equal(got.UpdatedAt))
	assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, doc.Nodes, got.Nodes)
	assert.Equal(t, doc.Edges, got.Edges)
}

func TestWorkflowRepository_ItemLayout(t *testing.T) {
	table := newFakeTable()
	repo := NewWorkflowRepository(table, "workflows", zap.NewNop())
	doc := testDocument(time.Now())
	require.NoError(t, repo.Save(context.Background(), doc))

	item := table.items["WORKFLOW#"+doc.ID]
	require.NotNil(t, item)
	assert.Equal(t, &types.AttributeValueMemberS{Value: metadataSortKey}, item["SK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: entityTypeWorkflow}, item["EntityType"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "2"}, item["NodeCount"])
	assert.Contains(t, item, "Graph")
}

func TestWorkflowRepository_GetMissing(t *testing.T) {
	repo := NewWorkflowRepository(newFakeTable(), "workflows", zap.NewNop())

	_, err := repo.GetByID(context.Background(), valueobjects.NewWorkflowID())
	assert.ErrorIs(t, err, pkgerrors.ErrWorkflowNotFound)
}

func TestWorkflowRepository_ClientErrors(t *testing.T) {
	table := newFakeTable()
	table.err = errors.New("throttled")
	repo := NewWorkflowRepository(table, "workflows", zap.NewNop())

	err := repo.Save(context.Background(), testDocument(time.Now()))
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))

	_, err = repo.GetByID(context.Background(), valueobjects.NewWorkflowID())
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
}

func TestWorkflowRepository_ListPagesThroughScan(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	table.pageSize = 2
	repo := NewWorkflowRepository(table, "workflows", zap.NewNop())

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, testDocument(time.Now().Add(time.Duration(i)*time.Minute))))
	}

	summaries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 5)
	for _, s := range summaries {
		assert.True(t, s.Saved)
		assert.Equal(t, 2, s.NodeCount)
		assert.Equal(t, 1, s.EdgeCount)
	}

	require.Len(t, table.scans, 3)
	scan := table.scans[0]
	require.NotNil(t, scan.FilterExpression)
	require.NotNil(t, scan.ProjectionExpression)
	assert.Contains(t, scan.ExpressionAttributeNames, "#0")
}

func TestWorkflowRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkflowRepository(newFakeTable(), "workflows", zap.NewNop())
	doc := testDocument(time.Now())
	require.NoError(t, repo.Save(ctx, doc))

	require.NoError(t, repo.Delete(ctx, valueobjects.WorkflowID(doc.ID)))
	assert.ErrorIs(t, repo.Delete(ctx, valueobjects.WorkflowID(doc.ID)), pkgerrors.ErrWorkflowNotFound)
}
