package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/valueobjects"
	pkgerrors "workflowstudio/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	entityTypeWorkflow = "WORKFLOW"
	metadataSortKey    = "METADATA"
)

// API is the slice of the DynamoDB client the repository uses
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// WorkflowRepository stores one item per workflow in a single table. The
// graph travels as a JSON document so node data keeps its shape.
type WorkflowRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewWorkflowRepository creates a new WorkflowRepository
func NewWorkflowRepository(client API, tableName string, logger *zap.Logger) *WorkflowRepository {
	return &WorkflowRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// workflowItem represents the DynamoDB item structure for a workflow
type workflowItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	WorkflowID string `dynamodbav:"WorkflowID"`
	Name       string `dynamodbav:"Name"`
	NodeCount  int    `dynamodbav:"NodeCount"`
	EdgeCount  int    `dynamodbav:"EdgeCount"`
	Graph      string `dynamodbav:"Graph,omitempty"`
	Version    int    `dynamodbav:"Version"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

func workflowKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "WORKFLOW#" + id},
		"SK": &types.AttributeValueMemberS{Value: metadataSortKey},
	}
}

// Save persists a workflow document, replacing any previous save
func (r *WorkflowRepository) Save(ctx context.Context, doc aggregates.Document) error {
	graph, err := json.Marshal(aggregates.Graph{Nodes: doc.Nodes, Edges: doc.Edges})
	if err != nil {
		return fmt.Errorf("failed to encode workflow graph: %w", err)
	}

	item := workflowItem{
		PK:         "WORKFLOW#" + doc.ID,
		SK:         metadataSortKey,
		EntityType: entityTypeWorkflow,
		WorkflowID: doc.ID,
		Name:       doc.Name,
		NodeCount:  len(doc.Nodes),
		EdgeCount:  len(doc.Edges),
		Graph:      string(graph),
		Version:    doc.Version,
		CreatedAt:  doc.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:  doc.UpdatedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to save workflow to DynamoDB",
			zap.Error(err),
			zap.String("workflowID", doc.ID),
		)
		return pkgerrors.NewDatabaseError("save workflow", err)
	}

	r.logger.Debug("Saved workflow to DynamoDB",
		zap.String("workflowID", doc.ID),
		zap.Int("nodeCount", item.NodeCount),
		zap.Int("edgeCount", item.EdgeCount),
	)
	return nil
}

// GetByID retrieves a saved workflow
func (r *WorkflowRepository) GetByID(ctx context.Context, id valueobjects.WorkflowID) (aggregates.Document, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            workflowKey(id.String()),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return aggregates.Document{}, pkgerrors.NewDatabaseError("get workflow", err)
	}
	if len(result.Item) == 0 {
		return aggregates.Document{}, pkgerrors.NewWorkflowNotFoundError(id.String())
	}

	var item workflowItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return aggregates.Document{}, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}

	doc, err := item.document()
	if err != nil {
		return aggregates.Document{}, err
	}

	var graph aggregates.Graph
	if err := json.Unmarshal([]byte(item.Graph), &graph); err != nil {
		return aggregates.Document{}, fmt.Errorf("failed to decode workflow graph: %w", err)
	}
	doc.Nodes = graph.Nodes
	doc.Edges = graph.Edges
	return doc, nil
}

// List summarizes every saved workflow without reading the graphs
func (r *WorkflowRepository) List(ctx context.Context) ([]aggregates.Summary, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityTypeWorkflow))
	projection := expression.NamesList(
		expression.Name("WorkflowID"),
		expression.Name("Name"),
		expression.Name("NodeCount"),
		expression.Name("EdgeCount"),
		expression.Name("Version"),
		expression.Name("CreatedAt"),
		expression.Name("UpdatedAt"),
	)
	expr, err := expression.NewBuilder().WithFilter(filter).WithProjection(projection).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan expression: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var summaries []aggregates.Summary
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list workflows", err)
		}

		for _, raw := range page.Items {
			var item workflowItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal workflow item", zap.Error(err))
				continue
			}
			doc, err := item.document()
			if err != nil {
				r.logger.Warn("Skipping malformed workflow item",
					zap.String("workflowID", item.WorkflowID),
					zap.Error(err),
				)
				continue
			}
			summary := doc.Summarize()
			summary.NodeCount = item.NodeCount
			summary.EdgeCount = item.EdgeCount
			summary.Saved = true
			summaries = append(summaries, summary)
		}
	}

	return summaries, nil
}

// Delete removes a saved workflow
func (r *WorkflowRepository) Delete(ctx context.Context, id valueobjects.WorkflowID) error {
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build delete condition: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      workflowKey(id.String()),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return pkgerrors.NewWorkflowNotFoundError(id.String())
	}
	if err != nil {
		return pkgerrors.NewDatabaseError("delete workflow", err)
	}

	r.logger.Debug("Workflow deleted", zap.String("workflowID", id.String()))
	return nil
}

func (item workflowItem) document() (aggregates.Document, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return aggregates.Document{}, fmt.Errorf("invalid CreatedAt %q: %w", item.CreatedAt, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return aggregates.Document{}, fmt.Errorf("invalid UpdatedAt %q: %w", item.UpdatedAt, err)
	}

	return aggregates.Document{
		ID:        item.WorkflowID,
		Name:      item.Name,
		Version:   item.Version,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
