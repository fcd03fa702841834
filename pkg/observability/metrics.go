package observability

import (
	"context"
	"time"

	pkgerrors "workflowstudio/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the subset of the CloudWatch client Metrics uses.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics handles application metrics and monitoring
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
}

// NewMetrics creates a new metrics instance. A nil client disables it.
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordCommandExecution records duration and count of a command
func (m *Metrics) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	dims := []types.Dimension{
		dimension("CommandName", commandName),
		dimension("Status", status),
	}

	m.put(ctx,
		datum("CommandExecution", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
		datum("CommandCount", 1, types.StandardUnitCount, dims),
	)

	if domainErr := pkgerrors.GetDomainError(err); domainErr != nil {
		m.RecordError(ctx, string(domainErr.Type), domainErr.Code)
	}
}

// RecordGraphSize records the node and edge count of a workflow after a commit
func (m *Metrics) RecordGraphSize(ctx context.Context, nodes, edges int) {
	m.put(ctx,
		datum("WorkflowNodes", float64(nodes), types.StandardUnitCount, nil),
		datum("WorkflowEdges", float64(edges), types.StandardUnitCount, nil),
	)
}

// RecordError records error occurrences
func (m *Metrics) RecordError(ctx context.Context, errorType string, errorCode string) {
	m.put(ctx, datum("Errors", 1, types.StandardUnitCount, []types.Dimension{
		dimension("ErrorType", errorType),
		dimension("ErrorCode", errorCode),
	}))
}

func (m *Metrics) put(ctx context.Context, data ...types.MetricDatum) {
	if m == nil || m.client == nil {
		return
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}

	// Metrics never fail the operation being measured
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Warn("Failed to send metrics", zap.Error(err), zap.String("namespace", m.namespace))
	}
}

func dimension(name, value string) types.Dimension {
	return types.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func datum(name string, value float64, unit types.StandardUnit, dims []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	}
}
