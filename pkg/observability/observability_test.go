package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	pkgerrors "workflowstudio/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestMetrics_RecordCommandExecution(t *testing.T) {
	client := &fakeCloudWatch{}
	m := NewMetrics("WorkflowStudio/test", client, zap.NewNop())

	m.RecordCommandExecution(context.Background(), "ConnectCommand", 12*time.Millisecond, errors.New("boom"))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "WorkflowStudio/test", aws.ToString(in.Namespace))
	require.Len(t, in.MetricData, 2)
	assert.Equal(t, "CommandExecution", aws.ToString(in.MetricData[0].MetricName))
	assert.Equal(t, 12.0, aws.ToFloat64(in.MetricData[0].Value))
	assert.Equal(t, "failure", aws.ToString(in.MetricData[0].Dimensions[1].Value))
}

func TestMetrics_DomainFailureRecordsErrorCode(t *testing.T) {
	client := &fakeCloudWatch{}
	m := NewMetrics("ns", client, zap.NewNop())

	m.RecordCommandExecution(context.Background(), "ConnectCommand", time.Millisecond,
		fmt.Errorf("connect: %w", pkgerrors.NewUnknownNodeError("source", "a")))

	require.Len(t, client.inputs, 2)
	errDatum := client.inputs[1].MetricData[0]
	assert.Equal(t, "Errors", aws.ToString(errDatum.MetricName))
	assert.Equal(t, pkgerrors.CodeUnknownNode, aws.ToString(errDatum.Dimensions[1].Value))
}

func TestMetrics_SendFailureIsSwallowed(t *testing.T) {
	client := &fakeCloudWatch{err: errors.New("throttled")}
	m := NewMetrics("ns", client, nil)

	assert.NotPanics(t, func() { m.RecordGraphSize(context.Background(), 3, 2) })
	assert.Len(t, client.inputs, 1)
}

func TestMetrics_NilClientIsDisabled(t *testing.T) {
	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		NewMetrics("ns", nil, nil).RecordError(context.Background(), "CONFLICT", "DUPLICATE_ID")
		nilMetrics.RecordError(context.Background(), "CONFLICT", "DUPLICATE_ID")
	})
}

func TestTracer_TraceFunctionWithoutSegment(t *testing.T) {
	tracer := NewTracer("workflowstudio")
	called := false

	err := tracer.TraceFunction(context.Background(), "connect", func(context.Context) error {
		called = true
		return errors.New("failed")
	})

	assert.True(t, called)
	assert.EqualError(t, err, "failed")

	var nilTracer *Tracer
	assert.NoError(t, nilTracer.TraceFunction(context.Background(), "save", func(context.Context) error { return nil }))
}
