package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workflowstudio/domain/core/valueobjects"
	"workflowstudio/domain/events"
	pkgerrors "workflowstudio/pkg/errors"
)

type fakeEventBridge struct {
	calls  []*eventbridge.PutEventsInput
	output *eventbridge.PutEventsOutput
	err    error
}

func (f *fakeEventBridge) PutEvents(_ context.Context, params *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func testEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewNodeRemoved(valueobjects.WorkflowID("wf-1"), "a", nil, i+1, time.Unix(0, 0))
	}
	return out
}

func TestPublisher_PublishBatchChunks(t *testing.T) {
	client := &fakeEventBridge{}
	p := NewPublisher(client, "workflows", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), testEvents(23)))

	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0].Entries, 10)
	assert.Len(t, client.calls[1].Entries, 10)
	assert.Len(t, client.calls[2].Entries, 3)
}

func TestPublisher_EntryShape(t *testing.T) {
	client := &fakeEventBridge{}
	p := NewPublisher(client, "workflows", zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), testEvents(1)[0]))

	require.Len(t, client.calls, 1)
	entry := client.calls[0].Entries[0]
	assert.Equal(t, "workflows", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.Source, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeNodeRemoved, aws.ToString(entry.DetailType))
	assert.Equal(t, []string{"workflow/wf-1"}, entry.Resources)

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "wf-1", detail["aggregate_id"])
	assert.Equal(t, "a", detail["node_id"])
}

func TestPublisher_EmptyBatchSendsNothing(t *testing.T) {
	client := &fakeEventBridge{}
	p := NewPublisher(client, "workflows", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Empty(t, client.calls)
}

func TestPublisher_Failures(t *testing.T) {
	t.Run("client error", func(t *testing.T) {
		p := NewPublisher(&fakeEventBridge{err: errors.New("throttled")}, "workflows", zap.NewNop())
		err := p.PublishBatch(context.Background(), testEvents(2))
		assert.ErrorContains(t, err, "throttled")
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	})

	t.Run("failed entries", func(t *testing.T) {
		client := &fakeEventBridge{output: &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{EventId: aws.String("1")},
				{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("boom")},
			},
		}}
		p := NewPublisher(client, "workflows", zap.NewNop())
		err := p.PublishBatch(context.Background(), testEvents(2))
		assert.ErrorContains(t, err, "1 events failed to publish")
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	})
}
