package websockets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnections struct {
	ids     []string
	removed []string
}

func (f *fakeConnections) GetAllConnections(context.Context) ([]string, error) { return f.ids, nil }
func (f *fakeConnections) AddConnection(_ context.Context, id string) error {
	f.ids = append(f.ids, id)
	return nil
}
func (f *fakeConnections) RemoveConnection(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

type fakePoster struct {
	posted map[string][]byte
	fail   map[string]error
}

func (f *fakePoster) PostToConnection(_ context.Context, in *apigatewaymanagementapi.PostToConnectionInput, _ ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	id := aws.ToString(in.ConnectionId)
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	f.posted[id] = in.Data
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func TestPublish(t *testing.T) {
	conns := &fakeConnections{ids: []string{"c1", "c2", "c3"}}
	poster := &fakePoster{
		posted: map[string][]byte{},
		fail: map[string]error{
			"c2": &apigwtypes.GoneException{},
			"c3": errors.New("throttled"),
		},
	}
	p := NewPublisher(conns, conns, poster)

	err := p.Publish(context.Background(), Message{
		Type:    MessageTypeRequestUpdate,
		Payload: RequestUpdatePayload{Event: "advance_completed", RequestID: "r1"},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"requestUpdate","payload":{"event":"advance_completed","recipient_ids":null,"request_id":"r1"}}`, string(poster.posted["c1"]))
	assert.Equal(t, []string{"c2"}, conns.removed)
}
