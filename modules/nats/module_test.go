package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/platform"
	"github.com/vk/clustergrid/internal/registry"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	published []published
	reply     DeployReply
	replyErr  error
	request   []byte
	flushed   bool
	closed    bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.published = append(f.published, published{subject: subj, data: data})
	return nil
}

func (f *fakeConn) RequestWithContext(_ context.Context, _ string, data []byte) (*nats.Msg, error) {
	f.request = data
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	out, err := msgpack.Marshal(f.reply)
	if err != nil {
		return nil, err
	}
	return &nats.Msg{Data: out}, nil
}

func (f *fakeConn) Flush() error { f.flushed = true; return nil }
func (f *fakeConn) Close()       { f.closed = true }

func TestPlatform_PublishesMsgpack(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	fc := &fakeConn{reply: DeployReply{OK: true}}
	p := New(fc, "grid", time.Second)

	node := platform.NodeSpec{ID: "n1", Key: "a.controller[0]", Hostname: "a-controller.q", Env: map[string]string{"K": "V"}}
	require.NoError(t, p.CreateNode(ctx, node))
	require.NoError(t, p.Allow(ctx, platform.Permission{
		From: platform.Endpoint{Nodes: []string{"n1"}},
		To:   platform.Endpoint{External: platform.ExternalPublic},
		Port: 80,
	}))
	require.NoError(t, p.ExposePublic(ctx, platform.Exposure{To: platform.Endpoint{Nodes: []string{"n1"}}, Port: 8080}))
	require.NoError(t, p.Deploy(ctx))

	require.Len(t, fc.published, 3)
	assert.Equal(t, "grid.node", fc.published[0].subject)
	assert.Equal(t, "grid.allow", fc.published[1].subject)
	assert.Equal(t, "grid.expose", fc.published[2].subject)

	var gotNode platform.NodeSpec
	require.NoError(t, msgpack.Unmarshal(fc.published[0].data, &gotNode))
	assert.Equal(t, node, gotNode)

	var req DeployRequest
	require.NoError(t, msgpack.Unmarshal(fc.request, &req))
	assert.Equal(t, DeployRequest{Nodes: 1, Permissions: 1, Exposures: 1}, req)
	assert.True(t, fc.flushed)

	require.NoError(t, p.Close())
	assert.True(t, fc.closed)
}

func TestPlatform_DeployFailures(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	testCases := []struct {
		name    string
		conn    *fakeConn
		wantErr string
	}{
		{name: "refused", conn: &fakeConn{reply: DeployReply{Error: "quota"}}, wantErr: "deployer refused: quota"},
		{name: "refused without reason", conn: &fakeConn{}, wantErr: "deployer refused: rejected"},
		{name: "no responders", conn: &fakeConn{replyErr: errors.New("no responders")}, wantErr: "deploy request on clustergrid.deploy failed"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := New(tc.conn, "", 0).Deploy(ctx)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestConnect_InvalidTimeout(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	_, err := Connect(ctx, &Input{Timeout: "later"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse timeout")
}

func TestModule_Validates(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	require.NoError(t, registry.New(&Module{}).ValidateRegistry(ctx))
}
