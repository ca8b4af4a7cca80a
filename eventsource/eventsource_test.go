package eventsource_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexchoi0/blueprint/eventsource"
)

func TestTCPListenerAcceptAndEcho(t *testing.T) {
	table := eventsource.NewTable()
	defer table.CloseAll()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	listenerHandle := table.RegisterListener("tcp", ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	clientHandle := table.RegisterConn("tcp", conn)
	defer table.Close(clientHandle)

	ctx := context.Background()
	h, ev, err := table.Poll(ctx, []eventsource.Handle{listenerHandle}, time.Second)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, eventsource.EventAccept, ev.Type)
	assert.Equal(t, listenerHandle, h)

	serverSide := ev.Data["child"].(eventsource.Handle)

	_, err = table.Write(clientHandle, []byte("ping"), nil)
	require.NoError(t, err)

	_, ev2, err := table.Poll(ctx, []eventsource.Handle{serverSide}, time.Second)
	require.NoError(t, err)
	require.NotNil(t, ev2)
	assert.Equal(t, eventsource.EventData, ev2.Type)
	assert.Equal(t, []byte("ping"), ev2.Data["bytes"])
}

func TestPollTimeoutReturnsNilEventNoError(t *testing.T) {
	table := eventsource.NewTable()
	defer table.CloseAll()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	h := table.RegisterListener("tcp", ln)

	_, ev, err := table.Poll(context.Background(), []eventsource.Handle{h}, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestCloseFailsSubsequentOps(t *testing.T) {
	table := eventsource.NewTable()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	h := table.RegisterListener("tcp", ln)

	require.NoError(t, table.Close(h))

	_, err = table.Write(h, []byte("x"), nil)
	require.Error(t, err)
	var closedErr *eventsource.ErrClosed
	assert.ErrorAs(t, err, &closedErr)
}
