package intrinsics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexchoi0/blueprint/intrinsics"
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

func TestReadFileRejectsEmptyPath(t *testing.T) {
	b := plan.NewBuilder()
	_, err := intrinsics.ReadFile(b, value.String(""), nil)
	require.Error(t, err)
}

func TestReadFileAcceptsDeferredPath(t *testing.T) {
	b := plan.NewBuilder()
	name, err := intrinsics.EnvGet(b, value.String("FILE_NAME"), value.String("default.txt"), nil)
	require.NoError(t, err)

	d, err := intrinsics.ReadFile(b, name, nil)
	require.NoError(t, err)

	p, err := b.Freeze()
	require.NoError(t, err)
	node := p.NodeByID(d.AsDeferred())
	assert.Equal(t, plan.KindReadFile, node.Kind)
	assert.Contains(t, node.DataDeps, name.AsDeferred())
}

func TestHTTPRequestRejectsBadMethod(t *testing.T) {
	b := plan.NewBuilder()
	_, err := intrinsics.HTTPRequest(b, value.String("FETCH"), value.String("http://example.com"), value.Null(), value.Null(), nil)
	require.Error(t, err)
}

func TestHTTPRequestAcceptsValidRequest(t *testing.T) {
	b := plan.NewBuilder()
	d, err := intrinsics.HTTPRequest(b, value.String("GET"), value.String("http://example.com"), value.Null(), value.Null(), nil)
	require.NoError(t, err)
	p, err := b.Freeze()
	require.NoError(t, err)
	assert.Equal(t, plan.KindHTTPRequest, p.NodeByID(d.AsDeferred()).Kind)
}

func TestExecRejectsEmptyArgv(t *testing.T) {
	b := plan.NewBuilder()
	_, err := intrinsics.Exec(b, value.List(), value.Null(), value.Null(), nil)
	require.Error(t, err)
}

func TestSleepRejectsNegativeDuration(t *testing.T) {
	b := plan.NewBuilder()
	_, err := intrinsics.Sleep(b, value.Float(-1), nil)
	require.Error(t, err)
}
