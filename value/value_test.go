package value_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexchoi0/blueprint/value"
)

func TestConstructorsRoundtrip(t *testing.T) {
	assert.Equal(t, value.KindNull, value.Null().Kind())
	assert.True(t, value.Bool(true).AsBool())
	assert.Equal(t, int64(42), value.Int(42).AsInt())
	assert.InDelta(t, 3.14, value.Float(3.14).AsFloat(), 1e-9)
	assert.Equal(t, "hi", value.String("hi").AsString())
	assert.Equal(t, []byte("data"), value.Bytes([]byte("data")).AsBytes())
}

func TestCollectDeferredsNestedAndDeduplicated(t *testing.T) {
	v := value.List(
		value.Deferred(1),
		value.Struct(map[string]value.Value{
			"a": value.Deferred(2),
			"b": value.Deferred(1),
		}),
		value.Map(map[string]value.Value{"x": value.Deferred(3)}),
	)

	got := value.CollectDeferreds(v)
	want := []value.NodeID{1, 2, 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CollectDeferreds mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectDeferredsNoneFound(t *testing.T) {
	v := value.List(value.Int(1), value.String("x"))
	require.Empty(t, value.CollectDeferreds(v))
}

func TestRequireEagerRejectsTopLevelDeferred(t *testing.T) {
	err := value.RequireEager(value.Deferred(7), "if condition")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script error")
}

func TestRequireEagerAcceptsMaterialized(t *testing.T) {
	require.NoError(t, value.RequireEager(value.Int(1), "if condition"))
}

func TestStringNormalizesToNFC(t *testing.T) {
	// Combining-acute-accent decomposition (two runes) vs a single
	// precomposed rune must compare equal once both pass through the
	// String constructor, since it normalizes to NFC.
	decomposed := string([]rune{'e', 0x0301})
	precomposed := string([]rune{0x00E9})
	assert.Equal(t, value.String(precomposed).AsString(), value.String(decomposed).AsString())
}
