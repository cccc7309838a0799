package codec_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/codec"
)

func TestRoundTripPrimitives(t *testing.T) {
	values := []codec.Value{
		codec.Unit(),
		codec.Bool(true),
		codec.Int64(-42),
		codec.Uint64(42),
		codec.Text("radix"),
		codec.RawBytes([]byte{1, 2, 3}),
		codec.None(),
		codec.Some(codec.Text("present")),
	}

	for _, v := range values {
		encoded, err := codec.Encode(v)
		require.NoError(t, err)
		decoded, err := codec.Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, v, decoded)
	}
}

func TestRoundTripComposite(t *testing.T) {
	state := codec.StructOf(
		codec.Text("alice"),
		codec.Uint64(100),
		codec.VecOf(codec.Int64(1), codec.Int64(2), codec.Int64(3)),
		codec.MapOf(
			codec.Entry{Key: codec.Text("k1"), Value: codec.Uint64(1)},
			codec.Entry{Key: codec.Text("k2"), Value: codec.Uint64(2)},
		),
		codec.EnumOf(1, codec.Text("variant-payload")),
	)

	encoded, err := codec.Encode(state)
	require.NoError(t, err)
	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, state, decoded)
}

// TestRoundTripDeeplyNestedValue exercises a struct nested several levels
// deep (vec of structs, each holding a map, each value an enum). A plain
// require.Equal failure here would just print "not equal" for the whole
// tree; cmp.Diff walks the Value graph field by field and reports which
// leaf actually diverged, so it is the tool reached for once a composite
// value has more than one or two levels of nesting.
func TestRoundTripDeeplyNestedValue(t *testing.T) {
	row := func(name string, n uint64) codec.Value {
		return codec.StructOf(
			codec.Text(name),
			codec.MapOf(codec.Entry{Key: codec.Text("count"), Value: codec.EnumOf(0, codec.Uint64(n))}),
		)
	}
	table := codec.VecOf(row("alice", 1), row("bob", 2), row("carol", 3))

	encoded, err := codec.Encode(table)
	require.NoError(t, err)
	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)

	if diff := cmp.Diff(table, decoded); diff != "" {
		t.Fatalf("round trip changed the value tree (-want +got):\n%s", diff)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	v := codec.StructOf(codec.Text("a"), codec.Uint64(1))

	first, err := codec.Encode(v)
	require.NoError(t, err)
	second, err := codec.Encode(v)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestIsNone(t *testing.T) {
	require.True(t, codec.None().IsNone())
	require.False(t, codec.Some(codec.Uint64(1)).IsNone())
}
