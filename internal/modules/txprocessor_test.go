package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/ids"
)

func TestRunManifestEmptyIsTriviallySuccessful(t *testing.T) {
	outputs, err := RunManifest(nil, func(interface{}, string, codec.Value, []ids.ValueId) (codec.Value, []ids.ValueId, error) {
		t.Fatal("invoke should not be called for an empty manifest")
		return codec.Value{}, nil, nil
	})
	require.NoError(t, err)
	require.Empty(t, outputs)
}

func TestRunManifestStopsAtFirstFailure(t *testing.T) {
	calls := 0
	instructions := []Instruction{
		{FnIdent: "ok"},
		{FnIdent: "fails"},
		{FnIdent: "never"},
	}
	_, err := RunManifest(instructions, func(_ interface{}, fnIdent string, _ codec.Value, _ []ids.ValueId) (codec.Value, []ids.ValueId, error) {
		calls++
		if fnIdent == "fails" {
			return codec.Value{}, nil, assertErr{}
		}
		return codec.Unit(), nil, nil
	})
	require.Error(t, err)
	require.Equal(t, 2, calls)
}

type assertErr struct{}

func (assertErr) Error() string { return "forced failure" }
