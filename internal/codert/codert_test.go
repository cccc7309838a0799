package codert_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/codert"
)

func TestClosureRuntimeInstrumentsRegisteredName(t *testing.T) {
	rt := codert.NewClosureRuntime()
	rt.Register("echo_code", func(export string, arg codec.Value, api codert.SystemApi) (codec.Value, error) {
		return arg, nil
	})

	instance, err := rt.Instrument([]byte("echo_code"))
	require.NoError(t, err)

	out, err := instance.Invoke("anything", codec.Text("hi"), nil)
	require.NoError(t, err)
	require.Equal(t, "hi", out.Text)
}

func TestClosureRuntimeUnknownCodeErrors(t *testing.T) {
	rt := codert.NewClosureRuntime()
	_, err := rt.Instrument([]byte("nothing_registered"))
	require.Error(t, err)
}
