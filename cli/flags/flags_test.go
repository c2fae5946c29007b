package flags

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestAccountFlag(t *testing.T) {
	f := AccountFlag{Name: "receiver, r", Usage: "receiver account"}
	require.Equal(t, "--receiver value, -r value\treceiver account", f.String())
	require.Equal(t, "receiver, r", f.GetName())
	require.False(t, f.IsSet())

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	f.Apply(set)
	require.NoError(t, set.Parse([]string{"-r", "bob.near"}))
	acc := set.Lookup("receiver").Value.(*Account)
	require.True(t, acc.IsSet)
	require.EqualValues(t, "bob.near", acc.Value)

	require.Error(t, set.Parse([]string{"--receiver", "Bob!"}))
}

func TestEVMAddressFlag(t *testing.T) {
	f := EVMAddressFlag{Name: "address", Usage: "EVM address"}
	require.Equal(t, "--address value\tEVM address", f.String())

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	f.Apply(set)
	require.NoError(t, set.Parse([]string{"--address", "0x4444588443C3a91288c5002483449Aba1054192b"}))
	addr := set.Lookup("address").Value.(*EVMAddress)
	require.True(t, addr.IsSet)
	require.Equal(t, "0x4444588443C3a91288c5002483449Aba1054192b", addr.String())

	require.Error(t, set.Parse([]string{"--address", "0x1234"}))
	_, err := ParseEVMAddress("4444588443c3a91288c5002483449aba1054192b")
	require.NoError(t, err)
}

func TestMarkRequired(t *testing.T) {
	fs := MarkRequired([]cli.Flag{
		cli.StringFlag{Name: "a"},
		cli.IntFlag{Name: "b"},
		cli.BoolFlag{Name: "c"},
		cli.Uint64Flag{Name: "d"},
	}, "a", "c", "d")
	require.True(t, fs[0].(cli.StringFlag).Required)
	require.False(t, fs[1].(cli.IntFlag).Required)
	require.True(t, fs[2].(cli.BoolFlag).Required)
	require.True(t, fs[3].(cli.Uint64Flag).Required)
}
