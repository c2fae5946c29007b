package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/aurora-is-near/aurora-go/cli/app"
	"github.com/aurora-is-near/aurora-go/internal/testrpc"
	"github.com/aurora-is-near/aurora-go/pkg/config"
	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

var blockHash = util.Sha256([]byte("final block"))

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// RPC is a fake NEAR node the commands talk to.
	RPC *testrpc.Server
	// Signer is the key stored at KeyPath.
	Signer  keys.Signer
	KeyPath string
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
}

func newExecutor(t *testing.T) *executor {
	t.Setenv(config.KeyPathEnv, "")
	e := &executor{
		CLI: app.New(),
		RPC: testrpc.New(t),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	e.RPC.ServeBlock(100, blockHash)
	e.RPC.ServeAccessKey(41)

	pk, err := keys.NewPrivateKey(keys.ED25519)
	require.NoError(t, err)
	e.Signer = keys.Signer{AccountID: "alice.near", PrivateKey: pk}
	e.KeyPath = filepath.Join(t.TempDir(), "alice.json")
	require.NoError(t, keys.NewKeyFile("alice.near", pk).Write(e.KeyPath))
	return e
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that is exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 1)
}

// RunWithUsageError runs command with bad flags, such errors are printed by
// the command itself without exiting.
func (e *executor) RunWithUsageError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 0)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...), e.Err.String())
	checkExit(t, ch, 0)
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	cli.ErrWriter = e.Err
	return e.CLI.Run(args)
}

// cmd returns arguments for the command talking to the test node.
func (e *executor) cmd(group, name string, args ...string) []string {
	return append([]string{"aurora-go", group, name, "-r", e.RPC.URL}, args...)
}

// signed is similar to cmd, but adds the signer key too.
func (e *executor) signed(group, name string, args ...string) []string {
	return e.cmd(group, name, append([]string{"-k", e.KeyPath}, args...)...)
}

func (e *executor) outJSON(t *testing.T, v any) {
	require.NoError(t, json.Unmarshal(e.Out.Bytes(), v), e.Out.String())
}
