package engine

import (
	"context"
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/actor"
	"github.com/aurora-is-near/aurora-go/pkg/transaction"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestAdminReader(t *testing.T) {
	ctx := context.Background()
	ta := &testAct{results: map[string][]byte{
		"get_upgrade_delay_blocks": binary.LittleEndian.AppendUint64(nil, 1000),
		"get_fixed_gas":            binary.LittleEndian.AppendUint64([]byte{1}, 21000),
		"get_paused_flags":         {3},
		"get_whitelist_status":     {byte(WhitelistAddress), 1},
	}}
	r := NewReader(ta, DefaultAccountID)

	delay, err := r.UpgradeDelayBlocks(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1000, delay)

	gas, err := r.FixedGas(ctx)
	require.NoError(t, err)
	require.NotNil(t, gas)
	require.EqualValues(t, 21000, *gas)

	ta.results["get_fixed_gas"] = []byte{0}
	gas, err = r.FixedGas(ctx)
	require.NoError(t, err)
	require.Nil(t, gas)

	mask, err := r.PausedFlags(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, mask)

	active, err := r.WhitelistStatus(ctx, WhitelistAddress)
	require.NoError(t, err)
	require.True(t, active)
	require.Equal(t, call{"aurora", "get_whitelist_status", []byte{3}}, ta.lastCall())

	ta.results["get_upgrade_delay_blocks"] = []byte{1, 2}
	_, err = r.UpgradeDelayBlocks(ctx)
	require.Error(t, err)
}

func TestAdminContract(t *testing.T) {
	ctx := context.Background()
	ta := &testAct{out: &actor.Outcome{Status: result.StatusSuccessValue}}
	c := New(ta, "aurora.test.near")

	for name, f := range map[string]func() (*actor.Outcome, error){
		"pause_contract":  func() (*actor.Outcome, error) { return c.PauseContract(ctx) },
		"resume_contract": func() (*actor.Outcome, error) { return c.ResumeContract(ctx) },
		"deploy_upgrade":  func() (*actor.Outcome, error) { return c.DeployUpgrade(ctx) },
	} {
		_, err := f()
		require.NoError(t, err)
		require.Equal(t, call{"aurora.test.near", name, nil}, ta.lastSent())
	}

	code := []byte{0, 'a', 's', 'm'}
	_, err := c.StageUpgrade(ctx, code)
	require.NoError(t, err)
	require.Equal(t, call{"aurora.test.near", "stage_upgrade", code}, ta.lastSent())
	_, err = c.Upgrade(ctx, code)
	require.NoError(t, err)
	require.Equal(t, call{"aurora.test.near", "upgrade", code}, ta.lastSent())

	_, err = c.SetUpgradeDelayBlocks(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, []byte{5, 0, 0, 0, 0, 0, 0, 0}, ta.lastSent().args)

	gas := uint64(100)
	_, err = c.SetFixedGas(ctx, &gas)
	require.NoError(t, err)
	require.Equal(t, "set_fixed_gas", ta.lastSent().method)
	require.Equal(t, []byte{1, 100, 0, 0, 0, 0, 0, 0, 0}, ta.lastSent().args)
	_, err = c.SetFixedGas(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0}, ta.lastSent().args)

	_, err = c.SetPausedFlags(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, call{"aurora.test.near", "set_paused_flags", []byte{1}}, ta.lastSent())

	hc := common.HexToHash("0xff")
	_, err = c.StartHashchain(ctx, 10, hc)
	require.NoError(t, err)
	require.Equal(t, "start_hashchain", ta.lastSent().method)
	require.Equal(t, append(binary.LittleEndian.AppendUint64(nil, 10), hc.Bytes()...), ta.lastSent().args)

	manager := util.AccountID("km.near")
	_, err = c.SetKeyManager(ctx, &manager)
	require.NoError(t, err)
	require.Equal(t, call{"aurora.test.near", "set_key_manager", []byte(`{"key_manager":"km.near"}`)}, ta.lastSent())
	_, err = c.SetKeyManager(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, `{"key_manager":null}`, string(ta.lastSent().args))

	pk, err := keys.NewPrivateKey(keys.ED25519)
	require.NoError(t, err)
	_, err = c.AddRelayerKey(ctx, pk.PublicKey(), big.NewInt(42))
	require.NoError(t, err)
	require.Equal(t, call{"aurora.test.near", "add_relayer_key", []byte(`{"public_key":"` + pk.PublicKey().String() + `"}`)}, ta.lastSent())
	require.EqualValues(t, 42, ta.deposits[len(ta.deposits)-1].Int64())
	_, err = c.RemoveRelayerKey(ctx, pk.PublicKey())
	require.NoError(t, err)
	require.Equal(t, "remove_relayer_key", ta.lastSent().method)
	require.Nil(t, ta.deposits[len(ta.deposits)-1])

	_, err = c.SetWhitelistStatus(ctx, WhitelistAccount, true)
	require.NoError(t, err)
	require.Equal(t, call{"aurora.test.near", "set_whitelist_status", []byte{2, 1}}, ta.lastSent())

	_, err = c.AddWhitelistEntry(ctx, WhitelistAdmin, "alice.near")
	require.NoError(t, err)
	require.Equal(t, call{"aurora.test.near", "add_entry_to_whitelist",
		append([]byte{1, 0, 10, 0, 0, 0}, "alice.near"...)}, ta.lastSent())
	_, err = c.RemoveWhitelistEntry(ctx, WhitelistAddress, addr.Hex())
	require.NoError(t, err)
	require.Equal(t, call{"aurora.test.near", "remove_entry_from_whitelist",
		append([]byte{0, 3}, addr.Bytes()...)}, ta.lastSent())

	sent := len(ta.sent)
	_, err = c.AddWhitelistEntry(ctx, WhitelistEVMAdmin, "alice.near")
	require.Error(t, err)
	_, err = c.AddWhitelistEntry(ctx, WhitelistAccount, "Not An Account")
	require.Error(t, err)
	_, err = c.AddWhitelistEntry(ctx, WhitelistKind(7), "alice.near")
	require.Error(t, err)
	require.Len(t, ta.sent, sent)
}

func TestDeployAndInit(t *testing.T) {
	ctx := context.Background()
	ta := &testAct{out: &actor.Outcome{Status: result.StatusSuccessValue}}
	c := New(ta, "aurora.test.near")

	code := []byte{0, 'a', 's', 'm'}
	_, err := c.DeployCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, util.AccountID("aurora.test.near"), ta.lastSent().contract)
	require.Equal(t, []transaction.Action{transaction.DeployContract{Code: code}}, ta.commits[0])

	_, err = c.Init(ctx, InitParams{
		ChainID:            1313161556,
		Owner:              "owner.near",
		BridgeProver:       "prover.near",
		UpgradeDelayBlocks: 3,
	})
	require.NoError(t, err)
	require.Len(t, ta.commits, 2)
	acts := ta.commits[1]
	require.Len(t, acts, 2)

	newCall, ok := acts[0].(transaction.FunctionCall)
	require.True(t, ok)
	require.Equal(t, "new", newCall.MethodName)
	require.EqualValues(t, actor.MaxGas/2, newCall.Gas)
	want := []byte{1}
	want = append(want, common.BigToHash(big.NewInt(1313161556)).Bytes()...)
	want = append(want, 10, 0, 0, 0)
	want = append(want, "owner.near"...)
	want = binary.LittleEndian.AppendUint64(want, 3)
	require.Equal(t, want, newCall.Args)

	connCall, ok := acts[1].(transaction.FunctionCall)
	require.True(t, ok)
	require.Equal(t, "new_eth_connector", connCall.MethodName)
	want = append([]byte{11, 0, 0, 0}, "prover.near"...)
	want = append(want, 40, 0, 0, 0)
	want = append(want, "0000000000000000000000000000000000000000"...)
	want = append(want, 8, 0, 0, 0)
	want = append(want, "ft-1.0.0"...)
	want = append(want, 8, 0, 0, 0)
	want = append(want, "localETH"...)
	want = append(want, 8, 0, 0, 0)
	want = append(want, "localETH"...)
	want = append(want, 0, 0, 0, 18)
	require.Equal(t, want, connCall.Args)

	icon := "data:,"
	_, err = c.Init(ctx, InitParams{
		Owner:        "owner.near",
		BridgeProver: "prover.near",
		Custodian:    addr,
		Metadata:     &FungibleTokenMetadata{Spec: "ft-1.0.0", Name: "ETH", Symbol: "ETH", Icon: &icon, Decimals: 18},
	})
	require.NoError(t, err)
	connCall = ta.commits[2][1].(transaction.FunctionCall)
	require.Contains(t, string(connCall.Args), common.Bytes2Hex(addr.Bytes()))
	require.Contains(t, string(connCall.Args), "data:,")
}
