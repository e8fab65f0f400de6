package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/config"
	"solana-wallet-kit/internal/solana/stub"
)

func writeKeypair(t *testing.T) (string, solanago.PrivateKey) {
	t.Helper()
	key, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path, key
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.RPC.Cluster = "devnet"
	cfg.Wallet.Approval = config.ApprovalAuto
	return cfg
}

func TestNew_ConnectsKeypairWallet(t *testing.T) {
	path, key := writeKeypair(t)
	cfg := testConfig()
	cfg.Wallet.KeypairPath = path

	rpc := stub.NewRPCClient()
	rec := &action.Recorder{}
	a, err := New(context.Background(), cfg, nil, Options{RPC: rpc, Sinks: []action.Sink{rec}})
	require.NoError(t, err)
	defer a.Close()

	pk, ok := a.Session.PublicKey()
	require.True(t, ok)
	assert.Equal(t, key.PublicKey(), pk)

	res, err := a.Panels.Airdrop.Request(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.Airdrop.Lamports, res.Lamports)
	assert.Equal(t, 1, rpc.Calls("requestAirdrop"))
	assert.NotEmpty(t, rec.Statuses())

	acts, err := a.Journal.Recent(context.Background(), pk.String(), 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "airdrop", acts[0].Panel)
}

func TestNew_WithoutKeypairStartsDisconnected(t *testing.T) {
	rpc := stub.NewRPCClient()
	a, err := New(context.Background(), testConfig(), nil, Options{RPC: rpc})
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.Session.Connected())
	_, err = a.Panels.Balance.Get(context.Background())
	require.Error(t, err)
	assert.Zero(t, rpc.TotalCalls())
}

func TestNew_MissingKeypair(t *testing.T) {
	cfg := testConfig()
	cfg.Wallet.KeypairPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := New(context.Background(), cfg, nil, Options{RPC: stub.NewRPCClient()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load wallet")
}

func TestNew_DenyApproverRejects(t *testing.T) {
	path, _ := writeKeypair(t)
	cfg := testConfig()
	cfg.Wallet.KeypairPath = path
	cfg.Wallet.Approval = config.ApprovalDeny

	a, err := New(context.Background(), cfg, nil, Options{RPC: stub.NewRPCClient()})
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Panels.Sign.Sign(context.Background(), "hello")
	var f *action.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, action.KindRejected, f.Kind)
}

func TestClose_Disconnects(t *testing.T) {
	path, _ := writeKeypair(t)
	cfg := testConfig()
	cfg.Wallet.KeypairPath = path

	a, err := New(context.Background(), cfg, nil, Options{RPC: stub.NewRPCClient()})
	require.NoError(t, err)
	a.Close()
	assert.False(t, a.Session.Connected())
}
