package web_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/panels"
	"solana-wallet-kit/internal/solana"
	"solana-wallet-kit/internal/solana/stub"
	"solana-wallet-kit/internal/storage"
	"solana-wallet-kit/internal/storage/memory"
	"solana-wallet-kit/internal/wallet"
	"solana-wallet-kit/internal/web"
)

type testServer struct {
	rpc     *stub.RPCClient
	session *wallet.Session
	key     solanago.PrivateKey
	hub     *web.Hub
	handler http.Handler
}

func newTestServer(t *testing.T, connect bool) *testServer {
	t.Helper()
	rpc := stub.NewRPCClient()
	confirmer := solana.NewConfirmer(rpc, solana.WithPollInterval(time.Millisecond))
	session := wallet.NewSession(rpc, confirmer, "devnet", nil)

	key, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	if connect {
		session.Connect(wallet.NewKeypairWallet(key, wallet.AutoApprove))
	}

	hub := web.NewHub(nil)
	journal := storage.NewJournal(memory.NewActivityStore(), memory.NewActionEventStore(), 1, nil)
	runner := action.NewRunner(hub, action.WithJournal(journal))
	set := panels.NewSet(panels.Deps{Session: session, Runner: runner}, panels.SetConfig{
		Transfer: panels.DefaultTransferConfig(),
		Tokens:   panels.DefaultTokensConfig(),
	})

	srv, err := web.NewServer(web.Options{Panels: set, Session: session, Journal: journal, Hub: hub})
	require.NoError(t, err)
	return &testServer{rpc: rpc, session: session, key: key, hub: hub, handler: srv.Handler()}
}

func (s *testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) form(t *testing.T, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestPages_Render(t *testing.T) {
	s := newTestServer(t, true)
	short := s.key.PublicKey().String()[:8]

	for _, path := range []string{"/", "/airdrop", "/sign", "/verify", "/transfer", "/create-token"} {
		t.Run(path, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), short)
		})
	}
}

func TestPages_HomeListsFeatures(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Not connected")
	assert.Contains(t, body, `href="/create-token"`)
	assert.Contains(t, body, "Send SOL")
}

func TestPages_UnknownPathIs404(t *testing.T) {
	s := newTestServer(t, true)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/airdrop/extra", nil).Code)
}

func TestPages_AirdropForm(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.form(t, "/airdrop", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Airdrop successful! 1 SOL added to your wallet")
	assert.Contains(t, rec.Body.String(), "Balance: <strong>1 SOL</strong>")
}

func TestPages_SignThenVerify(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodPost, "/api/sign", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	sig := decode(t, rec)["signature"].(string)

	rec = s.form(t, "/verify", url.Values{"message": {"hello"}, "signature": {sig}})
	assert.Contains(t, rec.Body.String(), "Signature verified successfully!")

	rec = s.form(t, "/verify", url.Values{"message": {"hello!"}, "signature": {sig}})
	assert.Contains(t, rec.Body.String(), panels.ErrSignatureMismatch.Error())
	// the form is kept after a failure
	assert.Contains(t, rec.Body.String(), "hello!")
}

func TestPages_TransferFormAndQuote(t *testing.T) {
	s := newTestServer(t, true)
	s.rpc.Balances[s.key.PublicKey().String()] = 2_000_000_000
	to := solanago.NewWallet().PublicKey().String()

	rec := s.do(t, http.MethodGet, "/transfer?recipient="+to+"&amount=0.5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "0.500005 SOL")

	rec = s.do(t, http.MethodGet, "/transfer?recipient="+to+"&max=1", nil)
	assert.Contains(t, rec.Body.String(), `value="1.999995"`)

	rec = s.form(t, "/transfer", url.Values{"recipient": {to}, "amount": {"0.5"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transfer successful!")
	assert.NotContains(t, rec.Body.String(), `value="0.5"`)
	assert.Len(t, s.rpc.Sent, 1)
}

func TestPages_CreateTokenValidation(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.form(t, "/create-token", url.Values{
		"op": {"create"}, "name": {"Lab"}, "symbol": {"LAB"}, "decimals": {"x"}, "initial_supply": {"10"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Decimals must be between 0 and 9")
	assert.Contains(t, rec.Body.String(), "No tokens found.")
	assert.Empty(t, s.rpc.Sent)
}

func TestAPI_Health(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wallet_kit_")
}

func TestAPI_Status(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp web.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.Status)
	assert.Equal(t, "devnet", resp.Cluster)
	assert.True(t, resp.WalletConnected)
	assert.Equal(t, s.key.PublicKey().String(), resp.Wallet)
	assert.False(t, resp.InFlight["transfer"])
}

func TestAPI_WalletAndBalance(t *testing.T) {
	s := newTestServer(t, true)
	s.rpc.Balances[s.key.PublicKey().String()] = 1_500_000_000

	m := decode(t, s.do(t, http.MethodGet, "/api/wallet", nil))
	assert.Equal(t, true, m["connected"])
	assert.Equal(t, "devnet", m["cluster"])

	rec := s.do(t, http.MethodGet, "/api/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.5", decode(t, rec)["sol"])
}

func TestAPI_NotConnected(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/api/balance", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/airdrop", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m := decode(t, rec)
	assert.Equal(t, "Please connect your wallet first", m["error"])
	assert.Equal(t, string(action.KindPrecondition), m["kind"])
	assert.Zero(t, s.rpc.TotalCalls())
}

func TestAPI_VerifyMalformed(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.do(t, http.MethodPost, "/api/verify", map[string]string{"message": "m", "signature": "zz"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(action.KindMalformedInput), decode(t, rec)["kind"])
}

func TestAPI_TransferZeroAmount(t *testing.T) {
	s := newTestServer(t, true)
	to := solanago.NewWallet().PublicKey().String()

	rec := s.do(t, http.MethodPost, "/api/transfer", map[string]string{"recipient": to, "amount": "0"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, s.rpc.TotalCalls())
}

func TestAPI_TransferInsufficientFunds(t *testing.T) {
	s := newTestServer(t, true)
	s.rpc.Balances[s.key.PublicKey().String()] = 1000
	to := solanago.NewWallet().PublicKey().String()

	rec := s.do(t, http.MethodPost, "/api/transfer", map[string]string{"recipient": to, "amount": "1"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Empty(t, s.rpc.Sent)
}

func TestAPI_RejectsUnknownFields(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.do(t, http.MethodPost, "/api/sign", map[string]string{"msg": "hello"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_QuoteAndMax(t *testing.T) {
	s := newTestServer(t, true)
	s.rpc.Balances[s.key.PublicKey().String()] = 1_000_000_000
	to := solanago.NewWallet().PublicKey().String()

	rec := s.do(t, http.MethodGet, "/api/transfer/quote?recipient="+to+"&amount=0.25", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var q web.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, "0.25", q.Amount)
	assert.Equal(t, "0.000005", q.Fee)
	assert.Equal(t, "0.250005", q.Total)
	assert.True(t, q.Sufficient)
	assert.Equal(t, "0.749995", q.Remaining)

	rec = s.do(t, http.MethodGet, "/api/transfer/max?recipient="+to, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(999_995_000), decode(t, rec)["lamports"])
}

func TestAPI_TokenNotFound(t *testing.T) {
	s := newTestServer(t, true)
	mint := solanago.NewWallet().PublicKey().String()
	rec := s.do(t, http.MethodPost, "/api/tokens/"+mint+"/burn", map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/tokens", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestAPI_ActivityJournal(t *testing.T) {
	s := newTestServer(t, true)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/airdrop", nil).Code)
	s.rpc.SetError("requestAirdrop", errors.New("rate limited (429)"))
	require.Equal(t, http.StatusBadGateway, s.do(t, http.MethodPost, "/api/airdrop", nil).Code)

	rec := s.do(t, http.MethodGet, "/api/activity?wallet="+s.key.PublicKey().String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []web.ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	outcomes := []string{entries[0].Outcome, entries[1].Outcome}
	assert.ElementsMatch(t, []string{"success", "failure"}, outcomes)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/activity?limit=x", nil).Code)
}
