package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newRPCServer answers each request with the value returned by handle as "result".
func newRPCServer(t *testing.T, handle func(req rpcRequest) interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func withContext(value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 42},
		"value":   value,
	}
}

func TestHTTPClient_GetBalance(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getBalance" {
			t.Errorf("expected method getBalance, got %s", req.Method)
		}
		if req.Params[0] != "walletpubkey" {
			t.Errorf("unexpected pubkey param: %v", req.Params[0])
		}
		cfg := req.Params[1].(map[string]interface{})
		if cfg["commitment"] != "confirmed" {
			t.Errorf("expected confirmed commitment, got %v", cfg["commitment"])
		}
		return withContext(uint64(1_500_000_000))
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	balance, err := client.GetBalance(context.Background(), "walletpubkey", CommitmentConfirmed)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 1_500_000_000 {
		t.Errorf("expected 1500000000 lamports, got %d", balance)
	}
}

func TestHTTPClient_GetLatestBlockhash(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		return withContext(map[string]interface{}{
			"blockhash":            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
			"lastValidBlockHeight": 3090,
		})
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	bh, err := client.GetLatestBlockhash(context.Background(), CommitmentFinalized)
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if bh.Blockhash != "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N" {
		t.Errorf("unexpected blockhash %s", bh.Blockhash)
	}
	if bh.LastValidBlockHeight != 3090 {
		t.Errorf("expected last valid height 3090, got %d", bh.LastValidBlockHeight)
	}
}

func TestHTTPClient_GetFeeForMessage(t *testing.T) {
	msg := []byte{1, 2, 3}
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Params[0] != base64.StdEncoding.EncodeToString(msg) {
			t.Errorf("message not base64 encoded: %v", req.Params[0])
		}
		return withContext(5000)
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	fee, err := client.GetFeeForMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("GetFeeForMessage: %v", err)
	}
	if fee == nil || *fee != 5000 {
		t.Errorf("expected fee 5000, got %v", fee)
	}
}

func TestHTTPClient_GetFeeForMessage_Null(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		return withContext(nil)
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	fee, err := client.GetFeeForMessage(context.Background(), []byte{1})
	if err != nil {
		t.Fatalf("GetFeeForMessage: %v", err)
	}
	if fee != nil {
		t.Errorf("expected nil fee, got %d", *fee)
	}
}

func TestHTTPClient_SimulateTransaction(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		cfg := req.Params[1].(map[string]interface{})
		if cfg["sigVerify"] != false || cfg["replaceRecentBlockhash"] != true {
			t.Errorf("unexpected simulate config: %v", cfg)
		}
		if cfg["encoding"] != "base64" {
			t.Errorf("expected base64 encoding, got %v", cfg["encoding"])
		}
		return withContext(map[string]interface{}{
			"err":           map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
			"logs":          []string{"Program 11111111111111111111111111111111 failed"},
			"unitsConsumed": 150,
		})
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	res, err := client.SimulateTransaction(context.Background(), []byte{0}, SimulateConfig{ReplaceRecentBlockhash: true})
	if err != nil {
		t.Fatalf("SimulateTransaction: %v", err)
	}
	if !res.Failed() {
		t.Error("expected failed simulation")
	}
	if res.UnitsConsumed == nil || *res.UnitsConsumed != 150 {
		t.Errorf("expected 150 units, got %v", res.UnitsConsumed)
	}
	if len(res.Logs) != 1 {
		t.Errorf("expected 1 log line, got %d", len(res.Logs))
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "sendTransaction" {
			t.Errorf("expected method sendTransaction, got %s", req.Method)
		}
		cfg := req.Params[1].(map[string]interface{})
		if cfg["maxRetries"] != float64(3) {
			t.Errorf("expected maxRetries 3, got %v", cfg["maxRetries"])
		}
		if cfg["skipPreflight"] != false {
			t.Errorf("expected skipPreflight false, got %v", cfg["skipPreflight"])
		}
		if cfg["preflightCommitment"] != "confirmed" {
			t.Errorf("expected preflightCommitment confirmed, got %v", cfg["preflightCommitment"])
		}
		return "5sig"
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	sig, err := client.SendTransaction(context.Background(), []byte{1, 2}, DefaultSendConfig())
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != "5sig" {
		t.Errorf("unexpected signature %s", sig)
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		return withContext([]interface{}{
			map[string]interface{}{
				"slot":               77,
				"confirmations":      nil,
				"err":                nil,
				"confirmationStatus": "finalized",
			},
			nil,
		})
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0] == nil || statuses[0].ConfirmationStatus != "finalized" || statuses[0].Slot != 77 {
		t.Errorf("unexpected first status: %+v", statuses[0])
	}
	if statuses[1] != nil {
		t.Errorf("expected nil for unknown signature, got %+v", statuses[1])
	}
}

func TestHTTPClient_GetTokenAccountsByOwner(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		filter := req.Params[1].(map[string]interface{})
		if filter["programId"] != "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb" {
			t.Errorf("unexpected program filter: %v", filter)
		}
		cfg := req.Params[2].(map[string]interface{})
		if cfg["encoding"] != "jsonParsed" {
			t.Errorf("expected jsonParsed, got %v", cfg["encoding"])
		}
		return withContext([]interface{}{
			map[string]interface{}{
				"pubkey": "tokenacct1",
				"account": map[string]interface{}{
					"data": map[string]interface{}{
						"program": "spl-token-2022",
						"parsed": map[string]interface{}{
							"type": "account",
							"info": map[string]interface{}{
								"mint":  "mint1",
								"owner": "owner1",
								"tokenAmount": map[string]interface{}{
									"amount":         "2500000",
									"decimals":       6,
									"uiAmountString": "2.5",
								},
							},
						},
					},
				},
			},
		})
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	accts, err := client.GetTokenAccountsByOwner(context.Background(), "owner1", "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	if err != nil {
		t.Fatalf("GetTokenAccountsByOwner: %v", err)
	}
	if len(accts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accts))
	}
	a := accts[0]
	if a.Pubkey != "tokenacct1" || a.Mint != "mint1" || a.Amount != "2500000" || a.Decimals != 6 || a.UIAmount != "2.5" {
		t.Errorf("unexpected account: %+v", a)
	}
	if a.ProgramID != "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb" {
		t.Errorf("program id not carried: %s", a.ProgramID)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  uint64(999),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	height, err := client.GetBlockHeight(context.Background(), CommitmentConfirmed)
	if err != nil {
		t.Fatalf("GetBlockHeight: %v", err)
	}
	if height != 999 {
		t.Errorf("expected height 999, got %d", height)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_RateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(1),
		WithRetryDelay(time.Millisecond),
	)

	_, err := client.RequestAirdrop(context.Background(), "walletpubkey", 1_000_000_000)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected 429 in error, got %v", err)
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed: Blockhash not found",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))

	_, err := client.SendTransaction(context.Background(), []byte{1}, DefaultSendConfig())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T", err)
	}
	if rpcErr.Code != -32002 {
		t.Errorf("expected code -32002, got %d", rpcErr.Code)
	}
	if attempts.Load() != 1 {
		t.Errorf("RPC errors must not be retried, got %d attempts", attempts.Load())
	}
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getAccountInfo" {
			t.Errorf("expected method getAccountInfo, got %s", req.Method)
		}
		return map[string]interface{}{
			"value": map[string]interface{}{
				"lamports":   uint64(1000000),
				"owner":      "11111111111111111111111111111111",
				"data":       []string{"SGVsbG8gV29ybGQ=", "base64"},
				"executable": false,
				"rentEpoch":  uint64(100),
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "testpubkey")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info == nil {
		t.Fatal("expected account info, got nil")
	}
	if info.Lamports != 1000000 {
		t.Errorf("expected lamports 1000000, got %d", info.Lamports)
	}
	data, err := info.DecodeData()
	if err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if string(data) != "Hello World" {
		t.Errorf("unexpected data: %q", data)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{"value": nil}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil for not found, got %+v", info)
	}
}

func TestHTTPClient_CallObserver(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		return uint64(1)
	})
	defer server.Close()

	var observed []string
	client := NewHTTPClient(server.URL, WithCallObserver(func(method string, _ time.Duration, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		observed = append(observed, method)
	}))

	if _, err := client.GetMinimumBalanceForRentExemption(context.Background(), 165); err != nil {
		t.Fatalf("GetMinimumBalanceForRentExemption: %v", err)
	}
	if len(observed) != 1 || observed[0] != "getMinimumBalanceForRentExemption" {
		t.Errorf("unexpected observations: %v", observed)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.GetBlockHeight(ctx, "")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
