package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/storage"
)

// maxBodyBytes bounds API request bodies.
const maxBodyBytes = 64 << 10

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// WalletResponse describes the connection state.
type WalletResponse struct {
	Connected    bool   `json:"connected"`
	Address      string `json:"address,omitempty"`
	ShortAddress string `json:"short_address,omitempty"`
	Cluster      string `json:"cluster"`
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	resp := WalletResponse{Cluster: s.session.Cluster()}
	if pk, ok := s.session.PublicKey(); ok {
		resp.Connected = true
		resp.Address = pk.String()
		resp.ShortAddress = domain.ShortAddress(resp.Address)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	res, err := s.panels.Balance.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":  res.Address,
		"lamports": res.Lamports,
		"sol":      res.SOL,
	})
}

func (s *Server) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	res, err := s.panels.Airdrop.Request(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"signature": res.Signature,
		"lamports":  res.Lamports,
	})
}

type signRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.panels.Sign.Sign(r.Context(), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    res.Message,
		"signature":  res.SignatureHex,
		"public_key": res.PublicKey,
	})
}

type verifyRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.panels.Verify.Verify(r.Context(), req.Message, req.Signature)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":      res.Valid,
		"public_key": res.PublicKey,
	})
}

// QuoteResponse is the transfer summary.
type QuoteResponse struct {
	Recipient     string `json:"recipient"`
	Amount        string `json:"amount"`
	Fee           string `json:"fee"`
	FeeEstimated  bool   `json:"fee_estimated"`
	Total         string `json:"total"`
	Balance       string `json:"balance"`
	Remaining     string `json:"remaining,omitempty"`
	Sufficient    bool   `json:"sufficient"`
	FeeLamports   uint64 `json:"fee_lamports"`
	TotalLamports uint64 `json:"total_lamports"`
}

func quoteResponse(q *domain.TransferQuote) QuoteResponse {
	resp := QuoteResponse{
		Recipient:     q.Recipient,
		Amount:        domain.FormatSOL(q.Lamports),
		Fee:           domain.FormatSOL(q.FeeLamports),
		FeeEstimated:  q.FeeFallback,
		Total:         domain.FormatSOL(q.TotalLamports()),
		Balance:       domain.FormatSOL(q.BalanceLamports),
		Sufficient:    q.Sufficient,
		FeeLamports:   q.FeeLamports,
		TotalLamports: q.TotalLamports(),
	}
	if q.Sufficient {
		resp.Remaining = domain.FormatSOL(q.RemainingLamports)
	}
	return resp
}

func (s *Server) handleTransferQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.panels.Transfer.Quote(r.Context(), r.URL.Query().Get("recipient"), r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse(q))
}

func (s *Server) handleTransferMax(w http.ResponseWriter, r *http.Request) {
	lamports, err := s.panels.Transfer.MaxAmount(r.Context(), r.URL.Query().Get("recipient"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lamports": lamports,
		"amount":   domain.FormatSOL(lamports),
	})
}

type transferRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.panels.Transfer.Submit(r.Context(), req.Recipient, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"signature":    res.Signature,
		"recipient":    res.Recipient,
		"lamports":     res.Lamports,
		"fee_lamports": res.FeeLamports,
		"explorer_url": res.ExplorerURL,
	})
}

// TokenResponse is one held token.
type TokenResponse struct {
	Mint          string  `json:"mint"`
	TokenAccount  string  `json:"token_account"`
	ProgramID     string  `json:"program_id"`
	Amount        string  `json:"amount"`
	Decimals      int     `json:"decimals"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	URI           *string `json:"uri,omitempty"`
	Image         *string `json:"image,omitempty"`
	Description   *string `json:"description,omitempty"`
	Supply        string  `json:"supply,omitempty"`
	MintAuthority *string `json:"mint_authority,omitempty"`
	OwnedByWallet bool    `json:"owned_by_wallet"`
}

func tokenResponse(b domain.TokenBalance) TokenResponse {
	return TokenResponse{
		Mint:          b.Mint,
		TokenAccount:  b.TokenAccount,
		ProgramID:     b.ProgramID,
		Amount:        b.Amount,
		Decimals:      b.Decimals,
		Name:          b.Name,
		Symbol:        b.Symbol,
		URI:           b.URI,
		Image:         b.Image,
		Description:   b.Description,
		Supply:        b.Supply,
		MintAuthority: b.MintAuthority,
		OwnedByWallet: b.OwnedByWallet,
	}
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	balances, err := s.panels.Tokens.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]TokenResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, tokenResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

type createTokenRequest struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Description   string `json:"description"`
	Image         string `json:"image"`
	MetadataURI   string `json:"metadata_uri"`
	Decimals      int    `json:"decimals"`
	InitialSupply string `json:"initial_supply"`
}

func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := s.panels.CreateToken.Create(r.Context(), domain.TokenForm(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mint":          created.Mint,
		"token_account": created.TokenAccount,
		"signature":     created.Signature,
		"metadata_uri":  created.MetadataURI,
		"explorer_url":  created.ExplorerURL,
		"minted":        created.Minted,
	})
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	s.handleTokenOp(w, r, "mint")
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	s.handleTokenOp(w, r, "burn")
}

func (s *Server) handleTokenOp(w http.ResponseWriter, r *http.Request, op string) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	token, err := s.panels.Tokens.Find(r.Context(), r.PathValue("mint"))
	if err != nil {
		writeError(w, err)
		return
	}

	run := s.panels.Tokens.Burn
	if op == "mint" {
		run = s.panels.Tokens.Mint
	}
	res, err := run(r.Context(), *token, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"signature": res.Signature,
		"mint":      res.Mint,
		"amount":    res.Amount,
		"symbol":    res.Symbol,
	})
}

// ActivityResponse is one journal entry.
type ActivityResponse struct {
	ID         string  `json:"id"`
	Panel      string  `json:"panel"`
	Action     string  `json:"action"`
	Wallet     string  `json:"wallet,omitempty"`
	Signature  *string `json:"signature,omitempty"`
	Outcome    string  `json:"outcome"`
	ErrorKind  string  `json:"error_kind,omitempty"`
	Message    string  `json:"message"`
	StartedAt  int64   `json:"started_at"`
	FinishedAt int64   `json:"finished_at"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeJSON(w, http.StatusOK, []ActivityResponse{})
		return
	}
	limit := storage.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
			return
		}
		limit = n
	}

	activities, err := s.journal.Recent(r.Context(), r.URL.Query().Get("wallet"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, ActivityResponse{
			ID:         a.ID,
			Panel:      a.Panel,
			Action:     a.Action,
			Wallet:     a.Wallet,
			Signature:  a.Signature,
			Outcome:    string(a.Outcome),
			ErrorKind:  a.ErrorKind,
			Message:    a.Message,
			StartedAt:  a.StartedAt,
			FinishedAt: a.FinishedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
