package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/panels"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "airdrop", "sign", "verify", "transfer", "create_token"}

// pages holds one template set per page, each sharing the layout.
type pages struct {
	sets map[string]*template.Template
}

func loadPages() (*pages, error) {
	funcs := template.FuncMap{
		"short": domain.ShortAddress,
		"sol":   domain.FormatSOL,
	}
	p := &pages{sets: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.sets[name] = t
	}
	return p, nil
}

// feature is one entry of the home page catalogue.
type feature struct {
	Path        string
	Title       string
	Description string
}

var features = []feature{
	{"/airdrop", "Airdrop", "Request 1 SOL from the devnet or testnet faucet."},
	{"/sign", "Sign Message", "Sign an arbitrary message with your wallet."},
	{"/verify", "Verify Signature", "Check a hex signature against your public key."},
	{"/transfer", "Send SOL", "Transfer SOL with a fee estimate and simulation."},
	{"/create-token", "Tokens", "Create Token-2022 mints and manage your balances."},
}

// pageData is passed to every page template.
type pageData struct {
	Title     string
	Path      string
	Connected bool
	Address   string
	Cluster   string
	Busy      bool

	Success   string
	Error     string
	Kind      action.Kind
	Signature string

	Form   map[string]string
	Result interface{}
	Extra  interface{}
}

func (s *Server) newPage(r *http.Request, title string) *pageData {
	d := &pageData{
		Title:   title,
		Path:    r.URL.Path,
		Cluster: s.session.Cluster(),
		Form:    map[string]string{},
	}
	if pk, ok := s.session.PublicKey(); ok {
		d.Connected = true
		d.Address = pk.String()
	}
	return d
}

// fail records err on the page; the form is kept so the user can retry.
func (d *pageData) fail(err error) {
	var f *action.Failure
	if errors.As(err, &f) {
		d.Error, d.Kind = f.Message, f.Kind
		return
	}
	d.Error, d.Kind = err.Error(), action.KindUnknown
}

// succeed records a success message and clears the form.
func (d *pageData) succeed(msg string) {
	d.Success = msg
	d.Form = map[string]string{}
}

func (s *Server) render(w http.ResponseWriter, name string, data *pageData) {
	var buf bytes.Buffer
	if err := s.pages.sets[name].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.logger.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func formValues(r *http.Request, keys ...string) map[string]string {
	m := make(map[string]string, len(keys))
	for _, k := range keys {
		m[k] = r.FormValue(k)
	}
	return m
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	d := s.newPage(r, "Solana Wallet Kit")
	d.Extra = features
	s.render(w, "home", d)
}

func (s *Server) handleAirdropPage(w http.ResponseWriter, r *http.Request) {
	d := s.newPage(r, "Airdrop")
	if r.Method == http.MethodPost {
		res, err := s.panels.Airdrop.Request(r.Context())
		if err != nil {
			d.fail(err)
		} else {
			d.succeed("Airdrop successful! " + domain.FormatSOL(res.Lamports) + " SOL added to your wallet")
			d.Signature = res.Signature
		}
	}
	if bal, err := s.panels.Balance.Get(r.Context()); err == nil {
		d.Extra = bal
	}
	d.Busy = s.panels.Airdrop.InFlight()
	s.render(w, "airdrop", d)
}

func (s *Server) handleSignPage(w http.ResponseWriter, r *http.Request) {
	d := s.newPage(r, "Sign Message")
	if r.Method == http.MethodPost {
		d.Form = formValues(r, "message")
		res, err := s.panels.Sign.Sign(r.Context(), d.Form["message"])
		if err != nil {
			d.fail(err)
		} else {
			d.succeed("Message signed successfully!")
			d.Result = res
		}
	}
	d.Busy = s.panels.Sign.InFlight()
	s.render(w, "sign", d)
}

func (s *Server) handleVerifyPage(w http.ResponseWriter, r *http.Request) {
	d := s.newPage(r, "Verify Signature")
	if r.Method == http.MethodPost {
		d.Form = formValues(r, "message", "signature")
		res, err := s.panels.Verify.Verify(r.Context(), d.Form["message"], d.Form["signature"])
		switch {
		case err != nil:
			d.fail(err)
		case res.Valid:
			d.Success = "Signature verified successfully!"
			d.Result = res
		default:
			d.Error, d.Kind = panels.ErrSignatureMismatch.Error(), action.KindRejected
			d.Result = res
		}
	}
	d.Busy = s.panels.Verify.InFlight()
	s.render(w, "verify", d)
}

func (s *Server) handleTransferPage(w http.ResponseWriter, r *http.Request) {
	d := s.newPage(r, "Send SOL")
	d.Form = formValues(r, "recipient", "amount")

	switch {
	case r.Method == http.MethodPost:
		res, err := s.panels.Transfer.Submit(r.Context(), d.Form["recipient"], d.Form["amount"])
		if err != nil {
			d.fail(err)
		} else {
			d.succeed("Transfer successful!")
			d.Signature = res.Signature
			d.Result = res
		}
	case r.FormValue("max") != "":
		lamports, err := s.panels.Transfer.MaxAmount(r.Context(), d.Form["recipient"])
		if err != nil {
			d.fail(err)
		} else {
			d.Form["amount"] = domain.FormatSOL(lamports)
		}
	}

	if d.Connected && d.Success == "" && (d.Form["recipient"] != "" || d.Form["amount"] != "") {
		if q, err := s.panels.Transfer.Quote(r.Context(), d.Form["recipient"], d.Form["amount"]); err == nil {
			d.Extra = quoteResponse(q)
		}
	}
	d.Busy = s.panels.Transfer.InFlight()
	s.render(w, "transfer", d)
}

// tokensView is the token section of the create-token page.
type tokensView struct {
	Tokens []TokenResponse
	Error  string
}

func (s *Server) handleCreateTokenPage(w http.ResponseWriter, r *http.Request) {
	d := s.newPage(r, "Tokens")
	if r.Method == http.MethodPost {
		switch op := r.FormValue("op"); op {
		case "mint", "burn":
			s.tokenOpForm(r, d, op)
		default:
			s.createTokenForm(r, d)
		}
	}

	view := tokensView{}
	if d.Connected {
		balances, err := s.panels.Tokens.List(r.Context())
		if err != nil {
			view.Error = "Failed to load tokens: " + err.Error()
		}
		for _, b := range balances {
			view.Tokens = append(view.Tokens, tokenResponse(b))
		}
	}
	d.Extra = view
	d.Busy = s.panels.CreateToken.InFlight() || s.panels.Tokens.InFlight()
	s.render(w, "create_token", d)
}

func (s *Server) createTokenForm(r *http.Request, d *pageData) {
	d.Form = formValues(r, "name", "symbol", "description", "image", "metadata_uri", "decimals", "initial_supply")
	decimals, err := strconv.Atoi(strings.TrimSpace(d.Form["decimals"]))
	if err != nil {
		d.Error, d.Kind = "Decimals must be between 0 and 9", action.KindPrecondition
		return
	}
	created, err := s.panels.CreateToken.Create(r.Context(), domain.TokenForm{
		Name:          d.Form["name"],
		Symbol:        d.Form["symbol"],
		Description:   d.Form["description"],
		Image:         d.Form["image"],
		MetadataURI:   d.Form["metadata_uri"],
		Decimals:      decimals,
		InitialSupply: d.Form["initial_supply"],
	})
	if err != nil {
		d.fail(err)
		return
	}
	d.succeed("Token created successfully! Mint: " + created.Mint)
	d.Signature = created.Signature
	d.Result = created
}

func (s *Server) tokenOpForm(r *http.Request, d *pageData, op string) {
	token, err := s.panels.Tokens.Find(r.Context(), r.FormValue("mint"))
	if err != nil {
		if errors.Is(err, panels.ErrTokenNotFound) {
			d.Error, d.Kind = "Missing required information for "+op+" operation", action.KindPrecondition
			return
		}
		d.fail(err)
		return
	}

	run, verb := s.panels.Tokens.Burn, "burned"
	if op == "mint" {
		run, verb = s.panels.Tokens.Mint, "minted"
	}
	res, err := run(r.Context(), *token, r.FormValue("amount"))
	if err != nil {
		d.fail(err)
		return
	}
	d.succeed(fmt.Sprintf("Successfully %s %s %s tokens!", verb, res.Amount, res.Symbol))
	d.Signature = res.Signature
}
