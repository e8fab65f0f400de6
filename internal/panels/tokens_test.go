package panels_test

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/panels"
	"solana-wallet-kit/internal/program"
	"solana-wallet-kit/internal/solana"
	"solana-wallet-kit/internal/tokenmeta"
	"solana-wallet-kit/internal/wallet"
)

func mintData(authority *solanago.PublicKey, supply uint64, decimals uint8) []byte {
	b := make([]byte, tokenmeta.MintLen)
	if authority != nil {
		binary.LittleEndian.PutUint32(b[0:4], 1)
		copy(b[4:36], authority[:])
	}
	binary.LittleEndian.PutUint64(b[36:44], supply)
	b[44] = decimals
	b[45] = 1
	return b
}

func appendString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

func token2022MintData(authority, mint solanago.PublicKey, supply uint64, decimals uint8, name, symbol, uri string) []byte {
	b := mintData(&authority, supply, decimals)
	b = append(b, make([]byte, program.AccountBaseLen-program.MintBaseLen)...)
	b = append(b, 1) // mint account type

	var v []byte
	v = append(v, authority[:]...)
	v = append(v, mint[:]...)
	v = appendString(v, name)
	v = appendString(v, symbol)
	v = appendString(v, uri)
	v = binary.LittleEndian.AppendUint32(v, 0)

	b = binary.LittleEndian.AppendUint16(b, 19)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(v)))
	return append(b, v...)
}

func addAccount(env *testEnv, addr, owner string, data []byte) {
	env.rpc.Accounts[addr] = &solana.AccountInfo{
		Owner: owner,
		Data:  base64.StdEncoding.EncodeToString(data),
	}
}

func seedTokens(t *testing.T, env *testEnv) (classic, t22 solanago.PublicKey) {
	t.Helper()
	owner := env.key.PublicKey()
	classic = solanago.NewWallet().PublicKey()
	t22 = solanago.NewWallet().PublicKey()

	addAccount(env, classic.String(), program.TokenProgramID.String(), mintData(&owner, 100_000, 2))

	uri, err := tokenmeta.NewDocument("Lab Token", "LAB", "lab description", "https://img/lab.png", "").DataURI()
	require.NoError(t, err)
	other := solanago.NewWallet().PublicKey()
	addAccount(env, t22.String(), program.Token2022ProgramID.String(),
		token2022MintData(other, t22, 5_000_000, 6, "Lab Token", "LAB", uri))

	env.rpc.AddTokenAccount(owner.String(), solana.TokenAccount{
		Pubkey:    solanago.NewWallet().PublicKey().String(),
		ProgramID: program.TokenProgramID.String(),
		Mint:      classic.String(),
		Owner:     owner.String(),
		Amount:    "1500",
		Decimals:  2,
		UIAmount:  "15",
	})
	env.rpc.AddTokenAccount(owner.String(), solana.TokenAccount{
		Pubkey:    solanago.NewWallet().PublicKey().String(),
		ProgramID: program.Token2022ProgramID.String(),
		Mint:      t22.String(),
		Owner:     owner.String(),
		Amount:    "2500000",
		Decimals:  6,
		UIAmount:  "2.5",
	})
	return classic, t22
}

func byMint(balances []domain.TokenBalance, mint string) *domain.TokenBalance {
	for i := range balances {
		if balances[i].Mint == mint {
			return &balances[i]
		}
	}
	return nil
}

func TestTokens_List(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	classic, t22 := seedTokens(t, env)
	p := panels.NewTokens(env.deps, panels.DefaultTokensConfig(), nil)

	balances, err := p.List(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 2)

	c := byMint(balances, classic.String())
	require.NotNil(t, c)
	assert.Equal(t, domain.UnknownTokenName, c.Name)
	assert.Equal(t, domain.UnknownTokenSymbol, c.Symbol)
	assert.Equal(t, "15", c.Amount)
	assert.Equal(t, uint64(1500), c.RawAmount)
	assert.Equal(t, "1000", c.Supply)
	assert.True(t, c.OwnedByWallet)
	assert.Nil(t, c.Image)

	m := byMint(balances, t22.String())
	require.NotNil(t, m)
	assert.Equal(t, "Lab Token", m.Name)
	assert.Equal(t, "LAB", m.Symbol)
	require.NotNil(t, m.Image)
	assert.Equal(t, "https://img/lab.png", *m.Image)
	require.NotNil(t, m.Description)
	assert.Equal(t, "lab description", *m.Description)
	assert.Equal(t, "2.5", m.Amount)
	assert.Equal(t, "5", m.Supply)
	assert.False(t, m.OwnedByWallet)
	assert.Equal(t, program.Token2022ProgramID.String(), m.ProgramID)

	assert.Equal(t, 2, env.rpc.Calls("getTokenAccountsByOwner"))
}

func TestTokens_ListSurvivesOneProgramFailing(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	classic, _ := seedTokens(t, env)
	env.rpc.SetError("getTokenAccountsByOwner:"+program.Token2022ProgramID.String(), errors.New("node unavailable"))
	p := panels.NewTokens(env.deps, panels.DefaultTokensConfig(), nil)

	balances, err := p.List(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, classic.String(), balances[0].Mint)
}

func TestTokens_ListMissingMintDegrades(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	owner := env.key.PublicKey()
	env.rpc.AddTokenAccount(owner.String(), solana.TokenAccount{
		Pubkey:    solanago.NewWallet().PublicKey().String(),
		ProgramID: program.TokenProgramID.String(),
		Mint:      solanago.NewWallet().PublicKey().String(),
		Amount:    "7",
		Decimals:  0,
	})
	p := panels.NewTokens(env.deps, panels.DefaultTokensConfig(), nil)

	balances, err := p.List(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, domain.UnknownTokenName, balances[0].Name)
	assert.Equal(t, "7", balances[0].Amount)
	assert.Nil(t, balances[0].MintAuthority)
}

func TestTokens_ListSkipsMalformedAmount(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	owner := env.key.PublicKey()
	good := solanago.NewWallet().PublicKey().String()
	env.rpc.AddTokenAccount(owner.String(), solana.TokenAccount{
		Pubkey:    solanago.NewWallet().PublicKey().String(),
		ProgramID: program.TokenProgramID.String(),
		Mint:      solanago.NewWallet().PublicKey().String(),
		Amount:    "12abc",
		Decimals:  0,
	})
	env.rpc.AddTokenAccount(owner.String(), solana.TokenAccount{
		Pubkey:    solanago.NewWallet().PublicKey().String(),
		ProgramID: program.TokenProgramID.String(),
		Mint:      good,
		Amount:    "3",
		Decimals:  0,
	})
	p := panels.NewTokens(env.deps, panels.DefaultTokensConfig(), nil)

	balances, err := p.List(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, good, balances[0].Mint)
	assert.Equal(t, "3", balances[0].Amount)
}

func TestTokens_Find(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	classic, _ := seedTokens(t, env)
	p := panels.NewTokens(env.deps, panels.DefaultTokensConfig(), nil)

	tok, err := p.Find(context.Background(), classic.String())
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), tok.RawAmount)

	_, err = p.Find(context.Background(), solanago.NewWallet().PublicKey().String())
	assert.ErrorIs(t, err, panels.ErrTokenNotFound)
}

func heldToken(owned bool) domain.TokenBalance {
	return domain.TokenBalance{
		Mint:          solanago.NewWallet().PublicKey().String(),
		TokenAccount:  solanago.NewWallet().PublicKey().String(),
		ProgramID:     program.TokenProgramID.String(),
		RawAmount:     1500,
		Decimals:      2,
		Amount:        "15",
		Symbol:        "LAB",
		OwnedByWallet: owned,
	}
}

func TestTokens_BurnOverBalanceMakesNoSend(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	p := panels.NewTokens(env.deps, panels.DefaultTokensConfig(), nil)

	_, err := p.Burn(context.Background(), heldToken(true), "15.01")
	f := requireFailure(t, err, action.KindPrecondition)
	assert.Equal(t, "Burn amount cannot exceed your token balance", f.Message)
	assert.Zero(t, env.rpc.TotalCalls())
	assert.False(t, p.InFlight())

	_, err = p.Burn(context.Background(), heldToken(true), "0.001")
	f = requireFailure(t, err, action.KindPrecondition)
	assert.Equal(t, "Please enter a valid burn amount", f.Message)
	assert.Zero(t, env.rpc.TotalCalls())
}

func TestTokens_Burn(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	p := panels.NewTokens(env.deps, panels.DefaultTokensConfig(), nil)

	res, err := p.Burn(context.Background(), heldToken(true), "15")
	require.NoError(t, err)
	assert.Equal(t, "15", res.Amount)
	require.Len(t, env.rpc.Sent, 1)
	verifySentSignatures(t, env.rpc.Sent[0], env.key.PublicKey())

	last, _ := env.rec.Last()
	assert.Equal(t, "Successfully burned 15 LAB tokens!", last.Message)
}

func TestTokens_MintCapMakesNoRPC(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	p := panels.NewTokens(env.deps, panels.DefaultTokensConfig(), nil)

	_, err := p.Mint(context.Background(), heldToken(true), "2000000")
	f := requireFailure(t, err, action.KindPrecondition)
	assert.Equal(t, "Mint amount cannot exceed 1,000,000 tokens at once", f.Message)
	assert.Zero(t, env.rpc.TotalCalls())
	assert.False(t, p.InFlight())
}

func TestTokens_MintRequiresAuthority(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	p := panels.NewTokens(env.deps, panels.DefaultTokensConfig(), nil)

	_, err := p.Mint(context.Background(), heldToken(false), "10")
	requireFailure(t, err, action.KindPrecondition)
	assert.Zero(t, env.rpc.TotalCalls())
}

func TestTokens_Mint(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	p := panels.NewTokens(env.deps, panels.DefaultTokensConfig(), nil)

	res, err := p.Mint(context.Background(), heldToken(true), "1000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000", res.Amount)
	require.Len(t, env.rpc.Sent, 1)

	last, _ := env.rec.Last()
	assert.Equal(t, "Successfully minted 1000000 LAB tokens!", last.Message)
}

func validForm() domain.TokenForm {
	return domain.TokenForm{
		Name:          "Lab Token",
		Symbol:        "LAB",
		Description:   "created in a test",
		Decimals:      6,
		InitialSupply: "1000",
	}
}

func TestCreateToken_Success(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	env.rpc.Balances[env.owner()] = 1_000_000_000
	p := panels.NewCreateToken(env.deps, panels.DefaultTokensConfig())

	created, err := p.Create(context.Background(), validForm())
	require.NoError(t, err)
	assert.NotEmpty(t, created.Mint)
	assert.Equal(t, "1000", created.Minted)
	assert.Equal(t, "https://explorer.solana.com/address/"+created.Mint+"?cluster=devnet", created.ExplorerURL)

	doc, err := tokenmeta.DecodeDataURI(created.MetadataURI)
	require.NoError(t, err)
	assert.Equal(t, "Lab Token", doc.Name)
	assert.Equal(t, tokenmeta.DefaultPlaceholderImage, doc.Image)

	mint := solanago.MustPublicKeyFromBase58(created.Mint)
	ata, err := program.AssociatedTokenAddress(env.key.PublicKey(), mint, program.Token2022ProgramID)
	require.NoError(t, err)
	assert.Equal(t, ata.String(), created.TokenAccount)

	require.Len(t, env.rpc.Sent, 1)
	require.Len(t, env.rpc.Simulated, 1)
	verifySentSignatures(t, env.rpc.Sent[0], env.key.PublicKey(), mint)

	last, _ := env.rec.Last()
	assert.Equal(t, "Token created successfully! Mint: "+created.Mint, last.Message)
	assert.False(t, p.InFlight())
}

func TestCreateToken_KeepsGivenURI(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	env.rpc.Balances[env.owner()] = 1_000_000_000
	p := panels.NewCreateToken(env.deps, panels.DefaultTokensConfig())

	form := validForm()
	form.MetadataURI = "https://example.com/lab.json"
	created, err := p.Create(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/lab.json", created.MetadataURI)
}

func TestCreateToken_InsufficientFundsMakesNoSend(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	env.rpc.Balances[env.owner()] = 1000
	p := panels.NewCreateToken(env.deps, panels.DefaultTokensConfig())

	_, err := p.Create(context.Background(), validForm())
	requireFailure(t, err, action.KindInsufficientFunds)
	assert.Empty(t, env.rpc.Sent)
	assert.Zero(t, env.rpc.Calls("simulateTransaction"))
}

func TestCreateToken_Validation(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.AutoApprove)
	p := panels.NewCreateToken(env.deps, panels.DefaultTokensConfig())

	cases := map[string]func(f *domain.TokenForm){
		"missing name":    func(f *domain.TokenForm) { f.Name = " " },
		"missing symbol":  func(f *domain.TokenForm) { f.Symbol = "" },
		"long symbol":     func(f *domain.TokenForm) { f.Symbol = "ABCDEFGHIJK" },
		"decimals high":   func(f *domain.TokenForm) { f.Decimals = 10 },
		"decimals low":    func(f *domain.TokenForm) { f.Decimals = -1 },
		"zero supply":     func(f *domain.TokenForm) { f.InitialSupply = "0" },
		"bad supply":      func(f *domain.TokenForm) { f.InitialSupply = "lots" },
		"overflow supply": func(f *domain.TokenForm) { f.InitialSupply = "99999999999999999999" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			form := validForm()
			mutate(&form)
			_, err := p.Create(context.Background(), form)
			requireFailure(t, err, action.KindPrecondition)
		})
	}
	assert.Zero(t, env.rpc.TotalCalls())
}

func TestCreateToken_Rejected(t *testing.T) {
	env := newTestEnv(t, "devnet", wallet.DenyAll)
	env.rpc.Balances[env.owner()] = 1_000_000_000
	p := panels.NewCreateToken(env.deps, panels.DefaultTokensConfig())

	_, err := p.Create(context.Background(), validForm())
	f := requireFailure(t, err, action.KindRejected)
	assert.Equal(t, "Transaction was rejected", f.Message)
	assert.Empty(t, env.rpc.Sent)
}
