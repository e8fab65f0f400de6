package tokenmeta

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-kit/internal/program"
	"solana-wallet-kit/internal/solana"
	"solana-wallet-kit/internal/solana/stub"
)

func putString(dst []byte, s string) []byte {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	return append(append(dst, n[:]...), s...)
}

// mintBytes builds a base mint layout.
func mintBytes(authority *solanago.PublicKey, supply uint64, decimals uint8) []byte {
	b := make([]byte, MintLen)
	if authority != nil {
		binary.LittleEndian.PutUint32(b[0:4], 1)
		copy(b[4:36], authority[:])
	}
	binary.LittleEndian.PutUint64(b[36:44], supply)
	b[44] = decimals
	b[45] = 1
	return b
}

// token2022MintBytes appends a metadata pointer and a token metadata extension.
func token2022MintBytes(authority solanago.PublicKey, mint solanago.PublicKey, name, symbol, uri string) []byte {
	b := mintBytes(&authority, 1_000_000, 6)
	b = append(b, make([]byte, accountLen-MintLen)...)
	b = append(b, accountTypeMint)

	// MetadataPointer (18): authority + metadata address
	b = binary.LittleEndian.AppendUint16(b, 18)
	b = binary.LittleEndian.AppendUint16(b, 64)
	b = append(b, authority[:]...)
	b = append(b, mint[:]...)

	var v []byte
	v = append(v, authority[:]...)
	v = append(v, mint[:]...)
	v = putString(v, name)
	v = putString(v, symbol)
	v = putString(v, uri)
	v = binary.LittleEndian.AppendUint32(v, 0)

	b = binary.LittleEndian.AppendUint16(b, extensionTokenMeta)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(v)))
	return append(b, v...)
}

func metaplexBytes(mint solanago.PublicKey, name, symbol, uri string) []byte {
	b := []byte{metaplexKeyV1}
	b = append(b, make([]byte, 32)...)
	b = append(b, mint[:]...)
	pad := func(s string, n int) string { return s + strings.Repeat("\x00", n-len(s)) }
	b = putString(b, pad(name, 32))
	b = putString(b, pad(symbol, 10))
	b = putString(b, pad(uri, 200))
	return b
}

func TestDocumentDataURIRoundTrip(t *testing.T) {
	doc := NewDocument("My Token", "MTK", "a token", "", DefaultPlaceholderImage)
	assert.Equal(t, DefaultPlaceholderImage, doc.Image)

	uri, err := doc.DataURI()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:application/json;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:application/json;base64,"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"attributes":[]`)
	assert.Contains(t, string(raw), `"category":"token"`)

	got, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "My Token", got.Name)
	assert.Equal(t, "MTK", got.Symbol)
	assert.Equal(t, "a token", got.Description)
}

func TestDecodeDataURI_Errors(t *testing.T) {
	_, err := DecodeDataURI("https://example.com/x.json")
	assert.ErrorIs(t, err, ErrNotDataURI)

	_, err = DecodeDataURI("data:text/plain,hello")
	assert.ErrorIs(t, err, ErrNotDataURI)

	_, err = DecodeDataURI("data:application/json;base64,***")
	assert.Error(t, err)

	doc, err := DecodeDataURI(`data:application/json,{"name":"Plain"}`)
	require.NoError(t, err)
	assert.Equal(t, "Plain", doc.Name)
}

func TestFetcher_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"Remote","symbol":"RMT","image":"https://img/x.png","description":"remote doc"}`))
		case "/big.json":
			_, _ = w.Write([]byte(`{"name":"` + strings.Repeat("x", 2048) + `"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(WithMaxBytes(1024))
	ctx := context.Background()

	doc, err := f.Fetch(ctx, srv.URL+"/ok.json")
	require.NoError(t, err)
	assert.Equal(t, "Remote", doc.Name)
	assert.Equal(t, "https://img/x.png", doc.Image)

	_, err = f.Fetch(ctx, srv.URL+"/missing.json")
	assert.ErrorContains(t, err, "HTTP 404")

	_, err = f.Fetch(ctx, srv.URL+"/big.json")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Fetch(ctx, "ipfs://bafy/meta.json")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestFetcher_DataURI(t *testing.T) {
	uri, err := NewDocument("Inline", "INL", "", "https://img", "").DataURI()
	require.NoError(t, err)

	doc, err := NewFetcher().Fetch(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, "Inline", doc.Name)
}

func TestParseMint(t *testing.T) {
	auth := solanago.NewWallet().PublicKey()
	info, err := ParseMint(mintBytes(&auth, 42_000, 9))
	require.NoError(t, err)
	require.NotNil(t, info.MintAuthority)
	assert.Equal(t, auth.String(), *info.MintAuthority)
	assert.Nil(t, info.FreezeAuthority)
	assert.Equal(t, uint64(42_000), info.Supply)
	assert.Equal(t, 9, info.Decimals)
	assert.True(t, info.IsInitialized)

	_, err = ParseMint(make([]byte, 10))
	assert.Error(t, err)
}

func TestParseToken2022Metadata(t *testing.T) {
	auth := solanago.NewWallet().PublicKey()
	mint := solanago.NewWallet().PublicKey()
	data := token2022MintBytes(auth, mint, "Lab Token", "LAB", "https://example.com/lab.json")

	meta, err := ParseToken2022Metadata(data)
	require.NoError(t, err)
	assert.Equal(t, "Lab Token", meta.Name)
	assert.Equal(t, "LAB", meta.Symbol)
	assert.Equal(t, "https://example.com/lab.json", meta.URI)

	_, err = ParseToken2022Metadata(mintBytes(&auth, 1, 0))
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestParseToken2022Metadata_Truncated(t *testing.T) {
	auth := solanago.NewWallet().PublicKey()
	mint := solanago.NewWallet().PublicKey()
	data := token2022MintBytes(auth, mint, "Lab Token", "LAB", "uri")

	_, err := ParseToken2022Metadata(data[:len(data)-5])
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoMetadata))
}

func TestParseMetaplex(t *testing.T) {
	mint := solanago.NewWallet().PublicKey()
	meta, err := ParseMetaplex(metaplexBytes(mint, "Classic", "CLS", "https://example.com/c.json"))
	require.NoError(t, err)
	assert.Equal(t, "Classic", meta.Name)
	assert.Equal(t, "CLS", meta.Symbol)
	assert.Equal(t, "https://example.com/c.json", meta.URI)

	bad := metaplexBytes(mint, "x", "y", "z")
	bad[0] = 1
	_, err = ParseMetaplex(bad)
	assert.Error(t, err)
}

func TestMetaplexMetadataAddress(t *testing.T) {
	mint := solanago.NewWallet().PublicKey()
	got, err := MetaplexMetadataAddress(mint.String())
	require.NoError(t, err)

	want, _, err := solanago.FindTokenMetadataAddress(mint)
	require.NoError(t, err)
	assert.Equal(t, want.String(), got)
}

func TestResolver_Token2022WithRemoteDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Renamed","image":"https://img/lab.png","description":"from uri"}`))
	}))
	defer srv.Close()

	auth := solanago.NewWallet().PublicKey()
	mint := solanago.NewWallet().PublicKey()
	rpc := stub.NewRPCClient()
	rpc.Accounts[mint.String()] = &solana.AccountInfo{
		Owner: program.Token2022ProgramID.String(),
		Data:  base64.StdEncoding.EncodeToString(token2022MintBytes(auth, mint, "Lab Token", "LAB", srv.URL)),
	}

	res, err := NewResolver(rpc, NewFetcher(), nil).Resolve(context.Background(), mint.String())
	require.NoError(t, err)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "Renamed", res.Metadata.Name)
	assert.Equal(t, "LAB", res.Metadata.Symbol)
	assert.Equal(t, "https://img/lab.png", res.Metadata.Image)
	assert.Equal(t, "from uri", res.Metadata.Description)
	assert.Equal(t, 6, res.Mint.Decimals)
	// Token-2022 metadata is inline; no PDA lookup.
	assert.Equal(t, 1, rpc.Calls("getAccountInfo"))
}

func TestResolver_ClassicMintWithoutMetadata(t *testing.T) {
	mint := solanago.NewWallet().PublicKey()
	rpc := stub.NewRPCClient()
	rpc.Accounts[mint.String()] = &solana.AccountInfo{
		Owner: program.TokenProgramID.String(),
		Data:  base64.StdEncoding.EncodeToString(mintBytes(nil, 5, 2)),
	}

	res, err := NewResolver(rpc, nil, nil).Resolve(context.Background(), mint.String())
	require.NoError(t, err)
	assert.Nil(t, res.Metadata)
	assert.Nil(t, res.Mint.MintAuthority)
	assert.Equal(t, 2, rpc.Calls("getAccountInfo"))
}

func TestResolver_ClassicMintWithMetaplex(t *testing.T) {
	mint := solanago.NewWallet().PublicKey()
	pda, err := MetaplexMetadataAddress(mint.String())
	require.NoError(t, err)

	rpc := stub.NewRPCClient()
	rpc.Accounts[mint.String()] = &solana.AccountInfo{
		Owner: program.TokenProgramID.String(),
		Data:  base64.StdEncoding.EncodeToString(mintBytes(nil, 5, 2)),
	}
	rpc.Accounts[pda] = &solana.AccountInfo{
		Owner: program.MetaplexProgramID.String(),
		Data:  base64.StdEncoding.EncodeToString(metaplexBytes(mint, "Classic", "CLS", "")),
	}

	res, err := NewResolver(rpc, NewFetcher(), nil).Resolve(context.Background(), mint.String())
	require.NoError(t, err)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "Classic", res.Metadata.Name)
	assert.Empty(t, res.Metadata.Image)
}

func TestResolver_MissingMint(t *testing.T) {
	_, err := NewResolver(stub.NewRPCClient(), nil, nil).Resolve(context.Background(), solanago.NewWallet().PublicKey().String())
	assert.ErrorIs(t, err, ErrMintNotFound)
}
