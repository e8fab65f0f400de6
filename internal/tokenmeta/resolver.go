package tokenmeta

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/program"
	"solana-wallet-kit/internal/solana"
)

// ErrMintNotFound is returned when the mint account does not exist.
var ErrMintNotFound = errors.New("mint account not found")

// Resolved is everything known about a mint.
type Resolved struct {
	Mint     domain.MintInfo
	Metadata *domain.TokenMetadata // nil when no record exists
}

// Resolver reads mint state and metadata from RPC and the metadata URI.
type Resolver struct {
	rpc     solana.RPCClient
	fetcher *Fetcher
	logger  *zap.Logger
}

// NewResolver creates a Resolver. fetcher may be nil to skip URI documents.
func NewResolver(rpc solana.RPCClient, fetcher *Fetcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{rpc: rpc, fetcher: fetcher, logger: logger.Named("tokenmeta")}
}

// Resolve fetches the mint account and its metadata. Token-2022 mints carry
// metadata inline; classic mints are looked up at the Metaplex PDA. The URI
// document, when reachable, supplies image and description and overrides
// name and symbol. Metadata failures degrade to absent metadata.
func (r *Resolver) Resolve(ctx context.Context, mint string) (*Resolved, error) {
	acct, err := r.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get mint account info: %w", err)
	}
	if acct == nil {
		return nil, ErrMintNotFound
	}
	data, err := acct.DecodeData()
	if err != nil {
		return nil, err
	}
	info, err := ParseMint(data)
	if err != nil {
		return nil, err
	}

	res := &Resolved{Mint: *info}
	meta, err := r.onChain(ctx, mint, acct.Owner, data)
	switch {
	case errors.Is(err, ErrNoMetadata):
		r.logger.Debug("no metadata found", zap.String("mint", mint))
		return res, nil
	case err != nil:
		r.logger.Warn("metadata unreadable", zap.String("mint", mint), zap.Error(err))
		return res, nil
	}
	res.Metadata = meta

	if r.fetcher != nil && meta.URI != "" {
		r.enrich(ctx, mint, meta)
	}
	return res, nil
}

func (r *Resolver) onChain(ctx context.Context, mint, owner string, data []byte) (*domain.TokenMetadata, error) {
	if owner == program.Token2022ProgramID.String() {
		return ParseToken2022Metadata(data)
	}

	pda, err := MetaplexMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	acct, err := r.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		return nil, fmt.Errorf("get metadata account info: %w", err)
	}
	if acct == nil {
		return nil, ErrNoMetadata
	}
	raw, err := acct.DecodeData()
	if err != nil {
		return nil, err
	}
	return ParseMetaplex(raw)
}

func (r *Resolver) enrich(ctx context.Context, mint string, meta *domain.TokenMetadata) {
	doc, err := r.fetcher.Fetch(ctx, meta.URI)
	if err != nil {
		r.logger.Warn("failed to fetch metadata from uri",
			zap.String("mint", mint),
			zap.String("uri", meta.URI),
			zap.Error(err))
		return
	}
	meta.Image = doc.Image
	meta.Description = doc.Description
	if doc.Name != "" {
		meta.Name = doc.Name
	}
	if doc.Symbol != "" {
		meta.Symbol = doc.Symbol
	}
}
