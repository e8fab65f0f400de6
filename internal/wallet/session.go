package wallet

import (
	"sync"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-wallet-kit/internal/observability"
	"solana-wallet-kit/internal/solana"
)

// Session is the connection context shared by every panel: the RPC handle,
// the confirmer, the cluster name and the currently connected wallet.
type Session struct {
	rpc       solana.RPCClient
	confirmer *solana.Confirmer
	cluster   string
	logger    *zap.Logger

	mu     sync.RWMutex
	wallet Wallet
}

// NewSession creates a disconnected session.
func NewSession(rpc solana.RPCClient, confirmer *solana.Confirmer, cluster string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if confirmer == nil {
		confirmer = solana.NewConfirmer(rpc)
	}
	return &Session{
		rpc:       rpc,
		confirmer: confirmer,
		cluster:   cluster,
		logger:    logger.Named("session"),
	}
}

// Connect makes w the active wallet, replacing any previous one.
func (s *Session) Connect(w Wallet) {
	s.mu.Lock()
	s.wallet = w
	s.mu.Unlock()
	observability.SetWalletConnected(true)
	s.logger.Info("wallet connected", zap.String("wallet", w.PublicKey().String()))
}

// Disconnect drops the active wallet.
func (s *Session) Disconnect() {
	s.mu.Lock()
	prev := s.wallet
	s.wallet = nil
	s.mu.Unlock()
	observability.SetWalletConnected(false)
	if prev != nil {
		s.logger.Info("wallet disconnected", zap.String("wallet", prev.PublicKey().String()))
	}
}

// Wallet returns the active wallet or ErrNotConnected.
func (s *Session) Wallet() (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.wallet == nil {
		return nil, ErrNotConnected
	}
	return s.wallet, nil
}

// PublicKey returns the connected address, if any.
func (s *Session) PublicKey() (solanago.PublicKey, bool) {
	w, err := s.Wallet()
	if err != nil {
		return solanago.PublicKey{}, false
	}
	return w.PublicKey(), true
}

// Connected reports whether a wallet is connected.
func (s *Session) Connected() bool {
	_, ok := s.PublicKey()
	return ok
}

// RPC returns the cluster RPC handle.
func (s *Session) RPC() solana.RPCClient { return s.rpc }

// Confirmer returns the transaction confirmer.
func (s *Session) Confirmer() *solana.Confirmer { return s.confirmer }

// Cluster returns the cluster name used for explorer links.
func (s *Session) Cluster() string { return s.cluster }
