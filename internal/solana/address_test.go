package solana

import (
	"errors"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"system program", "11111111111111111111111111111111", false},
		{"token program", "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", false},
		{"empty", "", true},
		{"not base58", "0OIl", true},
		{"too short", "abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr && !errors.Is(err, ErrInvalidPublicKey) {
				t.Errorf("expected ErrInvalidPublicKey, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFindProgramAddress_MatchesSolanaGo(t *testing.T) {
	owner := solanago.NewWallet().PublicKey()
	mint := solanago.NewWallet().PublicKey()

	seeds := [][]byte{owner[:], solanago.TokenProgramID[:], mint[:]}

	got, bump, err := FindProgramAddress(seeds, solanago.SPLAssociatedTokenAccountProgramID.String())
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}

	want, wantBump, err := solanago.FindProgramAddress(seeds, solanago.SPLAssociatedTokenAccountProgramID)
	if err != nil {
		t.Fatalf("solana-go FindProgramAddress: %v", err)
	}

	if got != want.String() {
		t.Errorf("expected %s, got %s", want, got)
	}
	if bump != wantBump {
		t.Errorf("expected bump %d, got %d", wantBump, bump)
	}

	raw, _ := base58.Decode(got)
	if IsOnCurve(raw) {
		t.Error("program address must be off curve")
	}
}

func TestFindProgramAddress_Errors(t *testing.T) {
	if _, _, err := FindProgramAddress([][]byte{[]byte("x")}, "bad"); err == nil {
		t.Error("expected error for invalid program id")
	}
	long := make([]byte, 33)
	if _, _, err := FindProgramAddress([][]byte{long}, "11111111111111111111111111111111"); err == nil {
		t.Error("expected error for oversized seed")
	}
}

func TestIsOnCurve(t *testing.T) {
	pub := solanago.NewWallet().PublicKey()
	if !IsOnCurve(pub[:]) {
		t.Error("wallet public key should be on curve")
	}
	if IsOnCurve([]byte{1, 2, 3}) {
		t.Error("short input cannot be on curve")
	}
}
