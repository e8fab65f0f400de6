package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
)

// ErrMalformedSignature is returned for signature text that is not 64 bytes of hex.
var ErrMalformedSignature = errors.New("malformed signature")

// DecodeSignatureHex decodes a hex signature. Odd length, non-hex characters
// and any length other than 64 bytes are ErrMalformedSignature.
func DecodeSignatureHex(s string) (solanago.Signature, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	if len(raw) != len(solanago.Signature{}) {
		return solanago.Signature{}, fmt.Errorf("%w: expected 64 bytes, got %d", ErrMalformedSignature, len(raw))
	}
	var sig solanago.Signature
	copy(sig[:], raw)
	return sig, nil
}

// VerifyHex checks an ed25519 signature over the UTF-8 bytes of message.
func VerifyHex(message, signatureHex string, pubkey solanago.PublicKey) (bool, error) {
	sig, err := DecodeSignatureHex(signatureHex)
	if err != nil {
		return false, err
	}
	return sig.Verify(pubkey, []byte(message)), nil
}
