package program

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
)

// NewTransaction compiles a legacy transaction with payer as fee payer.
func NewTransaction(instructions []solanago.Instruction, blockhash string, payer solanago.PublicKey) (*solanago.Transaction, error) {
	hash, err := solanago.HashFromBase58(blockhash)
	if err != nil {
		return nil, fmt.Errorf("parse blockhash: %w", err)
	}
	tx, err := solanago.NewTransaction(instructions, hash, solanago.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("compile transaction: %w", err)
	}
	return tx, nil
}

// MessageBytes returns the serialized message, the payload that signers sign
// and getFeeForMessage prices.
func MessageBytes(tx *solanago.Transaction) ([]byte, error) {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serialize message: %w", err)
	}
	return msg, nil
}

// Encode serializes tx, padding missing signatures with zeros so unsigned
// drafts can be simulated. Existing signatures are kept.
func Encode(tx *solanago.Transaction) ([]byte, error) {
	cp := *tx
	cp.Signatures = make([]solanago.Signature, tx.Message.Header.NumRequiredSignatures)
	copy(cp.Signatures, tx.Signatures)
	raw, err := cp.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}
	return raw, nil
}

// SignerIndex returns the signature slot of key, or -1 if key is not a required signer.
func SignerIndex(tx *solanago.Transaction, key solanago.PublicKey) int {
	n := int(tx.Message.Header.NumRequiredSignatures)
	for i, k := range tx.Message.AccountKeys {
		if i >= n {
			break
		}
		if k.Equals(key) {
			return i
		}
	}
	return -1
}

// Sign places key's signature in its slot. Other slots are untouched, so
// several keys can sign in any order.
func Sign(tx *solanago.Transaction, key solanago.PrivateKey) error {
	idx := SignerIndex(tx, key.PublicKey())
	if idx < 0 {
		return fmt.Errorf("%s is not a required signer", key.PublicKey())
	}
	msg, err := MessageBytes(tx)
	if err != nil {
		return err
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return fmt.Errorf("sign message: %w", err)
	}
	if n := int(tx.Message.Header.NumRequiredSignatures); len(tx.Signatures) < n {
		padded := make([]solanago.Signature, n)
		copy(padded, tx.Signatures)
		tx.Signatures = padded
	}
	tx.Signatures[idx] = sig
	return nil
}

// FirstSignature returns the fee payer's signature, the transaction id.
func FirstSignature(tx *solanago.Transaction) (solanago.Signature, bool) {
	if len(tx.Signatures) == 0 || tx.Signatures[0] == (solanago.Signature{}) {
		return solanago.Signature{}, false
	}
	return tx.Signatures[0], true
}
