// Package wallet holds the signing capabilities the transfer pipeline consumes
// and the local keypair implementation backed by an encrypted keyfile.
package wallet

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/cb-transfer/internal/crypto"

	"github.com/gagliardetto/solana-go"
)

// Wallet is the capability every connected wallet has.
// PublicKey reports false when no key is connected.
type Wallet interface {
	PublicKey() (solana.PublicKey, bool)
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// MessageSigner is the optional message-signing capability used for seed derivation.
type MessageSigner interface {
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// Keypair is a Wallet holding a full 64-byte ed25519 key in memory.
type Keypair struct {
	key solana.PrivateKey
}

// NewKeypair wraps a 64-byte private key. The slice is copied.
func NewKeypair(privateKey []byte) (*Keypair, error) {
	if len(privateKey) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKey))
	}
	key := make(solana.PrivateKey, 64)
	copy(key, privateKey)
	return &Keypair{key: key}, nil
}

// LoadKeypair decrypts a .cwt keyfile and verifies it matches its stored address.
// password must be []byte (caller should zero it after use)
func LoadKeypair(filePath string, password []byte) (*Keypair, error) {
	cwtFile, walletData, err := crypto.OpenKeyfile(filePath, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyfile: %w", err)
	}
	defer clear(walletData.PrivateKey)

	kp, err := NewKeypair(walletData.PrivateKey)
	if err != nil {
		return nil, err
	}

	address, err := solana.PublicKeyFromBase58(cwtFile.Address)
	if err != nil {
		kp.Close()
		return nil, fmt.Errorf("invalid keyfile address: %w", err)
	}
	if !kp.key.PublicKey().Equals(address) {
		kp.Close()
		return nil, fmt.Errorf("private key does not match keyfile address")
	}
	return kp, nil
}

// PublicKey implements Wallet.
func (k *Keypair) PublicKey() (solana.PublicKey, bool) {
	if len(k.key) != 64 {
		return solana.PublicKey{}, false
	}
	return k.key.PublicKey(), true
}

// SignMessage implements MessageSigner. Ed25519 is deterministic, so the same
// message always yields the same signature for this key.
func (k *Keypair) SignMessage(_ context.Context, message []byte) ([]byte, error) {
	if len(k.key) != 64 {
		return nil, fmt.Errorf("wallet is closed")
	}
	sig, err := k.key.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig[:], nil
}

// SignTransaction fills this wallet's signature slot and leaves signatures
// already placed by other signers (e.g. proof account keys) untouched.
func (k *Keypair) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	pub, ok := k.PublicKey()
	if !ok {
		return fmt.Errorf("wallet is closed")
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	slot := -1
	for i := 0; i < required && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(pub) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return fmt.Errorf("wallet %s is not a required signer of this transaction", pub)
	}

	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}
	sig, err := k.key.Sign(payload)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	for len(tx.Signatures) < required {
		tx.Signatures = append(tx.Signatures, solana.Signature{})
	}
	tx.Signatures[slot] = sig
	return nil
}

// Close wipes the private key from memory.
func (k *Keypair) Close() {
	clear(k.key)
	k.key = nil
}
