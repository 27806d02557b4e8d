package wallet

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/cb-transfer/internal/crypto"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

func init() {
	crypto.ScryptN = 1 << 10
}

func newTestKeypair(t *testing.T) *Keypair {
	t.Helper()
	kp, err := NewKeypair(solana.NewWallet().PrivateKey)
	if err != nil {
		t.Fatalf("NewKeypair() error: %v", err)
	}
	return kp
}

func TestNewKeypairRejectsShortKey(t *testing.T) {
	if _, err := NewKeypair(make([]byte, 32)); err == nil {
		t.Fatal("expected error for 32-byte key")
	}
}

func TestSignMessageDeterministic(t *testing.T) {
	kp := newTestKeypair(t)
	ctx := context.Background()

	a, err := kp.SignMessage(ctx, []byte(ElGamalSeedMessage))
	if err != nil {
		t.Fatalf("SignMessage() error: %v", err)
	}
	b, err := kp.SignMessage(ctx, []byte(ElGamalSeedMessage))
	if err != nil {
		t.Fatalf("SignMessage() error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("signatures over the same message differ")
	}

	pub, _ := kp.PublicKey()
	if !ed25519.Verify(ed25519.PublicKey(pub[:]), []byte(ElGamalSeedMessage), a) {
		t.Error("signature does not verify")
	}
}

func TestDeriveSeedsDistinctDomains(t *testing.T) {
	kp := newTestKeypair(t)
	seeds, err := DeriveSeeds(context.Background(), kp)
	if err != nil {
		t.Fatalf("DeriveSeeds() error: %v", err)
	}
	if bytes.Equal(seeds.ElGamal, seeds.AES) {
		t.Error("ElGamal and AES seeds must differ")
	}
	if len(seeds.ElGamal) != 64 || len(seeds.AES) != 64 {
		t.Errorf("seed lengths = %d/%d, want 64", len(seeds.ElGamal), len(seeds.AES))
	}

	seeds.Wipe()
	if !bytes.Equal(seeds.ElGamal, make([]byte, 64)) {
		t.Error("Wipe() left ElGamal seed intact")
	}
}

type countingSigner struct {
	calls  []string
	failOn string
}

func (s *countingSigner) SignMessage(_ context.Context, msg []byte) ([]byte, error) {
	s.calls = append(s.calls, string(msg))
	if string(msg) == s.failOn {
		return nil, context.Canceled
	}
	return []byte{1}, nil
}

func TestDeriveSeedsOrderAndFailure(t *testing.T) {
	s := &countingSigner{failOn: AESSeedMessage}
	if _, err := DeriveSeeds(context.Background(), s); err == nil {
		t.Fatal("expected error when AES signing fails")
	}
	if len(s.calls) != 2 || s.calls[0] != ElGamalSeedMessage || s.calls[1] != AESSeedMessage {
		t.Errorf("calls = %v", s.calls)
	}

	s = &countingSigner{failOn: ElGamalSeedMessage}
	if _, err := DeriveSeeds(context.Background(), s); err == nil {
		t.Fatal("expected error when ElGamal signing fails")
	}
	if len(s.calls) != 1 {
		t.Errorf("AES message signed after ElGamal failure: %v", s.calls)
	}
}

func TestSignTransactionFillsOwnSlot(t *testing.T) {
	kp := newTestKeypair(t)
	payer, _ := kp.PublicKey()
	other := solana.NewWallet()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, payer, solana.NewWallet().PublicKey()).Build(),
			system.NewTransferInstruction(1, other.PublicKey(), payer).Build(),
		},
		solana.Hash{1},
		solana.TransactionPayer(payer),
	)
	if err != nil {
		t.Fatalf("NewTransaction() error: %v", err)
	}

	// The co-signer signs first, as the proof service does for proof accounts.
	coSign(t, tx, other.PrivateKey)

	if err := kp.SignTransaction(context.Background(), tx); err != nil {
		t.Fatalf("SignTransaction() error: %v", err)
	}
	if err := tx.VerifySignatures(); err != nil {
		t.Fatalf("VerifySignatures() error: %v", err)
	}
}

func TestSignTransactionNotSigner(t *testing.T) {
	kp := newTestKeypair(t)
	stranger := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, stranger, solana.NewWallet().PublicKey()).Build()},
		solana.Hash{2},
		solana.TransactionPayer(stranger),
	)
	if err != nil {
		t.Fatalf("NewTransaction() error: %v", err)
	}
	if err := kp.SignTransaction(context.Background(), tx); err == nil {
		t.Fatal("expected error for non-signer wallet")
	}
}

func TestCloseMakesWalletUnavailable(t *testing.T) {
	kp := newTestKeypair(t)
	kp.Close()
	if _, ok := kp.PublicKey(); ok {
		t.Error("closed wallet still reports a public key")
	}
}

func TestGenerateAndLoadKeyfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.cwt")
	password := []byte("secret")

	address, err := GenerateKeyfile(path, password)
	if err != nil {
		t.Fatalf("GenerateKeyfile() error: %v", err)
	}

	kp, err := LoadKeypair(path, password)
	if err != nil {
		t.Fatalf("LoadKeypair() error: %v", err)
	}
	defer kp.Close()

	pub, ok := kp.PublicKey()
	if !ok || pub.String() != address {
		t.Errorf("loaded key %s, want %s", pub, address)
	}
}

func coSign(t *testing.T, tx *solana.Transaction, key solana.PrivateKey) {
	t.Helper()
	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error: %v", err)
	}
	sig, err := key.Sign(payload)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	required := int(tx.Message.Header.NumRequiredSignatures)
	for len(tx.Signatures) < required {
		tx.Signatures = append(tx.Signatures, solana.Signature{})
	}
	for i := 0; i < required; i++ {
		if tx.Message.AccountKeys[i].Equals(key.PublicKey()) {
			tx.Signatures[i] = sig
			return
		}
	}
	t.Fatalf("%s is not a signer", key.PublicKey())
}
