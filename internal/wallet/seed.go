package wallet

import (
	"context"
	"fmt"
)

// Seed messages are protocol constants: the proof service re-derives the
// ElGamal keypair and AE key from signatures over exactly these bytes.
const (
	ElGamalSeedMessage = "ElGamalSecretKey"
	AESSeedMessage     = "AeKey"
)

// Seeds are the two seed signatures of one transfer. Never persist them.
type Seeds struct {
	ElGamal []byte
	AES     []byte
}

// Wipe zeroes both signatures.
func (s *Seeds) Wipe() {
	clear(s.ElGamal)
	clear(s.AES)
}

// SignSeed signs one fixed seed message.
func SignSeed(ctx context.Context, signer MessageSigner, message string) ([]byte, error) {
	sig, err := signer.SignMessage(ctx, []byte(message))
	if err != nil {
		return nil, err
	}
	if len(sig) == 0 {
		return nil, fmt.Errorf("wallet returned an empty signature")
	}
	return sig, nil
}

// DeriveSeeds signs the ElGamal message then the AES message. Both must succeed.
func DeriveSeeds(ctx context.Context, signer MessageSigner) (*Seeds, error) {
	elGamal, err := SignSeed(ctx, signer, ElGamalSeedMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to sign ElGamal seed message: %w", err)
	}
	aes, err := SignSeed(ctx, signer, AESSeedMessage)
	if err != nil {
		clear(elGamal)
		return nil, fmt.Errorf("failed to sign AES seed message: %w", err)
	}
	return &Seeds{ElGamal: elGamal, AES: aes}, nil
}
