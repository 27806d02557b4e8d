package wallet

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/AlexZinkM/cb-transfer/internal/crypto"
	"github.com/AlexZinkM/cb-transfer/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"
)

const networkSolana = "solana"

// GenerateKeyfile creates a new keypair and seals it into a .cwt keyfile.
// Returns the generated public address on success.
// password must be []byte (caller should zero it after use)
func GenerateKeyfile(filePath string, password []byte) (address string, err error) {
	account := solana.NewWallet()
	defer clear(account.PrivateKey)

	address = account.PublicKey().String()

	qrCode, err := addressQRCode(address)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	walletData := &model.WalletData{
		PrivateKey: account.PrivateKey,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := crypto.SealKeyfile(filePath, networkSolana, address, qrCode, walletData, password); err != nil {
		return "", fmt.Errorf("failed to seal keyfile: %w", err)
	}
	return address, nil
}

// addressQRCode renders the address as a base64 PNG so the keyfile can be
// funded by scanning it.
func addressQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}
	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
