package model

// CWTFile represents the encrypted keyfile (.cwt) structure
type CWTFile struct {
	Network    string `json:"network"`
	Address    string `json:"address"`
	QR         string `json:"QR"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// WalletData represents decrypted keyfile contents
type WalletData struct {
	PrivateKey []byte `json:"privateKey"` // full 64-byte ed25519 key (base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}

// KeygenResponse is printed by cmd/keygen after a keyfile is written
type KeygenResponse struct {
	Path    string `json:"path"`
	Address string `json:"address"`
}
