package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AlexZinkM/cb-transfer/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	keyfileExt = ".cwt"
)

// ScryptN is N=2^18 (~256MB RAM, 0.5-2s per unlock). Tests lower it.
var ScryptN = 1 << 18

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrInvalidPassword is returned when the keyfile cannot be authenticated.
var ErrInvalidPassword = errors.New("invalid password")

// KeyfileExistsError is returned when the target keyfile already holds data
type KeyfileExistsError struct {
	Path string
}

func (e *KeyfileExistsError) Error() string {
	return fmt.Sprintf("keyfile %s is not empty", e.Path)
}

// IsKeyfileExistsError checks if error is KeyfileExistsError
func IsKeyfileExistsError(err error) bool {
	var target *KeyfileExistsError
	return errors.As(err, &target)
}

// SealKeyfile encrypts wallet data and writes it to a .cwt keyfile.
// password must be []byte (caller should zero it after use)
func SealKeyfile(filePath, network, address, qrCode string, walletData *model.WalletData, password []byte) error {
	if filepath.Ext(filePath) != keyfileExt {
		return fmt.Errorf("file must have %s extension", keyfileExt)
	}
	if info, err := os.Stat(filePath); err == nil && info.Size() > 0 {
		return &KeyfileExistsError{Path: filePath}
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(walletData)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet data: %w", err)
	}
	defer clear(plaintext)

	cwtFile := model.CWTFile{
		Network:    network,
		Address:    address,
		QR:         qrCode,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(aesGCM.Seal(nil, nonce, plaintext, nil)),
	}

	fileData, err := json.MarshalIndent(cwtFile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keyfile: %w", err)
	}

	// BOM keeps Windows editors from mangling the file
	if err := os.WriteFile(filePath, append(append([]byte{}, utf8BOM...), fileData...), 0600); err != nil {
		return fmt.Errorf("failed to write keyfile: %w", err)
	}
	return nil
}

// OpenKeyfile reads and decrypts a .cwt keyfile.
// password must be []byte (caller should zero it after use); the caller owns
// WalletData.PrivateKey and must clear it when done.
func OpenKeyfile(filePath string, password []byte) (*model.CWTFile, *model.WalletData, error) {
	cwtFile, err := ReadKeyfile(filePath)
	if err != nil {
		return nil, nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(cwtFile.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(cwtFile.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(cwtFile.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, ErrInvalidPassword
	}
	defer clear(plaintext)

	var walletData model.WalletData
	if err := json.Unmarshal(plaintext, &walletData); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal wallet data: %w", err)
	}
	return cwtFile, &walletData, nil
}

// ReadKeyfile reads the public part of a keyfile without decrypting it
func ReadKeyfile(filePath string) (*model.CWTFile, error) {
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("keyfile %s does not exist", filePath)
		}
		return nil, fmt.Errorf("failed to read keyfile: %w", err)
	}
	if len(fileData) == 0 {
		return nil, fmt.Errorf("keyfile %s is empty", filePath)
	}

	if len(fileData) >= 3 && fileData[0] == utf8BOM[0] && fileData[1] == utf8BOM[1] && fileData[2] == utf8BOM[2] {
		fileData = fileData[3:]
	}

	var cwtFile model.CWTFile
	if err := json.Unmarshal(fileData, &cwtFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keyfile: %w", err)
	}
	return &cwtFile, nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, ScryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
