package model

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// BalanceResponse represents response for GET /accounts/balance
type BalanceResponse struct {
	Address  string `json:"address"`
	Amount   string `json:"amount"` // public (non-confidential) balance in smallest units
	Decimals uint8  `json:"decimals"`
	UIAmount string `json:"uiAmount"`
}

// SignatureInfo is one entry of the wallet's signature history
type SignatureInfo struct {
	Signature string     `json:"signature"`
	Slot      uint64     `json:"slot"`
	BlockTime *time.Time `json:"blockTime,omitempty"`
	Status    string     `json:"status"` // "success" or "failed"
	Memo      string     `json:"memo,omitempty"`
}

// SignaturesResponse represents response for GET /accounts/signatures
type SignaturesResponse struct {
	Address    string          `json:"address"`
	Signatures []SignatureInfo `json:"signatures"`
}

// TokenAccount is one Token-2022 account owned by an address
type TokenAccount struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
	DataLen  int    `json:"dataLen"`
}

// TokenAccountsResponse represents response for GET /accounts/token-accounts
type TokenAccountsResponse struct {
	Owner    string         `json:"owner"`
	Accounts []TokenAccount `json:"accounts"`
}

// VisibilityResponse represents response for /accounts/visibility
type VisibilityResponse struct {
	Address string `json:"address"`
	Visible bool   `json:"visible"`
}

// OperationEntry represents one audit log entry for GET /operations
type OperationEntry struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Variant   string    `json:"variant"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlockReference is the recent blockhash transactions are built against,
// with the last block height at which they can still land.
type BlockReference struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}
