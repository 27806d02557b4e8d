package solana

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/cb-transfer/internal/cache"
	"github.com/AlexZinkM/cb-transfer/internal/model"
	"github.com/AlexZinkM/cb-transfer/internal/wallet"

	"github.com/gagliardetto/solana-go"
)

// AccountReader is the query side of the network client the views use.
type AccountReader interface {
	GetTokenAccountBalance(ctx context.Context, tokenAccount solana.PublicKey) (*model.BalanceResponse, error)
	GetSignatures(ctx context.Context, address solana.PublicKey) ([]model.SignatureInfo, error)
	GetTokenAccounts(ctx context.Context, owner solana.PublicKey) ([]model.TokenAccount, error)
}

// Views serves the account queries a transfer makes stale. Every read goes
// through the cache, so an invalidated entry is reloaded on the next call.
type Views struct {
	reader   AccountReader
	cache    cache.Cache
	wallet   wallet.Wallet
	endpoint string
}

func NewViews(reader AccountReader, c cache.Cache, w wallet.Wallet, endpoint string) *Views {
	return &Views{reader: reader, cache: c, wallet: w, endpoint: endpoint}
}

// Balance gets the public balance of a token account
func (v *Views) Balance(ctx context.Context, tokenAccount solana.PublicKey) (*model.BalanceResponse, error) {
	value, err := v.cache.Fetch(ctx, cache.BalanceKey(v.endpoint, tokenAccount.String()), func(ctx context.Context) (any, error) {
		return v.reader.GetTokenAccountBalance(ctx, tokenAccount)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return value.(*model.BalanceResponse), nil
}

// Visibility reports whether the confidential balance of tokenAccount is
// shown. It starts hidden and a completed transfer hides it again.
func (v *Views) Visibility(ctx context.Context, tokenAccount solana.PublicKey) (*model.VisibilityResponse, error) {
	value, err := v.cache.Fetch(ctx, cache.ConfidentialVisibilityKey(tokenAccount.String()), func(context.Context) (any, error) {
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return &model.VisibilityResponse{Address: tokenAccount.String(), Visible: value.(bool)}, nil
}

func (v *Views) Show(tokenAccount solana.PublicKey) *model.VisibilityResponse {
	return v.setVisibility(tokenAccount, true)
}

func (v *Views) Hide(tokenAccount solana.PublicKey) *model.VisibilityResponse {
	return v.setVisibility(tokenAccount, false)
}

func (v *Views) setVisibility(tokenAccount solana.PublicKey, visible bool) *model.VisibilityResponse {
	v.cache.Set(cache.ConfidentialVisibilityKey(tokenAccount.String()), visible)
	return &model.VisibilityResponse{Address: tokenAccount.String(), Visible: visible}
}
