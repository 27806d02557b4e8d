package solana

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/AlexZinkM/cb-transfer/internal/cache"
	"github.com/AlexZinkM/cb-transfer/internal/model"

	"github.com/gagliardetto/solana-go"
)

// Signatures gets the signature history of the connected wallet, newest first
func (v *Views) Signatures(ctx context.Context) (*model.SignaturesResponse, error) {
	owner, ok := v.wallet.PublicKey()
	if !ok {
		return nil, stageError(ErrWalletUnavailable, StageWallet, errors.New("wallet not connected"))
	}

	value, err := v.cache.Fetch(ctx, cache.SignaturesKey(v.endpoint, owner.String()), func(ctx context.Context) (any, error) {
		sigs, err := v.reader.GetSignatures(ctx, owner)
		if err != nil {
			return nil, err
		}
		// Sort by slot DESC (newest first)
		sort.SliceStable(sigs, func(i, j int) bool {
			return sigs[i].Slot > sigs[j].Slot
		})
		return sigs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}

	return &model.SignaturesResponse{
		Address:    owner.String(),
		Signatures: value.([]model.SignatureInfo),
	}, nil
}

// TokenAccounts lists the Token-2022 accounts owned by address
func (v *Views) TokenAccounts(ctx context.Context, address solana.PublicKey) (*model.TokenAccountsResponse, error) {
	value, err := v.cache.Fetch(ctx, cache.TokenAccountsKey(v.endpoint, address.String()), func(ctx context.Context) (any, error) {
		return v.reader.GetTokenAccounts(ctx, address)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts: %w", err)
	}

	return &model.TokenAccountsResponse{
		Owner:    address.String(),
		Accounts: value.([]model.TokenAccount),
	}, nil
}
