package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/cb-transfer/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

// Token2022ProgramID owns every token account with the confidential transfer extension.
var Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

const defaultSignatureLimit = 100

// SolanaClient is the chain adapter: account, rent and blockhash reads,
// transaction submission and confirmation, and the account view queries.
type SolanaClient struct {
	rpcClient    *rpc.Client
	rpcURL       string
	pollInterval time.Duration
	logger       zerolog.Logger
}

// NewSolanaClient creates a client for the given RPC endpoint.
func NewSolanaClient(rpcURL string, pollInterval time.Duration, logger zerolog.Logger) *SolanaClient {
	return &SolanaClient{
		rpcClient:    rpc.New(rpcURL),
		rpcURL:       rpcURL,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Endpoint returns the RPC URL; cache keys are scoped by it.
func (c *SolanaClient) Endpoint() string {
	return c.rpcURL
}

// GetAccount returns the raw account data, or nil data and no error when the
// address holds no account. An account with no data yields an empty slice.
func (c *SolanaClient) GetAccount(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	out, err := c.rpcClient.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	if out == nil || out.Value == nil {
		return nil, nil
	}
	// An existing account with no data is still an account.
	data := []byte{}
	if out.Value.Data != nil {
		if b := out.Value.Data.GetBinary(); b != nil {
			data = b
		}
	}
	return data, nil
}

// GetRentExemption returns the rent-exempt minimum in lamports for size bytes.
func (c *SolanaClient) GetRentExemption(ctx context.Context, size uint64) (uint64, error) {
	lamports, err := c.rpcClient.GetMinimumBalanceForRentExemption(ctx, size, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get rent exemption for %d bytes: %w", size, err)
	}
	return lamports, nil
}

// GetLatestBlockReference returns the latest finalized blockhash.
func (c *SolanaClient) GetLatestBlockReference(ctx context.Context) (model.BlockReference, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return model.BlockReference{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	if recent == nil || recent.Value == nil {
		return model.BlockReference{}, fmt.Errorf("failed to get latest blockhash: empty response")
	}
	return model.BlockReference{
		Blockhash:            recent.Value.Blockhash,
		LastValidBlockHeight: recent.Value.LastValidBlockHeight,
	}, nil
}

// SendTransaction submits a fully signed transaction with preflight checks.
func (c *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls the signature status until the transaction is
// confirmed, fails on chain, or its blockhash expires. There is no timeout of
// its own; ctx bounds the wait.
func (c *SolanaClient) ConfirmTransaction(ctx context.Context, sig solana.Signature, ref model.BlockReference) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		statuses, err := c.rpcClient.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return fmt.Errorf("failed to get signature status: %w", err)
		}
		if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", sig, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		if ref.LastValidBlockHeight > 0 {
			height, err := c.rpcClient.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
			if err != nil {
				return fmt.Errorf("failed to get block height: %w", err)
			}
			if height > ref.LastValidBlockHeight {
				return fmt.Errorf("transaction %s expired: block height %d exceeded %d", sig, height, ref.LastValidBlockHeight)
			}
		}

		c.logger.Debug().Str("signature", sig.String()).Msg("waiting for confirmation")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetTokenAccountBalance gets the public balance of a token account
func (c *SolanaClient) GetTokenAccountBalance(ctx context.Context, tokenAccount solana.PublicKey) (*model.BalanceResponse, error) {
	balance, err := c.rpcClient.GetTokenAccountBalance(ctx, tokenAccount, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to get token account balance: %w", err)
	}
	resp := &model.BalanceResponse{Address: tokenAccount.String(), Amount: "0"}
	if balance != nil && balance.Value != nil {
		resp.Amount = balance.Value.Amount
		resp.Decimals = balance.Value.Decimals
		resp.UIAmount = balance.Value.UiAmountString
	}
	return resp, nil
}

// GetSignatures gets the most recent signatures touching address
func (c *SolanaClient) GetSignatures(ctx context.Context, address solana.PublicKey) ([]model.SignatureInfo, error) {
	limit := defaultSignatureLimit
	sigs, err := c.rpcClient.GetSignaturesForAddressWithOpts(ctx, address, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}

	out := make([]model.SignatureInfo, 0, len(sigs))
	for _, s := range sigs {
		info := model.SignatureInfo{
			Signature: s.Signature.String(),
			Slot:      s.Slot,
			Status:    "success",
		}
		if s.Err != nil {
			info.Status = "failed"
		}
		if s.BlockTime != nil {
			t := s.BlockTime.Time().UTC()
			info.BlockTime = &t
		}
		if s.Memo != nil {
			info.Memo = *s.Memo
		}
		out = append(out, info)
	}
	return out, nil
}

// GetTokenAccounts lists the Token-2022 accounts owned by owner
func (c *SolanaClient) GetTokenAccounts(ctx context.Context, owner solana.PublicKey) ([]model.TokenAccount, error) {
	programID := Token2022ProgramID
	res, err := c.rpcClient.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{ProgramId: &programID},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingBase64, Commitment: rpc.CommitmentConfirmed},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts: %w", err)
	}

	out := make([]model.TokenAccount, 0)
	if res == nil {
		return out, nil
	}
	for _, acc := range res.Value {
		if acc == nil {
			continue
		}
		ta := model.TokenAccount{
			Address:  acc.Pubkey.String(),
			Lamports: acc.Account.Lamports,
		}
		if acc.Account.Data != nil {
			ta.DataLen = len(acc.Account.Data.GetBinary())
		}
		out = append(out, ta)
	}
	return out, nil
}
