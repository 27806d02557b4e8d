package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/cb-transfer/internal/cache"
	"github.com/AlexZinkM/cb-transfer/internal/common"
	"github.com/AlexZinkM/cb-transfer/internal/model"
	"github.com/AlexZinkM/cb-transfer/internal/notify"
	"github.com/AlexZinkM/cb-transfer/internal/oplog"
	"github.com/AlexZinkM/cb-transfer/internal/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ChainReader is the read side of the network client.
// GetAccount returns nil data and no error for an address with no account.
type ChainReader interface {
	GetAccount(ctx context.Context, address solana.PublicKey) ([]byte, error)
	GetRentExemption(ctx context.Context, size uint64) (uint64, error)
	GetLatestBlockReference(ctx context.Context) (model.BlockReference, error)
}

// TransactionSender is the write side of the network client.
type TransactionSender interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature, ref model.BlockReference) error
}

// ProofService is the remote service behind /transfer-cb.
type ProofService interface {
	GetProofSpaces(ctx context.Context) (model.ProofSpaces, error)
	RequestTransfer(ctx context.Context, req model.TransferRequest) (*model.TransferResponse, error)
}

// TransferParams describes one confidential transfer.
type TransferParams struct {
	SenderTokenAccount solana.PublicKey
	Recipient          solana.PublicKey
	Mint               solana.PublicKey
	Amount             uint64
}

// TransferOutcome is what a completed transfer reports back.
type TransferOutcome struct {
	Signatures []solana.Signature
	Amount     uint64
	// Extra is the service response body, bundle included, passed through untouched.
	Extra map[string]json.RawMessage
}

// Deps are the collaborators of a Transferer.
type Deps struct {
	Wallet   wallet.Wallet
	Chain    ChainReader
	Sender   TransactionSender
	Proofs   ProofService
	Cache    cache.Cache
	Notifier notify.Notifier
	Log      oplog.Log
	Metrics  *Metrics
	Logger   zerolog.Logger
	// Endpoint scopes the cache keys the reconciler invalidates.
	Endpoint string
	// ReadConcurrency bounds parallel chain reads; 1 issues them one by one.
	ReadConcurrency int
}

// Transferer runs the confidential transfer pipeline.
type Transferer struct {
	wallet          wallet.Wallet
	chain           ChainReader
	proofs          ProofService
	submitter       *Submitter
	reconciler      *Reconciler
	metrics         *Metrics
	logger          zerolog.Logger
	readConcurrency int
}

func NewTransferer(d Deps) *Transferer {
	concurrency := d.ReadConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Transferer{
		wallet:          d.Wallet,
		chain:           d.Chain,
		proofs:          d.Proofs,
		submitter:       NewSubmitter(d.Wallet, d.Sender, d.Metrics, d.Logger),
		reconciler:      NewReconciler(d.Cache, d.Notifier, d.Log, d.Endpoint),
		metrics:         d.Metrics,
		logger:          d.Logger,
		readConcurrency: concurrency,
	}
}

// Transfer runs the whole pipeline once. Nothing is retried; the caller
// re-invokes on failure. Every failure is a *TransferError and is reported
// through exactly one error notification and one audit entry.
func (t *Transferer) Transfer(ctx context.Context, p TransferParams) (*TransferOutcome, error) {
	start := time.Now()
	logger := t.logger.With().
		Str("token_account", p.SenderTokenAccount.String()).
		Uint64("amount", p.Amount).
		Logger()

	outcome, owner, err := t.run(ctx, p, logger)
	if err != nil {
		var te *TransferError
		if !errors.As(err, &te) {
			err = stageError(ErrSubmissionFailed, StageUnspecified, err)
		}
		logger.Error().Err(err).Str("stage", string(StageOf(err))).Msg("transfer failed")
		t.metrics.observeTransfer(StageOf(err), time.Since(start))
		t.reconciler.Failure(p.SenderTokenAccount, err)
		return nil, err
	}

	logger.Info().Int("transactions", len(outcome.Signatures)).Msg("transfer complete")
	t.metrics.observeTransfer("", time.Since(start))
	t.reconciler.Success(p.SenderTokenAccount, owner, outcome)
	return outcome, nil
}

func (t *Transferer) run(ctx context.Context, p TransferParams, logger zerolog.Logger) (*TransferOutcome, solana.PublicKey, error) {
	owner, ok := t.wallet.PublicKey()
	if !ok {
		return nil, owner, stageError(ErrWalletUnavailable, StageWallet, errors.New("wallet not connected"))
	}
	signer, ok := t.wallet.(wallet.MessageSigner)
	if !ok {
		return nil, owner, stageError(ErrWalletUnavailable, StageWallet, errors.New("wallet does not support message signing"))
	}

	seeds, err := wallet.DeriveSeeds(ctx, signer)
	if err != nil {
		return nil, owner, stageError(ErrSigningRejected, StageSeeds, err)
	}
	defer seeds.Wipe()
	logger.Debug().Msg("seed signatures derived")

	accounts, err := t.readAccounts(ctx, p)
	if err != nil {
		return nil, owner, err
	}
	logger.Debug().Str("blockhash", accounts.block.Blockhash.String()).Msg("accounts resolved")

	spaces, err := t.proofs.GetProofSpaces(ctx)
	if err == nil {
		err = spaces.Validate()
	}
	if err != nil {
		return nil, owner, stageError(ErrSizingUnavailable, StageSizing, err)
	}

	rents, err := t.readRents(ctx, spaces)
	if err != nil {
		return nil, owner, err
	}
	logger.Debug().
		Uint64("equality_proof_rent", rents.Equality).
		Uint64("ciphertext_validity_proof_rent", rents.CiphertextValidity).
		Uint64("range_proof_rent", rents.Range).
		Str("total_rent_sol", common.LamportsToSOL(rents.Equality+rents.CiphertextValidity+rents.Range)).
		Msg("proof account rent resolved")

	req := BuildTransferRequest(TransferInputs{
		Seeds:     seeds,
		Sender:    accounts.sender,
		Recipient: accounts.recipient,
		Mint:      accounts.mint,
		Amount:    p.Amount,
		Block:     accounts.block,
		Rents:     rents,
	})

	resp, err := t.proofs.RequestTransfer(ctx, req)
	if err != nil {
		return nil, owner, stageError(ErrTransferRequestFailed, StageRequest, err)
	}
	if len(resp.Transactions) == 0 {
		return nil, owner, stageError(ErrTransferRequestFailed, StageRequest, errors.New("service returned an empty transaction bundle"))
	}
	logger.Debug().Int("transactions", len(resp.Transactions)).Msg("transaction bundle received")

	sigs, err := t.submitter.Submit(ctx, resp.Transactions, accounts.block)
	if err != nil {
		return nil, owner, err
	}

	return &TransferOutcome{
		Signatures: sigs,
		Amount:     p.Amount,
		Extra:      resp.Extra,
	}, owner, nil
}

type accountSnapshots struct {
	sender    []byte
	recipient []byte
	mint      []byte
	block     model.BlockReference
}

// readAccounts fans out the three account reads and the blockhash read and
// joins them; the first failure cancels the rest.
func (t *Transferer) readAccounts(ctx context.Context, p TransferParams) (*accountSnapshots, error) {
	var out accountSnapshots
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.readConcurrency)

	read := func(role string, address solana.PublicKey, dst *[]byte) {
		g.Go(func() error {
			data, err := t.chain.GetAccount(gctx, address)
			if err != nil {
				return stageError(ErrChainUnavailable, StageAccounts, fmt.Errorf("%s: %w", role, err))
			}
			if data == nil {
				return stageError(ErrAccountNotFound, StageAccounts, fmt.Errorf("%s %s", role, address))
			}
			*dst = data
			return nil
		})
	}
	read("sender token account", p.SenderTokenAccount, &out.sender)
	read("recipient token account", p.Recipient, &out.recipient)
	read("mint account", p.Mint, &out.mint)
	g.Go(func() error {
		ref, err := t.chain.GetLatestBlockReference(gctx)
		if err != nil {
			return stageError(ErrChainUnavailable, StageAccounts, err)
		}
		out.block = ref
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// readRents looks up the rent-exempt minimum of each proof account size.
func (t *Transferer) readRents(ctx context.Context, spaces model.ProofSpaces) (ProofRents, error) {
	var rents ProofRents
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.readConcurrency)

	lookup := func(size uint64, dst *uint64) {
		g.Go(func() error {
			lamports, err := t.chain.GetRentExemption(gctx, size)
			if err != nil {
				return stageError(ErrChainUnavailable, StageRent, err)
			}
			*dst = lamports
			return nil
		})
	}
	lookup(spaces.EqualityProofSpace, &rents.Equality)
	lookup(spaces.CiphertextValidityProofSpace, &rents.CiphertextValidity)
	lookup(spaces.RangeProofSpace, &rents.Range)

	if err := g.Wait(); err != nil {
		return ProofRents{}, err
	}
	return rents, nil
}
