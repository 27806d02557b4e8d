package solana

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/AlexZinkM/cb-transfer/internal/model"
	"github.com/AlexZinkM/cb-transfer/internal/wallet"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
)

// Submitter signs, sends and confirms a transaction bundle strictly in order.
type Submitter struct {
	wallet  wallet.Wallet
	sender  TransactionSender
	metrics *Metrics
	logger  zerolog.Logger
}

func NewSubmitter(w wallet.Wallet, sender TransactionSender, metrics *Metrics, logger zerolog.Logger) *Submitter {
	return &Submitter{wallet: w, sender: sender, metrics: metrics, logger: logger}
}

// Submit processes bundle in order and returns the confirmed signatures.
// Transaction k+1 is not touched until k is confirmed. On failure the
// returned *TransferError carries the signatures confirmed so far.
func (s *Submitter) Submit(ctx context.Context, bundle []string, ref model.BlockReference) ([]solana.Signature, error) {
	confirmed := make([]solana.Signature, 0, len(bundle))

	for i, encoded := range bundle {
		tx, err := DecodeTransaction(encoded)
		if err != nil {
			return confirmed, bundleError(ErrSubmissionFailed, StageSubmission, i, confirmed, err)
		}

		if err := s.wallet.SignTransaction(ctx, tx); err != nil {
			return confirmed, bundleError(ErrSigningRejected, StageSigning, i, confirmed, err)
		}

		sig, err := s.sender.SendTransaction(ctx, tx)
		if err != nil {
			return confirmed, bundleError(ErrSubmissionFailed, StageSubmission, i, confirmed, err)
		}
		s.logger.Debug().Int("index", i).Str("signature", sig.String()).Msg("transaction sent")

		if err := s.sender.ConfirmTransaction(ctx, sig, ref); err != nil {
			te := bundleError(ErrSubmissionFailed, StageSubmission, i, confirmed, err)
			te.Signature = &sig
			return confirmed, te
		}

		s.metrics.incTransaction()
		confirmed = append(confirmed, sig)
		s.logger.Info().Int("index", i).Int("of", len(bundle)).Str("signature", sig.String()).Msg("transaction confirmed")
	}
	return confirmed, nil
}

// DecodeTransaction parses one base64 wire transaction from the service.
func DecodeTransaction(encoded string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	return tx, nil
}
