package solana

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Failure kinds. Match with errors.Is.
var (
	ErrWalletUnavailable     = errors.New("wallet unavailable")
	ErrSigningRejected       = errors.New("signing rejected")
	ErrAccountNotFound       = errors.New("account not found")
	ErrSizingUnavailable     = errors.New("proof sizing unavailable")
	ErrChainUnavailable      = errors.New("chain read failed")
	ErrTransferRequestFailed = errors.New("transfer request failed")
	ErrSubmissionFailed      = errors.New("submission failed")
)

// Stage names the pipeline step a failure happened in.
type Stage string

const (
	StageWallet      Stage = "wallet"
	StageSeeds       Stage = "seed_derivation"
	StageAccounts    Stage = "account_read"
	StageSizing      Stage = "proof_sizing"
	StageRent        Stage = "rent_lookup"
	StageRequest     Stage = "transfer_request"
	StageSigning     Stage = "transaction_signing"
	StageSubmission  Stage = "submission"
	StageUnspecified Stage = "unspecified"
)

// TransferError is every error Transfer returns.
type TransferError struct {
	Kind  error
	Stage Stage
	// Index is the bundle position of the failing transaction, -1 outside submission.
	Index int
	// Signature of the failing transaction when it was sent before failing.
	Signature *solana.Signature
	// Confirmed holds signatures that landed before the failure; they are not rolled back.
	Confirmed []solana.Signature
	Err       error
}

func (e *TransferError) Error() string {
	msg := e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Index >= 0 {
		msg = fmt.Sprintf("transaction #%d: %s", e.Index+1, msg)
	}
	return msg
}

func (e *TransferError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stageError(kind error, stage Stage, err error) *TransferError {
	return &TransferError{Kind: kind, Stage: stage, Index: -1, Err: err}
}

func bundleError(kind error, stage Stage, index int, confirmed []solana.Signature, err error) *TransferError {
	return &TransferError{
		Kind:      kind,
		Stage:     stage,
		Index:     index,
		Confirmed: append([]solana.Signature(nil), confirmed...),
		Err:       err,
	}
}

// StageOf reports the stage of a TransferError, or StageUnspecified.
func StageOf(err error) Stage {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Stage
	}
	return StageUnspecified
}
