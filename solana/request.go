package solana

import (
	"encoding/base64"

	"github.com/AlexZinkM/cb-transfer/internal/common"
	"github.com/AlexZinkM/cb-transfer/internal/model"
	"github.com/AlexZinkM/cb-transfer/internal/wallet"
)

// PriorityFee is the fixed priority fee sent with every confidential transfer.
const PriorityFee uint64 = 100_000_000

// ProofRents are the rent-exempt minimums of the three proof accounts, in lamports.
type ProofRents struct {
	Equality           uint64
	CiphertextValidity uint64
	Range              uint64
}

// TransferInputs is everything the request builder needs.
type TransferInputs struct {
	Seeds     *wallet.Seeds
	Sender    []byte
	Recipient []byte
	Mint      []byte
	Amount    uint64
	Block     model.BlockReference
	Rents     ProofRents
}

// BuildTransferRequest assembles the POST /transfer-cb body. It is pure:
// same inputs, same request.
func BuildTransferRequest(in TransferInputs) model.TransferRequest {
	enc := base64.StdEncoding
	return model.TransferRequest{
		ElGamalSignature:            enc.EncodeToString(in.Seeds.ElGamal),
		AESSignature:                enc.EncodeToString(in.Seeds.AES),
		SenderTokenAccount:          enc.EncodeToString(in.Sender),
		RecipientTokenAccount:       enc.EncodeToString(in.Recipient),
		MintTokenAccount:            enc.EncodeToString(in.Mint),
		Amount:                      common.FormatAmount(in.Amount),
		PriorityFee:                 common.FormatAmount(PriorityFee),
		LatestBlockhash:             in.Block.Blockhash.String(),
		EqualityProofRent:           common.FormatAmount(in.Rents.Equality),
		CiphertextValidityProofRent: common.FormatAmount(in.Rents.CiphertextValidity),
		RangeProofRent:              common.FormatAmount(in.Rents.Range),
	}
}
