package model

import (
	"encoding/json"
	"fmt"
)

// ProofSpaces is the response of GET /transfer-cb: byte sizes of the three
// proof context accounts a confidential transfer needs.
type ProofSpaces struct {
	EqualityProofSpace           uint64 `json:"equality_proof_space"`
	CiphertextValidityProofSpace uint64 `json:"ciphertext_validity_proof_space"`
	RangeProofSpace              uint64 `json:"range_proof_space"`
}

// Validate rejects a sizing answer that would make rent figures meaningless.
func (p ProofSpaces) Validate() error {
	if p.EqualityProofSpace == 0 || p.CiphertextValidityProofSpace == 0 || p.RangeProofSpace == 0 {
		return fmt.Errorf("proof space sizes must be positive, got equality=%d validity=%d range=%d",
			p.EqualityProofSpace, p.CiphertextValidityProofSpace, p.RangeProofSpace)
	}
	return nil
}

// TransferRequest is the body of POST /transfer-cb.
// Binary fields are base64, numeric fields are decimal strings.
type TransferRequest struct {
	ElGamalSignature            string `json:"elgamal_signature"`
	AESSignature                string `json:"aes_signature"`
	SenderTokenAccount          string `json:"sender_token_account"`
	RecipientTokenAccount       string `json:"recipient_token_account"`
	MintTokenAccount            string `json:"mint_token_account"`
	Amount                      string `json:"amount"`
	PriorityFee                 string `json:"priority_fee"`
	LatestBlockhash             string `json:"latest_blockhash"`
	EqualityProofRent           string `json:"equality_proof_rent"`
	CiphertextValidityProofRent string `json:"ciphertext_validity_proof_rent"`
	RangeProofRent              string `json:"range_proof_rent"`
}

// TransferResponse is the answer of POST /transfer-cb. Transactions are
// base64 wire transactions in submission order. Extra holds every field of
// the service body, transactions included, and is echoed back to the caller.
type TransferResponse struct {
	Transactions []string                   `json:"transactions"`
	Extra        map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes transactions and keeps the whole body as metadata.
func (r *TransferResponse) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	raw, ok := fields["transactions"]
	if !ok {
		return fmt.Errorf("missing transactions field")
	}
	if err := json.Unmarshal(raw, &r.Transactions); err != nil {
		return fmt.Errorf("invalid transactions field: %w", err)
	}
	r.Extra = fields
	return nil
}

// TransferCBRequest represents request for POST /transfer-cb on this service
type TransferCBRequest struct {
	SenderTokenAccount string `json:"senderTokenAccount" binding:"required"`
	RecipientAddress   string `json:"recipientAddress" binding:"required"`
	MintAddress        string `json:"mintAddress" binding:"required"`
	Amount             string `json:"amount" binding:"required"` // smallest token units, decimal string
}

// TransferCBResponse represents response for POST /transfer-cb on this service
type TransferCBResponse struct {
	Signatures []string                   `json:"signatures"`
	Amount     string                     `json:"amount"`
	Extra      map[string]json.RawMessage `json:"-"`
}

// MarshalJSON flattens service metadata over signatures and amount.
// Same-named metadata keys from the service take precedence.
func (r TransferCBResponse) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+2)
	sigs := r.Signatures
	if sigs == nil {
		sigs = []string{}
	}
	out["signatures"] = sigs
	out["amount"] = r.Amount
	for k, v := range r.Extra {
		out[k] = v
	}
	return json.Marshal(out)
}
