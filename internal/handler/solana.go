package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/AlexZinkM/cb-transfer/internal/common"
	"github.com/AlexZinkM/cb-transfer/internal/model"
	"github.com/AlexZinkM/cb-transfer/internal/oplog"
	"github.com/AlexZinkM/cb-transfer/solana"

	sdk "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
)

// Transferer runs one confidential transfer.
type Transferer interface {
	Transfer(ctx context.Context, p solana.TransferParams) (*solana.TransferOutcome, error)
}

// AccountViews are the cached account queries.
type AccountViews interface {
	Balance(ctx context.Context, tokenAccount sdk.PublicKey) (*model.BalanceResponse, error)
	Signatures(ctx context.Context) (*model.SignaturesResponse, error)
	TokenAccounts(ctx context.Context, address sdk.PublicKey) (*model.TokenAccountsResponse, error)
	Visibility(ctx context.Context, tokenAccount sdk.PublicKey) (*model.VisibilityResponse, error)
	Show(tokenAccount sdk.PublicKey) *model.VisibilityResponse
	Hide(tokenAccount sdk.PublicKey) *model.VisibilityResponse
}

// OperationLister reads the audit log.
type OperationLister interface {
	List(limit int) ([]oplog.Entry, error)
}

// SolanaHandler serves the transfer, account and operation endpoints
type SolanaHandler struct {
	transferer Transferer
	views      AccountViews
	operations OperationLister
	logger     zerolog.Logger
}

// NewSolanaHandler creates a new SolanaHandler
func NewSolanaHandler(t Transferer, v AccountViews, ops OperationLister, logger zerolog.Logger) *SolanaHandler {
	return &SolanaHandler{transferer: t, views: v, operations: ops, logger: logger}
}

// TransferCB handles POST /transfer-cb
// @Summary      Confidential transfer
// @Description  Runs a Token-2022 confidential transfer: derives seed signatures, reads accounts, requests the transaction bundle and submits it in order
// @Tags         transfer
// @Accept       json
// @Produce      json
// @Param        request  body      model.TransferCBRequest  true  "Transfer data"
// @Success      200      {object}  model.TransferCBResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      403      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Failure      503      {object}  model.ErrorResponse
// @Router       /transfer-cb [post]
func (h *SolanaHandler) TransferCB(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.TransferCBRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Code: "invalid_request"})
		return
	}

	params, err := parseTransferParams(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Code: "invalid_request"})
		return
	}

	outcome, err := h.transferer.Transfer(r.Context(), params)
	if err != nil {
		h.writeTransferError(w, err)
		return
	}

	resp := model.TransferCBResponse{
		Signatures: make([]string, 0, len(outcome.Signatures)),
		Amount:     common.FormatAmount(outcome.Amount),
		Extra:      outcome.Extra,
	}
	for _, sig := range outcome.Signatures {
		resp.Signatures = append(resp.Signatures, sig.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseTransferParams(req model.TransferCBRequest) (solana.TransferParams, error) {
	sender, err := sdk.PublicKeyFromBase58(req.SenderTokenAccount)
	if err != nil {
		return solana.TransferParams{}, errors.New("invalid senderTokenAccount: " + err.Error())
	}
	recipient, err := sdk.PublicKeyFromBase58(req.RecipientAddress)
	if err != nil {
		return solana.TransferParams{}, errors.New("invalid recipientAddress: " + err.Error())
	}
	mint, err := sdk.PublicKeyFromBase58(req.MintAddress)
	if err != nil {
		return solana.TransferParams{}, errors.New("invalid mintAddress: " + err.Error())
	}
	amount, err := common.ParseAmount(req.Amount)
	if err != nil {
		return solana.TransferParams{}, errors.New("invalid amount: " + err.Error())
	}
	if amount == 0 {
		return solana.TransferParams{}, errors.New("invalid amount: must be positive")
	}
	return solana.TransferParams{
		SenderTokenAccount: sender,
		Recipient:          recipient,
		Mint:               mint,
		Amount:             amount,
	}, nil
}

// writeTransferError maps a failure kind to a status; confirmed signatures
// of a partially submitted bundle are reported so the caller can see them.
func (h *SolanaHandler) writeTransferError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, solana.ErrWalletUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, solana.ErrSigningRejected):
		status = http.StatusForbidden
	case errors.Is(err, solana.ErrAccountNotFound):
		status = http.StatusNotFound
	}

	resp := model.ErrorResponse{Error: err.Error(), Code: string(solana.StageOf(err))}
	var te *solana.TransferError
	if errors.As(err, &te) {
		for _, sig := range te.Confirmed {
			resp.Signatures = append(resp.Signatures, sig.String())
		}
	}
	h.logger.Debug().Int("status", status).Str("code", resp.Code).Msg("transfer request failed")
	writeError(w, status, resp)
}

// GetBalance handles GET /accounts/balance
// @Summary      Get token account balance
// @Description  Gets the public balance of a token account, served from cache until a transfer invalidates it
// @Tags         accounts
// @Produce      json
// @Param        address  query     string  true  "Token account address"
// @Success      200      {object}  model.BalanceResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /accounts/balance [get]
func (h *SolanaHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	address, ok := queryAddress(w, r)
	if !ok {
		return
	}

	balance, err := h.views.Balance(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusBadGateway, model.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// GetSignatures handles GET /accounts/signatures
// @Summary      Get wallet signature history
// @Description  Gets recent transaction signatures of the connected wallet, newest first
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  model.SignaturesResponse
// @Failure      502  {object}  model.ErrorResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /accounts/signatures [get]
func (h *SolanaHandler) GetSignatures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	sigs, err := h.views.Signatures(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, solana.ErrWalletUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, model.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sigs)
}

// GetTokenAccounts handles GET /accounts/token-accounts
// @Summary      List Token-2022 accounts
// @Description  Lists the Token-2022 accounts owned by an address
// @Tags         accounts
// @Produce      json
// @Param        address  query     string  true  "Owner address"
// @Success      200      {object}  model.TokenAccountsResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /accounts/token-accounts [get]
func (h *SolanaHandler) GetTokenAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	address, ok := queryAddress(w, r)
	if !ok {
		return
	}

	accounts, err := h.views.TokenAccounts(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusBadGateway, model.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Visibility handles GET, POST and DELETE /accounts/visibility
// @Summary      Confidential balance visibility
// @Description  GET reads the flag, POST shows the confidential balance, DELETE hides it. Hidden by default and after every transfer
// @Tags         accounts
// @Produce      json
// @Param        address  query     string  true  "Token account address"
// @Success      200      {object}  model.VisibilityResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /accounts/visibility [get]
// @Router       /accounts/visibility [post]
// @Router       /accounts/visibility [delete]
func (h *SolanaHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		http.Error(w, "Method not allowed. Should be GET, POST or DELETE", http.StatusMethodNotAllowed)
		return
	}
	address, ok := queryAddress(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		writeJSON(w, http.StatusOK, h.views.Show(address))
	case http.MethodDelete:
		writeJSON(w, http.StatusOK, h.views.Hide(address))
	default:
		vis, err := h.views.Visibility(r.Context(), address)
		if err != nil {
			writeError(w, http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, vis)
	}
}

// Operations handles GET /operations
// @Summary      Operation log
// @Description  Lists audit log entries of finished transfers, newest first
// @Tags         operations
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of entries"
// @Success      200    {array}   model.OperationEntry
// @Failure      400    {object}  model.ErrorResponse
// @Router       /operations [get]
func (h *SolanaHandler) Operations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid limit: use a non-negative integer", Code: "invalid_request"})
			return
		}
		limit = n
	}

	entries, err := h.operations.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]model.OperationEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.OperationEntry{
			Title:     e.Title,
			Content:   e.Content,
			Variant:   string(e.Variant),
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func queryAddress(w http.ResponseWriter, r *http.Request) (sdk.PublicKey, bool) {
	raw := r.URL.Query().Get("address")
	if raw == "" {
		writeError(w, http.StatusBadRequest, model.ErrorResponse{Error: "address query parameter is required", Code: "invalid_request"})
		return sdk.PublicKey{}, false
	}
	address, err := sdk.PublicKeyFromBase58(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid address: " + err.Error(), Code: "invalid_request"})
		return sdk.PublicKey{}, false
	}
	return address, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp model.ErrorResponse) {
	writeJSON(w, status, resp)
}
