// Package notify carries user-facing notifications out of the transfer pipeline.
package notify

import (
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
)

// Notifier is the fire-and-forget notification port.
type Notifier interface {
	Success(message string)
	Error(message string)
	Transaction(signature solana.Signature)
}

// LogNotifier writes notifications to a zerolog logger, with an explorer
// link for transaction notifications.
type LogNotifier struct {
	logger   zerolog.Logger
	endpoint string
}

// NewLogNotifier builds a notifier whose explorer links point at the cluster
// served by endpoint.
func NewLogNotifier(logger zerolog.Logger, endpoint string) *LogNotifier {
	return &LogNotifier{logger: logger, endpoint: endpoint}
}

func (n *LogNotifier) Success(message string) {
	n.logger.Info().Str("kind", "success").Msg(message)
}

func (n *LogNotifier) Error(message string) {
	n.logger.Error().Str("kind", "error").Msg(message)
}

func (n *LogNotifier) Transaction(signature solana.Signature) {
	n.logger.Info().
		Str("kind", "transaction").
		Str("signature", signature.String()).
		Str("explorer", ExplorerURL(signature, n.endpoint)).
		Msg("transaction confirmed")
}

// ExplorerURL links a signature on the public Solana explorer for the
// cluster behind endpoint. Local clusters carry the endpoint as customUrl.
func ExplorerURL(signature solana.Signature, endpoint string) string {
	link := "https://explorer.solana.com/tx/" + signature.String()
	switch cluster := ClusterFromEndpoint(endpoint); cluster {
	case "":
	case "custom":
		link += "?cluster=custom&customUrl=" + url.QueryEscape(endpoint)
	default:
		link += "?cluster=" + cluster
	}
	return link
}

// ClusterFromEndpoint guesses the explorer cluster from an RPC endpoint.
func ClusterFromEndpoint(endpoint string) string {
	switch {
	case strings.Contains(endpoint, "devnet"):
		return "devnet"
	case strings.Contains(endpoint, "testnet"):
		return "testnet"
	case strings.Contains(endpoint, "localhost"), strings.Contains(endpoint, "127.0.0.1"):
		return "custom"
	default:
		return ""
	}
}

