package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/cb-transfer/internal/api"
	"github.com/AlexZinkM/cb-transfer/internal/cache"
	"github.com/AlexZinkM/cb-transfer/internal/client"
	"github.com/AlexZinkM/cb-transfer/internal/config"
	"github.com/AlexZinkM/cb-transfer/internal/handler"
	"github.com/AlexZinkM/cb-transfer/internal/log"
	"github.com/AlexZinkM/cb-transfer/internal/notify"
	"github.com/AlexZinkM/cb-transfer/internal/oplog"
	"github.com/AlexZinkM/cb-transfer/internal/wallet"
	"github.com/AlexZinkM/cb-transfer/solana"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.Init(); err != nil {
		log.Logger.Fatal().Err(err).Msg("config error")
	}
	cfg := config.Get()
	log.Init(cfg.LogLevel, cfg.LogJSON)

	if err := config.PromptForPassword(); err != nil {
		log.Wallet.Fatal().Err(err).Msg("password prompt failed")
	}
	password, err := config.GetKeyfilePasswordBytes()
	if err != nil {
		log.Wallet.Fatal().Err(err).Send()
	}
	keypair, err := wallet.LoadKeypair(cfg.KeyfilePath, password)
	clear(password)
	config.ForgetPassword()
	if err != nil {
		log.Wallet.Fatal().Err(err).Str("path", cfg.KeyfilePath).Msg("failed to open keyfile")
	}
	defer keypair.Close()
	owner, _ := keypair.PublicKey()
	log.Wallet.Info().Str("address", owner.String()).Msg("wallet connected")

	ops, err := oplog.Open(cfg.OplogPath, log.Oplog)
	if err != nil {
		log.Oplog.Fatal().Err(err).Msg("operation log error")
	}
	defer ops.Close()

	chain := client.NewSolanaClient(cfg.SolanaRPCURL, cfg.ConfirmPollInterval, log.RPC)
	proofs := client.NewProofServiceClient(cfg.ProofServiceURL, cfg.ProofServiceTimeout)
	queryCache := cache.NewMemory()
	notifier := notify.NewLogNotifier(log.Transfer, chain.Endpoint())
	metrics := solana.NewMetrics()

	transferer := solana.NewTransferer(solana.Deps{
		Wallet:          keypair,
		Chain:           chain,
		Sender:          chain,
		Proofs:          proofs,
		Cache:           queryCache,
		Notifier:        notifier,
		Log:             ops,
		Metrics:         metrics,
		Logger:          log.Transfer,
		Endpoint:        chain.Endpoint(),
		ReadConcurrency: cfg.ChainReadConcurrency,
	})
	views := solana.NewViews(chain, queryCache, keypair, chain.Endpoint())

	h := handler.NewSolanaHandler(transferer, views, ops, log.HTTP)
	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           api.SetupRouter(h, metrics.Handler(), log.HTTP),
		ReadHeaderTimeout: 15 * time.Second,
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	log.HTTP.Info().Str("addr", srv.Addr).Str("rpc", chain.Endpoint()).Msg("listening")
	if err := serve(srv, ch, shutdownTimeout); err != nil {
		log.HTTP.Error().Err(err).Msg("server stopped")
		keypair.Close()
		ops.Close()
		os.Exit(1)
	}
}

// serve runs srv until it fails or a stop signal arrives, then shuts it down
// within timeout. A listen failure is returned instead of waiting for a signal.
func serve(srv *http.Server, stop <-chan os.Signal, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
