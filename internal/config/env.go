package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: Password is prompted at runtime and stored in memory - use GetKeyfilePasswordBytes()
type Config struct {
	Port                 string        `envconfig:"PORT" default:"8080"`
	SolanaRPCURL         string        `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`
	ProofServiceURL      string        `envconfig:"PROOF_SERVICE_URL" default:"http://localhost:3000"`
	ProofServiceTimeout  time.Duration `envconfig:"PROOF_SERVICE_TIMEOUT" default:"60s"`
	KeyfilePath          string        `envconfig:"KEYFILE_PATH" required:"true"`
	OplogPath            string        `envconfig:"OPLOG_PATH" default:"./data/oplog"`
	ChainReadConcurrency int           `envconfig:"CHAIN_READ_CONCURRENCY" default:"4"`
	ConfirmPollInterval  time.Duration `envconfig:"CONFIRM_POLL_INTERVAL" default:"500ms"`
	LogLevel             string        `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON              bool          `envconfig:"LOG_JSON" default:"false"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// Validate checks values envconfig cannot express as tags.
func (c *Config) Validate() error {
	if c.ChainReadConcurrency < 1 {
		return fmt.Errorf("CHAIN_READ_CONCURRENCY must be at least 1")
	}
	if c.ConfirmPollInterval <= 0 {
		return fmt.Errorf("CONFIRM_POLL_INTERVAL must be positive")
	}
	if c.ProofServiceTimeout <= 0 {
		return fmt.Errorf("PROOF_SERVICE_TIMEOUT must be positive")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetKeyfilePath returns path to the encrypted wallet keyfile
func GetKeyfilePath() string {
	return Get().KeyfilePath
}

var passwordBytes []byte

// PromptForPassword prompts the user for the keyfile password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, "Enter keyfile password: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("password cannot be empty")
	}

	passwordBytes = make([]byte, len(raw))
	copy(passwordBytes, raw)
	clear(raw)
	return nil
}

// GetKeyfilePasswordBytes returns the password stored in memory (from PromptForPassword).
// Caller must zero the returned slice after use.
func GetKeyfilePasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}

// ForgetPassword wipes the in-memory password once the keyfile is open.
func ForgetPassword() {
	clear(passwordBytes)
	passwordBytes = nil
}
