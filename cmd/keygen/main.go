// Generates a new encrypted wallet keyfile at KEYFILE_PATH.
// Usage: KEYFILE_PATH=./wallet.cwt go run ./cmd/keygen
package main

import (
	"encoding/json"
	"os"

	"github.com/AlexZinkM/cb-transfer/internal/config"
	"github.com/AlexZinkM/cb-transfer/internal/crypto"
	"github.com/AlexZinkM/cb-transfer/internal/log"
	"github.com/AlexZinkM/cb-transfer/internal/model"
	"github.com/AlexZinkM/cb-transfer/internal/wallet"
)

func main() {
	if err := config.Init(); err != nil {
		log.Logger.Fatal().Err(err).Msg("config error")
	}
	path := config.GetKeyfilePath()

	if err := config.PromptForPassword(); err != nil {
		log.Wallet.Fatal().Err(err).Msg("password prompt failed")
	}
	password, err := config.GetKeyfilePasswordBytes()
	config.ForgetPassword()
	if err != nil {
		log.Wallet.Fatal().Err(err).Send()
	}
	defer clear(password)

	address, err := wallet.GenerateKeyfile(path, password)
	if err != nil {
		if crypto.IsKeyfileExistsError(err) {
			log.Wallet.Fatal().Str("path", path).Msg("keyfile already exists, refusing to overwrite")
		}
		log.Wallet.Fatal().Err(err).Msg("failed to generate keyfile")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(model.KeygenResponse{Path: path, Address: address})
}
