package main

import (
	"log"

	"github.com/vaultmatch/vault-engine/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		log.Fatalf("failed to execute root command: %v", err)
	}
}
