package main

import (
	"os"

	"github.com/KLfungli/workers-sdk/cmd/create-cloudflare/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
