// cmd/wallet/main.go
package main

import (
	"os"

	"github.com/rovshanmuradov/solana-wallet/internal/app"
)

func main() {
	os.Exit(app.NewRunner().Run(os.Args[1:]))
}
