// movies-api/cmd/moviectl/main.go

// moviectl - консольный клиент MovieLookup gRPC сервиса.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
