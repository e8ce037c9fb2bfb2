package main

import (
	"os"

	medragcmder "github.com/papercomputeco/medrag/cmd/medrag"
)

func main() {
	cmd := medragcmder.NewMedragCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
