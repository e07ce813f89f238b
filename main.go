package main

import (
	"os"

	"github.com/bdwyertech/go-paludis/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
