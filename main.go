package main

import (
	"os"

	"github.com/enervision/transition/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
