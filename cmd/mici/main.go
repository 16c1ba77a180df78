package main

import (
	"os"

	"github.com/phillarmonic/mici/cmd/mici/app"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(app.NewApp(version, commit, date).Run(os.Args[1:]))
}
