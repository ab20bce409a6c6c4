// Command modelctl builds, validates and compares integrated three-statement
// forecasts from case files.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
