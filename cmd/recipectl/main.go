// Command recipectl inspects the recipe folder from the terminal: files,
// shopping list, nutrition matching and reference table data quality.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
