/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command cleardata inspects and maintains cleardata document stores.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
