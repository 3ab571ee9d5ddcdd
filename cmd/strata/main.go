package main

import "os"

func main() {
	// Cobra reports the error itself; commands that fail mid-run print
	// their own context before exiting.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
