package main

import (
	"errors"
	"os"

	"dirkeep/internal/exitcodes"
)

// exitError carries the exit code a failed command maps to
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func main() {
	os.Exit(run())
}

func run() int {
	err := rootCmd.Execute()
	finish()

	if err == nil {
		return exitcodes.Success
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and usage errors surface directly from cobra
	return exitcodes.InvalidConfig
}
