package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

type flagError struct {
	err error
}

func (e flagError) Error() string { return e.err.Error() }
func (e flagError) Unwrap() error { return e.err }

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		var badFlags flagError
		if errors.As(err, &badFlags) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
