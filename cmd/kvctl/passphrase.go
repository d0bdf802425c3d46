package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// getPassphrase reads a passphrase from the terminal without echoing it.
func getPassphrase(prompt string) ([]byte, error) {
	stdin := int(syscall.Stdin)
	if !term.IsTerminal(stdin) {
		return nil, errors.New("--encrypt requires an interactive terminal")
	}
	initialTermState, err := term.GetState(stdin)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Restore the terminal in the event of an interrupt.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		_, ok := <-c
		if ok {
			_ = term.Restore(stdin, initialTermState)
			os.Exit(1)
		}
	}()
	defer func() {
		signal.Stop(c)
		close(c)
	}()

	fmt.Print(prompt)
	passphrase, err := term.ReadPassword(stdin)
	fmt.Println()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return passphrase, nil
}
