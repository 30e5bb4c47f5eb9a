// Command chatwidget runs the chat assistant either as an HTTP service for
// the embeddable widget or as an interactive terminal chat.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
