package main

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/dumbinstall/internal/app"
	"github.com/blackwell-systems/dumbinstall/internal/errors"
)

func main() {
	if err := app.Execute(); err != nil {
		fmt.Fprint(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

// errorText renders err for the terminal. The raw tool output is shown
// below the message unless it says the same thing.
func errorText(err error) string {
	msg := err.Error()
	text := fmt.Sprintf("Error: %s\n", msg)
	if raw, ok := errors.GetErrorDetails(err)["raw"]; ok {
		if s := fmt.Sprint(raw); s != "" && s != msg {
			text += fmt.Sprintf("  %s\n", s)
		}
	}
	return text
}
