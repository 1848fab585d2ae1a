// Command vibe2apk is the vibe2apk CLI: it runs the ingestion API, the
// worker pool, or a one-shot preflight check, depending on subcommand.
// Grounded on the teacher's cmd/spindle entrypoint shape.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
