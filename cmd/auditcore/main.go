// Command auditcore serves the residential energy audit API and runs the
// export and draft tooling against the configured stores.
package main

import (
	"fmt"
	"os"
)

func main() {
	app := newApplication()
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
