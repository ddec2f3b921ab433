// Command pyramid is a terminal chat client that puts every message to three
// hosted models in turn.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
