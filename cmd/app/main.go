// Command app is the JobFlow backend: HTTP API, websocket relay, background
// jobs and maintenance commands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
