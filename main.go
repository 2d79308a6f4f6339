// gotelnet - a scriptable TELNET client with SSH gateway support.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gotelnet/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gotelnet: %v\n", err)
		os.Exit(1)
	}
}
