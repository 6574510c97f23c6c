package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/fsmerge/cmd/fsmerge"
	"github.com/arthur-debert/fsmerge/pkg/style"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := fsmerge.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		styles := style.NewStyles(style.ColorEnabled(os.Stderr, false))
		fmt.Fprintln(os.Stderr, styles.Error.Render(fmt.Sprintf("Error: %v", err)))
		stop()
		os.Exit(1)
	}
}
