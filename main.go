package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/CloudNativeWorks/fillfetch/cmd"
	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
	"github.com/CloudNativeWorks/fillfetch/pkg/logger"
)

var version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cmd.Execute(ctx, version)
	stop()
	if err != nil {
		logger.NewLogger("main").Debugf("%+v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errdefs.ExitCode(err))
	}
}
