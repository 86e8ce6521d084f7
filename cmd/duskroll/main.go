// Package main starts the duskroll table service and handles termination.
//
// The process hosts the WebSocket table, an optional read-only admin gRPC
// surface and an optional SQLite audit log.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	duskrollcmd "github.com/louisbranch/duskroll/internal/cmd/duskroll"
)

func main() {
	cfg, err := duskrollcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[DUSKROLL] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := duskrollcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
