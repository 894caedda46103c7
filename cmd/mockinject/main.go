package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/PatchLens/go-mock-inject/inject"
	"github.com/PatchLens/go-mock-inject/inject/cmd"
)

func main() {
	log.SetFlags(log.LstdFlags)

	config, err := cmd.ParseFlags()
	if err != nil {
		log.Fatalf("%s%v", inject.ErrorLogPrefix, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := inject.NewInjector(config).Run(ctx); err != nil {
		stop()
		log.Fatalf("%s%v", inject.ErrorLogPrefix, err)
	}
}
