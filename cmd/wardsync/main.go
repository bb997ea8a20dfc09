package main

import (
	"context"
	"log"

	"github.com/dalemusser/waffle/app"
	"github.com/wardsync/wardsync/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
