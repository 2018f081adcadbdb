package main

import (
	"context"

	"github.com/sadopc/tiempo/internal/cli"
)

func main() {
	ctx := context.Background()
	cli.Main(ctx)
}
