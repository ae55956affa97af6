package main

import (
	"context"
	"fmt"
	"go/format"
	"log"
	"os"
	"time"

	"github.com/delaneyj/cellgraph/cmd/codegen/templates"
	"github.com/urfave/cli/v3"
)

const (
	genericParamCountKey = "count"
	outputKey            = "out"
)

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate fixed-arity Derive and Watch helpers for cells",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  genericParamCountKey,
				Usage: "Largest number of cells a generated helper reads",
				Value: 4,
			},
			&cli.StringFlag{
				Name:  outputKey,
				Usage: "File to write",
				Value: "cells/derive_gen.go",
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	log.Printf("Codegen for cells started !")
	defer func() {
		log.Printf("Codegen for cells finished in %v", time.Since(start))
	}()

	genericParamCount := int(cmd.Uint(genericParamCountKey))
	if genericParamCount < 1 {
		return fmt.Errorf("%s must be at least 1", genericParamCountKey)
	}
	out := cmd.String(outputKey)

	contents, err := format.Source([]byte(templates.DeriveGen(genericParamCount)))
	if err != nil {
		return fmt.Errorf("formatting generated code: %w", err)
	}
	if err := os.WriteFile(out, contents, 0644); err != nil {
		return err
	}
	log.Printf("Wrote %d helpers to %s", 2*genericParamCount, out)
	return nil
}
