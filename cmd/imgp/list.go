package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/book-expert/image-pipeline-service/internal/dither"
	"github.com/book-expert/image-pipeline-service/internal/kernel"
)

func listKernels(cliCtx *cli.Context) error {
	for _, name := range kernel.Names() {
		k, _ := kernel.Lookup(name)

		_, err := fmt.Fprintf(cliCtx.App.Writer, "%-10s %s sum=%d\n", name, k, k.Sum())
		if err != nil {
			return fmt.Errorf("could not write kernel list: %w", err)
		}
	}

	return nil
}

func listModes(cliCtx *cli.Context) error {
	for _, mode := range dither.Modes() {
		_, err := fmt.Fprintln(cliCtx.App.Writer, mode)
		if err != nil {
			return fmt.Errorf("could not write mode list: %w", err)
		}
	}

	return nil
}
