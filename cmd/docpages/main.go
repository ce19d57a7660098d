package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/williamdemeo/docpages/cmd/docpages/commands"
	"github.com/williamdemeo/docpages/internal/builder"
	"github.com/williamdemeo/docpages/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("docpages"),
		kong.Description("Build documentation with an external generator and publish it to a pages branch."),
		kong.Vars{"version": version.Version},
	)

	if err := ctx.Run(&commands.Global{}, &cli); err != nil {
		slog.Error("Command failed", "error", err)

		// A failing external build propagates the generator's own exit code.
		var exitErr *builder.ExitError
		if errors.As(err, &exitErr) && exitErr.Code > 0 {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
