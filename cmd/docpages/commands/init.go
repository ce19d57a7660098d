package commands

import (
	"fmt"
	"log/slog"

	"github.com/williamdemeo/docpages/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	slog.Info("Initializing configuration", "path", root.Config, "force", i.Force)
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", root.Config)
	return nil
}
