package commands

import (
	"context"
	"fmt"

	"github.com/williamdemeo/docpages/internal/builder"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bld := builder.New(cfg.Source.Dir, cfg.Builder)
	if err := bld.CheckTool(); err != nil {
		return err
	}
	if err := bld.Run(context.Background()); err != nil {
		return err
	}
	if err := bld.VerifyArtifacts(); err != nil {
		return err
	}

	fmt.Printf("Build completed: %s, %s\n", bld.HTMLDir(), bld.PDFPath())
	return nil
}
