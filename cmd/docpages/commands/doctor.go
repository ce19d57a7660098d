package commands

import (
	"fmt"

	"github.com/williamdemeo/docpages/internal/builder"
)

// DoctorCmd implements the 'doctor' command.
type DoctorCmd struct{}

func (d *DoctorCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bld := builder.New(cfg.Source.Dir, cfg.Builder)
	if err := bld.CheckTool(); err != nil {
		return err
	}

	fmt.Printf("%s found on PATH, ready to build\n", cfg.Builder.Tool)
	return nil
}
