// Package main runs the Amber launcher core headless.
package main

import (
	"context"
	"flag"
	"os"

	amber "github.com/neutonm/Amber-Launcher-sub000/internal/cmd/amber"
	platformcmd "github.com/neutonm/Amber-Launcher-sub000/internal/platform/cmd"
	"github.com/neutonm/Amber-Launcher-sub000/internal/platform/config"
)

func main() {
	cfg, err := amber.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	err = platformcmd.Run(context.Background(), platformcmd.ServiceAmber, platformcmd.RunOptions{}, func(ctx context.Context) error {
		return amber.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.ExitError(err)
	}
}
