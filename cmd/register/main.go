// Command register brings the volume part of every resting-state run into the subject's 3 mm T1
// space, producing fMRI_downsampled_3mm.nii.gz next to the run's dtseries.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/KyungWonPark/HCPTimeSeries/internal/hcp"
	"github.com/KyungWonPark/HCPTimeSeries/internal/io"
	"github.com/KyungWonPark/HCPTimeSeries/internal/pipeline"
	"github.com/KyungWonPark/HCPTimeSeries/internal/tool"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "register"
	app.Usage = "Register HCP resting-state runs to 3 mm individual space"
	app.Flags = append(append([]cli.Flag{}, hcp.Flags...), hcp.ToolFlags...)
	app.Before = hcp.SetupLogging
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := hcp.ConfigFromContext(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manifest := &io.Manifest{}
	p := &pipeline.Registration{Config: cfg, Runner: tool.Exec{}, Manifest: manifest}

	return pipeline.Batch(ctx, cfg, manifest, p.Subject)
}
