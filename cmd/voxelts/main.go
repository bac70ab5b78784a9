// Command voxelts writes, for every run and hemisphere, the time series of each probtrackx seed
// voxel of the registered 3 mm volume to voxel_time_series_<L|R>.csv.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
	"github.com/KyungWonPark/HCPTimeSeries/internal/hcp"
	"github.com/KyungWonPark/HCPTimeSeries/internal/io"
	"github.com/KyungWonPark/HCPTimeSeries/internal/pipeline"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "voxelts"
	app.Usage = "Extract voxel time series at probtrackx seed coordinates"
	app.Flags = append(append([]cli.Flag{}, hcp.Flags...), hcp.TableFlags...)
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
	p := &pipeline.Voxel{
		Config:   cfg,
		Load:     pipeline.LoadNifti,
		Manifest: manifest,
		PipeLine: calc.Init(0),
	}

	return pipeline.Batch(ctx, cfg, manifest, p.Subject)
}
