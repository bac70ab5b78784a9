// Command cortexts writes, for every run and hemisphere, the mean time series of each cortical
// parcel of an atlas to roi_time_series_<L|R>.csv.
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
	"github.com/KyungWonPark/HCPTimeSeries/internal/tool"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "cortexts"
	app.Usage = "Average cortical time series over the parcels of a CIFTI atlas"
	app.Flags = append(append(append([]cli.Flag{}, hcp.Flags...), hcp.ToolFlags...), hcp.TableFlags...)
	app.Flags = append(app.Flags,
		cli.StringFlag{
			Name:   "atlas",
			Usage:  "CIFTI dlabel parcellation, e.g. Schaefer2018_400Parcels_7Networks_order.dlabel.nii",
			EnvVar: "HCP_ATLAS",
		},
		cli.BoolFlag{
			Name:  "keys-file",
			Usage: "Write the sorted parcel labels next to each table.",
		},
		cli.BoolFlag{
			Name:  "connectivity",
			Usage: "Also write the parcel-by-parcel Pearson correlation matrix.",
		},
	)
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
	cfg.AtlasPath = c.GlobalString("atlas")
	cfg.KeysFile = c.GlobalBool("keys-file")
	cfg.Connectivity = c.GlobalBool("connectivity")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := tool.Exec{}

	// the parcellation is the same for every subject
	atlas, err := pipeline.LoadAtlas(ctx, cfg, runner)
	if err != nil {
		return err
	}

	manifest := &io.Manifest{}
	p := &pipeline.Cortex{
		Config:   cfg,
		Runner:   runner,
		Atlas:    atlas,
		Manifest: manifest,
		PipeLine: calc.Init(0),
	}

	return pipeline.Batch(ctx, cfg, manifest, p.Subject)
}
