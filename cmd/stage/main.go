// Command stage prepares the dataset root before registration: it creates the per-subject fMRI
// directories, moves downloaded FIX archives into place and extracts them.
package main

import (
	"errors"
	"os"

	"github.com/KyungWonPark/HCPTimeSeries/internal/hcp"
	"github.com/KyungWonPark/HCPTimeSeries/internal/stage"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var errNoSubjects = errors.New("--subjects is required")

func main() {
	app := cli.NewApp()
	app.Name = "stage"
	app.Usage = "Stage HCP resting-state downloads under the dataset root"
	app.Flags = hcp.Flags
	app.Before = hcp.SetupLogging
	app.Commands = []cli.Command{
		{
			Name:   "mkdirs",
			Usage:  "Create <subject>/fMRI for every listed subject",
			Action: mkdirs,
		},
		{
			Name:  "move",
			Usage: "Move <subject>_3T_rfMRI_REST_fix.zip from the downloads directory into each listed subject",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "downloads",
					Value: "Downloads",
					Usage: "Directory holding the downloaded archives.",
				},
			},
			Action: move,
		},
		{
			Name:   "unzip",
			Usage:  "Extract the FIX archive of every subject",
			Action: unzip,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func listed(c *cli.Context) (hcp.Config, error) {
	cfg, err := hcp.ConfigFromContext(c)
	if err != nil {
		return cfg, err
	}
	if len(cfg.Subjects) == 0 {
		return cfg, errNoSubjects
	}

	return cfg, nil
}

func mkdirs(c *cli.Context) error {
	cfg, err := listed(c)
	if err != nil {
		return err
	}

	return stage.MakeDirs(cfg, cfg.Subjects)
}

func move(c *cli.Context) error {
	cfg, err := listed(c)
	if err != nil {
		return err
	}

	moved, err := stage.Move(cfg, c.String("downloads"), cfg.Subjects)
	if err != nil {
		return err
	}

	log.Infof("Moved %d of %d archives", moved, len(cfg.Subjects))
	return nil
}

func unzip(c *cli.Context) error {
	cfg, err := hcp.ConfigFromContext(c)
	if err != nil {
		return err
	}

	subjects, err := hcp.Discover(cfg)
	if err != nil {
		return err
	}

	n := stage.Unzip(cfg, subjects)
	log.Infof("Extracted %d of %d archives", n, len(subjects))
	return nil
}
