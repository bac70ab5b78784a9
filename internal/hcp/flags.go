package hcp

import (
	"os"
	"strings"

	"github.com/KyungWonPark/HCPTimeSeries/internal/io"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// Flags are shared by every batch tool
var Flags = []cli.Flag{
	cli.StringFlag{
		Name:   "data",
		Usage:  "Dataset root with one directory per subject.",
		EnvVar: "HCP_DATA",
	},
	cli.StringFlag{
		Name:   "output",
		Usage:  "Root for <subject>/fMRI/phase<p>_<d>/ tables. Defaults to --data.",
		EnvVar: "HCP_OUTPUT",
	},
	cli.StringFlag{
		Name:  "subjects",
		Usage: "File with one subject id per line. Defaults to every directory under --data.",
	},
	cli.IntFlag{
		Name:  "workers",
		Usage: "Subjects processed at once. Defaults to min(CPUs, subjects).",
	},
	cli.StringFlag{
		Name:  "manifest",
		Usage: "Write a CSV listing every table written by this batch.",
	},
	cli.BoolFlag{
		Name:  "keep",
		Usage: "Keep intermediate files.",
	},
	cli.StringFlag{
		Name:  "log-level",
		Value: "info",
		Usage: "One of debug, info, warn, error.",
	},
	cli.BoolFlag{
		Name:  "log-json",
		Usage: "Log as JSON lines.",
	},
}

// ToolFlags locate the external programs
var ToolFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "wb-command",
		Value:  "wb_command",
		Usage:  "Connectome Workbench binary.",
		EnvVar: "WB_COMMAND",
	},
	cli.StringFlag{
		Name:   "fsl-dir",
		Usage:  "FSL installation. Defaults to FSL programs on PATH.",
		EnvVar: "FSLDIR",
	},
}

// TableFlags tune the written tables
var TableFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "npy",
		Usage: "Also write every table as .npy.",
	},
	cli.BoolFlag{
		Name:  "zscore",
		Usage: "Z-score every row before writing.",
	},
}

// ConfigFromContext builds a Config from the flags of the running command
func ConfigFromContext(c *cli.Context) (Config, error) {
	cfg := Config{
		DataRoot:         c.GlobalString("data"),
		OutputRoot:       c.GlobalString("output"),
		Workers:          c.GlobalInt("workers"),
		ManifestPath:     c.GlobalString("manifest"),
		KeepIntermediate: c.GlobalBool("keep"),
		WbCommand:        c.GlobalString("wb-command"),
		FSLDir:           c.GlobalString("fsl-dir"),
		Npy:              c.GlobalBool("npy"),
		ZScore:           c.GlobalBool("zscore"),
	}

	if path := c.GlobalString("subjects"); path != "" {
		ids, err := io.ReadLines(path)
		if err != nil {
			return cfg, err
		}
		cfg.Subjects = ids
	}

	return cfg, cfg.Validate()
}

// SetupLogging configures the logrus standard logger from --log-level and --log-json
func SetupLogging(c *cli.Context) error {
	if c.GlobalBool("log-json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)

	level, err := log.ParseLevel(strings.ToLower(c.GlobalString("log-level")))
	if err != nil {
		return err
	}
	log.SetLevel(level)

	return nil
}
