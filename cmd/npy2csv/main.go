// Command npy2csv converts .npy arrays to CSV tables in the format written by the time series
// tools.
package main

import (
	"os"
	"strings"

	"github.com/KyungWonPark/HCPTimeSeries/internal/io"
	"github.com/gonum/matrix/mat64"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "npy2csv"
	app.Usage = "Convert .npy arrays to .csv"
	app.ArgsUsage = "FILE.npy..."
	app.Action = func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.ShowAppHelp(c)
		}

		for _, path := range c.Args() {
			if err := convert(path); err != nil {
				return err
			}
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func csvPath(path string) string {
	return strings.TrimSuffix(path, ".npy") + ".csv"
}

func convert(path string) error {
	m, err := io.ReadNpy(path)
	if err != nil {
		return err
	}
	log.WithField("path", path).Debug("Reading npy file complete")

	dest := csvPath(path)
	if _, err := io.WriteTable(dest, rows(m)); err != nil {
		return err
	}

	log.WithField("path", dest).Info("Saved csv")
	return nil
}

func rows(m *mat64.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = m.RawRowView(i)
	}

	return out
}
