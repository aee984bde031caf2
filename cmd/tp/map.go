package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/mapview"
	"github.com/jeja2023/tp/trajectory"
)

var mapFlags struct {
	out      string
	base     string
	overlays []string
	open     bool
}

func init() {
	for _, cmd := range []*cobra.Command{&MapPlotCommand, &MapImportCommand, &MapLocateCommand} {
		cmd.Flags().StringVarP(&mapFlags.out, "out", "o", "map.html", "page to write")
		cmd.Flags().StringVar(&mapFlags.base, "base", mapview.LayerStandard, "base layer: standard or satellite")
		cmd.Flags().StringSliceVar(&mapFlags.overlays, "overlay", nil, "overlays to show: roadnet, traffic, district")
		cmd.Flags().BoolVar(&mapFlags.open, "open", false, "open the page in the browser")
	}

	addCommands(&MapCommand, &MapPlotCommand, &MapImportCommand, &MapLocateCommand)
	addCommands(&RootCmd, &MapCommand)
}

// renderMap applies the layer flags and writes the page.
func renderMap(cmd *cobra.Command, title string) error {
	if err := app.overlay.SetBaseLayer(mapFlags.base); err != nil {
		return err
	}
	for _, name := range mapFlags.overlays {
		if _, err := app.overlay.ToggleOverlay(name, true); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(mapFlags.out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(mapFlags.out)
	if err != nil {
		return err
	}
	if err := app.overlay.Render(f, title); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	cmd.Printf("map written to %s\n", mapFlags.out)

	if mapFlags.open {
		path, err := filepath.Abs(mapFlags.out)
		if err != nil {
			return err
		}
		return trajectory.BrowserOpener{}.Open("file://" + filepath.ToSlash(path))
	}
	return nil
}

var MapCommand = cobra.Command{
	Use:              "map",
	Short:            "Draw points on a map",
	Long:             "Draw the images of a task or imported GPS points on a map page",
	PersistentPreRun: setup,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var MapPlotCommand = cobra.Command{
	Use:   "plot <task id>",
	Short: "Plot the geotagged images of a task in time order",
	Long:  "Plot the geotagged images of a task in time order",
	RunE: func(cmd *cobra.Command, args []string) error {
		requireSession(cmd, args)

		id, err := argID(args, 0)
		if err != nil {
			return err
		}

		n, err := app.overlay.PlotImages(cmd.Context(), id)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		return renderMap(cmd, fmt.Sprintf("Task %d", id))
	},
}

var MapImportCommand = cobra.Command{
	Use:   "import <file>",
	Short: "Plot the points of a .xlsx or text file",
	Long:  "Plot the points of a .xlsx or text file, numbered in file order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := readPoints(args[0])
		if err != nil {
			return err
		}
		if err := app.overlay.PlotPoints(points); err != nil {
			return err
		}
		app.notifier.Success("%d points imported", len(points))
		return renderMap(cmd, filepath.Base(args[0]))
	},
}

var MapLocateCommand = cobra.Command{
	Use:   "locate <lng> <lat> [title]",
	Short: "Mark a location on the map",
	Long:  "Mark a location on the map and center the map on it",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		lng, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return errors.New("invalid longitude "+args[0], errors.BadRequest())
		}
		lat, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return errors.New("invalid latitude "+args[1], errors.BadRequest())
		}

		title := ""
		if len(args) == 3 {
			title = args[2]
		}
		app.overlay.MarkLocation(lng, lat, title)
		return renderMap(cmd, "Location")
	},
}
