package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/gps"
)

var previewRows int

func init() {
	GPSPreviewCommand.Flags().IntVarP(&previewRows, "rows", "n", gps.DefaultPreviewRows, "number of rows to show")

	addCommands(&GPSCommand, &GPSImportCommand, &GPSPreviewCommand)
	addCommands(&RootCmd, &GPSCommand)
}

// readPoints reads a .xlsx file, or a text file with one lat,lng[,time[,location]]
// point per line.
func readPoints(path string) ([]tp.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return gps.ParseSpreadsheet(f)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return gps.ParseText(string(data))
}

var GPSCommand = cobra.Command{
	Use:   "gps",
	Short: "Import GPS points",
	Long:  "Import GPS points from text or spreadsheet files",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var GPSImportCommand = cobra.Command{
	Use:   "import <file>",
	Short: "Check and list the points of a file",
	Long:  "Check and list the points of a .xlsx or text file. Any invalid row rejects the file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := readPoints(args[0])
		if err != nil {
			return err
		}
		for _, p := range points {
			cmd.Printf("%d\t%v\t%v\t%s\t%s\n", p.Index, p.Latitude, p.Longitude, p.Time, p.Location)
		}
		cmd.Printf("%d points imported\n", len(points))
		return nil
	},
}

var GPSPreviewCommand = cobra.Command{
	Use:   "preview <file.xlsx>",
	Short: "Render the first rows of a spreadsheet as HTML",
	Long:  "Render the first rows of a spreadsheet as HTML, warning when no GPS column is found",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rows, err := gps.ReadSheet(f)
		if err != nil {
			return err
		}
		cmd.Println(string(gps.PreviewTable(rows, previewRows)))
		return nil
	},
}
