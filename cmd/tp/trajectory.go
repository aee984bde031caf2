package main

import (
	"github.com/spf13/cobra"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/format"
	"github.com/jeja2023/tp/trajectory"
)

var downloadDir string

func init() {
	for _, cmd := range []*cobra.Command{&TrajectoryDownloadCommand, &TrajectoryRawCommand} {
		cmd.Flags().StringVarP(&downloadDir, "dir", "o", "", "directory to write to, the configured one by default")
	}

	addCommands(&TrajectoryCommand,
		&TrajectoryTrackCommand,
		&TrajectoryReportCommand,
		&TrajectoryFilesCommand,
		&TrajectoryRemoveCommand,
		&TrajectoryClearCommand,
		&TrajectoryPreviewCommand,
		&TrajectoryDownloadCommand,
		&TrajectoryRawCommand,
	)
	addCommands(&RootCmd, &TrajectoryCommand)
}

func printResult(cmd *cobra.Command, res trajectory.Result) {
	mark := ""
	if res.Highlighted {
		mark = " (already generated)"
	}
	cmd.Printf("%s%s\n", res.File.Filename, mark)
}

// generatedFile finds a file in the list of a task.
func generatedFile(args []string) (int, tp.GeneratedFile, error) {
	id, err := argID(args, 0)
	if err != nil {
		return 0, tp.GeneratedFile{}, err
	}

	files, err := app.exports.Files(id)
	if err != nil {
		return 0, tp.GeneratedFile{}, err
	}
	for _, f := range files {
		if f.Filename == args[1] {
			return id, f, nil
		}
	}
	return 0, tp.GeneratedFile{}, errors.New(args[1]+" was not generated for this task", errors.NotFound())
}

func outputDir() string {
	if downloadDir != "" {
		return downloadDir
	}
	return config.Download.Dir
}

var TrajectoryCommand = cobra.Command{
	Use:              "trajectory",
	Short:            "Generate and download trajectory exports",
	Long:             "Generate the trajectory spreadsheet and report of a task, and download them",
	PersistentPreRun: authenticated,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var TrajectoryTrackCommand = cobra.Command{
	Use:   "track <task id>",
	Short: "Generate the trajectory spreadsheet of a task",
	Long:  "Generate the trajectory spreadsheet of a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		res, err := app.exports.GenerateTrack(cmd.Context(), id)
		if err != nil {
			return err
		}
		printResult(cmd, res)
		return nil
	},
}

var TrajectoryReportCommand = cobra.Command{
	Use:   "report <task id>",
	Short: "Generate the trajectory report of a task",
	Long:  "Generate the trajectory report of a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		res, err := app.exports.GenerateReport(cmd.Context(), id)
		if err != nil {
			return err
		}
		printResult(cmd, res)
		return nil
	},
}

var TrajectoryFilesCommand = cobra.Command{
	Use:   "files <task id>",
	Short: "List the files generated for a task",
	Long:  "List the files generated for a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		files, err := app.exports.Files(id)
		if err != nil {
			return err
		}
		for _, f := range files {
			cmd.Printf("%s\t%s\t%s\n", f.Type, format.DateTime(f.CreatedAt.Time), f.Filename)
		}
		return nil
	},
}

var TrajectoryRemoveCommand = cobra.Command{
	Use:   "remove <task id> <filename>",
	Short: "Remove a file from the list of a task",
	Long:  "Remove a file from the list of a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		return app.exports.Remove(id, args[1])
	},
}

var TrajectoryClearCommand = cobra.Command{
	Use:   "clear <task id>",
	Short: "Empty the list of files of a task",
	Long:  "Empty the list of files of a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		return app.exports.Clear(id)
	},
}

var TrajectoryPreviewCommand = cobra.Command{
	Use:   "preview <task id> <filename>",
	Short: "Open the preview of a generated file",
	Long:  "Open the preview of a generated file in the browser",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, file, err := generatedFile(args)
		if err != nil {
			return err
		}
		return app.exports.Preview(cmd.Context(), file)
	},
}

var TrajectoryDownloadCommand = cobra.Command{
	Use:   "download <task id> <filename>",
	Short: "Download a generated file",
	Long:  "Download a generated file, or open it in the browser when the download fails",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, file, err := generatedFile(args)
		if err != nil {
			return err
		}
		path, err := app.exports.Download(cmd.Context(), file, outputDir())
		if err != nil {
			return err
		}
		if path != "" {
			cmd.Println(path)
		}
		return nil
	},
}

var TrajectoryRawCommand = cobra.Command{
	Use:   "raw <filename>",
	Short: "Download any file served by the backend",
	Long:  "Download any file served by the generic download endpoint of the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := app.exports.DownloadRaw(cmd.Context(), args[0], outputDir())
		if err != nil {
			return err
		}
		cmd.Println(path)
		return nil
	},
}
