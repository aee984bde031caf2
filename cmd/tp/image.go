package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/upload"
)

var imageFlags struct {
	file           string
	time           string
	location       string
	transportation string
	latitude       string
	longitude      string
	people         []string
}

func init() {
	for _, cmd := range []*cobra.Command{&ImageUploadCommand, &ImagePreviewCommand} {
		cmd.Flags().StringVarP(&imageFlags.file, "file", "f", "", "image file")
		cmd.Flags().StringVar(&imageFlags.time, "time", "", "time the picture was taken, now by default")
		cmd.Flags().StringVarP(&imageFlags.location, "location", "l", "", "location")
		cmd.Flags().StringVar(&imageFlags.transportation, "transportation", "", "transportation")
		cmd.Flags().StringVar(&imageFlags.latitude, "lat", "", "latitude")
		cmd.Flags().StringVar(&imageFlags.longitude, "lng", "", "longitude")
		cmd.Flags().StringArrayVar(&imageFlags.people, "person", nil, "person involved, as name:id_number:household_registration")
	}

	addCommands(&ImageCommand, &ImageUploadCommand, &ImageListCommand, &ImageShowCommand, &ImagePreviewCommand)
	addCommands(&RootCmd, &ImageCommand)
}

// imageForm builds the upload form from the flags.
func imageForm(form *upload.Form) error {
	if imageFlags.file != "" {
		data, err := os.ReadFile(imageFlags.file)
		if err != nil {
			return errors.New("could not read "+imageFlags.file, errors.BadRequest(), errors.WithCause(err))
		}
		form.FileName = filepath.Base(imageFlags.file)
		form.File = data
	}

	if imageFlags.time != "" {
		form.Time = imageFlags.time
	}
	form.Location = imageFlags.location
	form.Transportation = imageFlags.transportation
	form.Latitude = imageFlags.latitude
	form.Longitude = imageFlags.longitude

	if len(imageFlags.people) > 0 {
		form.People = nil
	}
	for _, p := range imageFlags.people {
		parts := strings.SplitN(p, ":", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		form.People = append(form.People, tp.Person{
			Name:                  parts[0],
			IDNumber:              parts[1],
			HouseholdRegistration: parts[2],
		})
	}
	return nil
}

var ImageCommand = cobra.Command{
	Use:              "image",
	Short:            "Upload and list the images of a task",
	Long:             "Upload and list the images of a task",
	PersistentPreRun: authenticated,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var ImageUploadCommand = cobra.Command{
	Use:   "upload <task id>",
	Short: "Upload an image to a task",
	Long:  "Upload an image with its time, location, transportation, GPS and the people involved",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}

		form := app.upload.NewForm()
		if err := imageForm(form); err != nil {
			return err
		}

		if _, _, err := app.tasks.Open(cmd.Context(), id); err != nil {
			return err
		}

		img, err := app.upload.Submit(cmd.Context(), form)
		if err != nil {
			return err
		}
		return printJSON(cmd, img)
	},
}

var ImageListCommand = cobra.Command{
	Use:   "list <task id>",
	Short: "List the images of a task",
	Long:  "List the images of a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := argID(args, 0)
		if err != nil {
			return err
		}

		images, err := app.upload.LoadImages(cmd.Context(), id)
		if err != nil {
			return err
		}
		for _, img := range images {
			gps := ""
			if img.HasGPS() {
				gps = fmt.Sprintf("%v,%v", *img.GPSLatitude, *img.GPSLongitude)
			}
			cmd.Printf("%d\t#%d\t%s\t%s\t%s\t%s\n", img.ID, img.SequenceNumber, img.Time, img.Location, img.Transportation, gps)
		}
		return nil
	},
}

var ImageShowCommand = cobra.Command{
	Use:   "show <image id>",
	Short: "Show the detail of an image",
	Long:  "Show the detail of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.New("invalid image id "+args[0], errors.BadRequest())
		}

		img, err := app.upload.Image(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd, img)
	},
}

var ImagePreviewCommand = cobra.Command{
	Use:   "preview",
	Short: "Render the upload form as HTML without sending it",
	Long:  "Render the upload form as HTML without sending it",
	RunE: func(cmd *cobra.Command, args []string) error {
		form := app.upload.NewForm()
		if err := imageForm(form); err != nil {
			return err
		}
		cmd.Println(string(upload.Preview(form)))
		return nil
	},
}
