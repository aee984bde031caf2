package upload

import (
	"strconv"
	"strings"
	"time"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
)

// FormTimeLayout is the layout of the time field, the one of a datetime-local input.
const FormTimeLayout = "2006-01-02T15:04:05"

// Form is the state of the upload form. Fields hold raw user input.
type Form struct {
	FileName string
	File     []byte

	Time           string
	Location       string
	Transportation string
	Latitude       string
	Longitude      string

	People []tp.Person
}

// NewForm returns an empty form with the time set to now and one blank person entry.
func NewForm(now time.Time) *Form {
	f := &Form{}
	f.Reset(now)
	return f
}

func (f *Form) Reset(now time.Time) {
	*f = Form{
		Time:   now.Truncate(time.Second).Format(FormTimeLayout),
		People: []tp.Person{{}},
	}
}

// AddPerson appends a blank person entry.
func (f *Form) AddPerson() {
	f.People = append(f.People, tp.Person{})
}

// RemovePerson drops the entry at i, keeping at least one entry.
func (f *Form) RemovePerson(i int) {
	if i < 0 || i >= len(f.People) {
		return
	}
	f.People = append(f.People[:i], f.People[i+1:]...)
	if len(f.People) == 0 {
		f.People = []tp.Person{{}}
	}
}

// Blank reports whether nothing but the default time was entered.
func (f *Form) Blank() bool {
	return len(f.File) == 0 &&
		strings.TrimSpace(f.Location) == "" &&
		strings.TrimSpace(f.Transportation) == "" &&
		strings.TrimSpace(f.Latitude) == "" &&
		strings.TrimSpace(f.Longitude) == "" &&
		len(f.people()) == 0
}

// people returns the entries with at least one field filled in.
func (f *Form) people() []tp.Person {
	var people []tp.Person
	for _, p := range f.People {
		if !p.Empty() {
			people = append(people, tp.Person{
				Name:                  strings.TrimSpace(p.Name),
				IDNumber:              strings.TrimSpace(p.IDNumber),
				HouseholdRegistration: strings.TrimSpace(p.HouseholdRegistration),
			})
		}
	}
	return people
}

// coordinates parses the optional GPS pair. Both or none must be given.
func (f *Form) coordinates() (lat, lng *float64, err error) {
	rawLat, rawLng := strings.TrimSpace(f.Latitude), strings.TrimSpace(f.Longitude)
	if rawLat == "" && rawLng == "" {
		return nil, nil, nil
	}
	if rawLat == "" || rawLng == "" {
		return nil, nil, errors.New("latitude and longitude must be given together", errors.BadRequest())
	}

	la, err := strconv.ParseFloat(rawLat, 64)
	if err != nil || la < -90 || la > 90 {
		return nil, nil, errors.New("latitude must be a number between -90 and 90", errors.BadRequest())
	}
	lo, err := strconv.ParseFloat(rawLng, 64)
	if err != nil || lo < -180 || lo > 180 {
		return nil, nil, errors.New("longitude must be a number between -180 and 180", errors.BadRequest())
	}
	return &la, &lo, nil
}

// Validate checks the form the way the backend would, before anything is sent.
func (f *Form) Validate() error {
	switch {
	case len(f.File) == 0 || f.FileName == "":
		return errors.New("select an image to upload", errors.BadRequest())
	case strings.TrimSpace(f.Time) == "":
		return errors.New("time is required", errors.BadRequest())
	case strings.TrimSpace(f.Location) == "":
		return errors.New("location is required", errors.BadRequest())
	case strings.TrimSpace(f.Transportation) == "":
		return errors.New("transportation is required", errors.BadRequest())
	}

	_, _, err := f.coordinates()
	return err
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
