package tp

import (
	"strings"
)

type Person struct {
	Name                  string `json:"name"`
	IDNumber              string `json:"id_number"`
	HouseholdRegistration string `json:"household_registration"`
}

// Empty reports whether no field of p is filled in. Empty persons are never sent.
func (p Person) Empty() bool {
	return strings.TrimSpace(p.Name) == "" &&
		strings.TrimSpace(p.IDNumber) == "" &&
		strings.TrimSpace(p.HouseholdRegistration) == ""
}

type Image struct {
	ID             int      `json:"id"`
	TaskID         int      `json:"task_id"`
	SequenceNumber int      `json:"sequence_number"`
	FilePath       string   `json:"file_path"`
	Time           Time     `json:"time"`
	Location       string   `json:"location"`
	Description    string   `json:"description,omitempty"`
	Transportation string   `json:"transportation"`
	GPSLatitude    *float64 `json:"gps_latitude"`
	GPSLongitude   *float64 `json:"gps_longitude"`
	CreatedBy      int      `json:"created_by,omitempty"`
	PeopleInvolved []Person `json:"people_involved"`
}

// HasGPS reports whether both coordinates are known.
func (img Image) HasGPS() bool {
	return img.GPSLatitude != nil && img.GPSLongitude != nil
}
