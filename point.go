package tp

// Point is one position of a GPS track. Index is the 1-based position of the point in
// its source.
type Point struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	Time        string  `json:"time,omitempty"`
	Location    string  `json:"location,omitempty"`
	Description string  `json:"description,omitempty"`
	Index       int     `json:"index"`
}
