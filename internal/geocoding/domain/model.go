package domain

// Candidate is one place a free-text query may refer to.
type Candidate struct {
	ID          string  `json:"id"`
	City        string  `json:"city"`
	Nation      *string `json:"nation"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	TZ          *string `json:"tz"`
	DisplayName string  `json:"displayName"`
}
