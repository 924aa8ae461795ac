package domain

// BatchImage is one entry of a batch's ordered image listing.
type BatchImage struct {
	ImageID  string
	ImageURL string
}
