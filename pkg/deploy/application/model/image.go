package model

type Image struct {
	Component Component
	Reference string
}

type PublishedImage struct {
	Image
	Digest   string
	Attempts int
}
