// Package platform delivers desktop notifications.
package platform

import "image"

// Notification is one desktop notification about a capture.
type Notification struct {
	Title string
	Body  string
	// Thumbnail is sent inline as pixels where the desktop supports it.
	Thumbnail *image.NRGBA
	// ImagePath names an image file, used when there is no thumbnail.
	ImagePath string
	// Selection is the captured screen rectangle. Desktops that honour
	// position hints show the popup at its centre.
	Selection image.Rectangle
	// Replaces is the ID of an earlier notification this one updates in
	// place; zero opens a new one.
	Replaces uint32
}
