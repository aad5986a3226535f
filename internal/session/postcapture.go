package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
)

// Persister stores a finished image and returns its storage identifier.
type Persister interface {
	Persist(ctx context.Context, img *image.RGBA, md Metadata) (string, error)
}

// Clipboard receives a copy of the finished image.
type Clipboard interface {
	WriteImage(img *image.RGBA) error
}

// Notifier reports completed actions to the user.
type Notifier interface {
	Captured(final FinalImage, md Metadata)
	Saved(final FinalImage, md Metadata, path string)
	Copied(final FinalImage, md Metadata)
}

// PostCapture runs the optional actions after a session finishes. Nil
// collaborators are skipped.
type PostCapture struct {
	Persister Persister
	Clipboard Clipboard
	Notifier  Notifier
}

// Outcome reports what PostCapture did.
type Outcome struct {
	Path   string
	Copied bool
}

// Run saves, copies and notifies in that order. A failed save does not stop
// the copy; every failure is returned joined.
func (p PostCapture) Run(ctx context.Context, final FinalImage, md Metadata) (Outcome, error) {
	var out Outcome
	if final.Image == nil {
		return out, fmt.Errorf("post-capture: %w", ErrClosed)
	}
	if p.Notifier != nil {
		p.Notifier.Captured(final, md)
	}
	var errs []error
	if p.Persister != nil {
		path, err := p.Persister.Persist(ctx, final.Image, md)
		if err != nil {
			errs = append(errs, fmt.Errorf("save: %w", err))
		} else {
			out.Path = path
			log.Printf("saved %s", path)
			if p.Notifier != nil {
				p.Notifier.Saved(final, md, path)
			}
		}
	}
	if p.Clipboard != nil {
		if err := p.Clipboard.WriteImage(final.Image); err != nil {
			errs = append(errs, fmt.Errorf("copy: %w", err))
		} else {
			out.Copied = true
			if p.Notifier != nil {
				p.Notifier.Copied(final, md)
			}
		}
	}
	return out, errors.Join(errs...)
}
