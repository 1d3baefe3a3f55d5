package server

import (
	"context"

	"github.com/jonathan/form-filler/internal/browser"
	"github.com/jonathan/form-filler/internal/dom"
)

// LivePage is a page that can be filled and then serialized.
type LivePage interface {
	dom.Page
	HTML() (string, error)
}

// PageOpener opens url for a live fill. The returned func releases the page.
type PageOpener func(ctx context.Context, url string) (LivePage, func(), error)

// BrowserPages opens each URL in its own headless browser session.
func BrowserPages(opts browser.Options) PageOpener {
	return func(ctx context.Context, url string) (LivePage, func(), error) {
		session, err := browser.Launch(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		page, err := session.Open(url)
		if err != nil {
			session.Close()
			return nil, nil, err
		}
		return page, session.Close, nil
	}
}
