package content

import (
	"net/url"
	"strings"
)

const (
	playgroundBase       = "https://play.rust-lang.org/"
	DefaultMaxURLLength  = 8000
	defaultPlaygroundVer = "stable"
	defaultPlaygroundMod = "debug"
	defaultEdition       = "2021"
)

// PlaygroundOptions tunes the generated link. Zero values fall back to
// stable / debug / 2021 and DefaultMaxURLLength.
type PlaygroundOptions struct {
	Version      string
	Mode         string
	Edition      string
	MaxURLLength int
}

// PlaygroundURL builds a Rust Playground link that runs code. It returns false
// for blank code or when the encoded link would exceed the length limit.
func PlaygroundURL(code string, opts PlaygroundOptions) (string, bool) {
	if strings.TrimSpace(code) == "" {
		return "", false
	}
	if opts.Version == "" {
		opts.Version = defaultPlaygroundVer
	}
	if opts.Mode == "" {
		opts.Mode = defaultPlaygroundMod
	}
	if opts.Edition == "" {
		opts.Edition = defaultEdition
	}
	if opts.MaxURLLength <= 0 {
		opts.MaxURLLength = DefaultMaxURLLength
	}

	q := url.Values{}
	q.Set("version", opts.Version)
	q.Set("mode", opts.Mode)
	q.Set("edition", opts.Edition)
	q.Set("code", code)

	link := playgroundBase + "?" + q.Encode()
	if len(link) > opts.MaxURLLength {
		return "", false
	}
	return link, true
}
