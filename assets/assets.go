// Package assets embeds the web viewer served by the server command.
package assets

//go:generate go run ../cmd/minify -d .

import _ "embed"

// Index is the minified viewer page built by cmd/minify.
//
//go:embed index.html
var Index []byte

// Favicon is the site icon.
//
//go:embed favicon.svg
var Favicon []byte
