// Package dashboard provides the embedded walk-in page.
//
// The page is compiled into the binary so the walkin server needs no
// external asset files. It is served by the server package at "/", which
// substitutes the configured title before writing it out.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the walk-in page.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Walk-in list with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
