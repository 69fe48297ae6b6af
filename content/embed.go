// Package content holds the built-in course: the level catalog, one YAML
// file per lesson and the cheat sheet.
package content

import "embed"

//go:embed catalog.yaml cheatsheet.yaml lessons/*.yaml
var FS embed.FS
