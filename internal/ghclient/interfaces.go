// Package ghclient fetches repository activity and discovers active
// repositories through the GitHub REST API.
package ghclient

import (
	"github.com/spiffcs/ghreport/internal/pipeline"
	"github.com/spiffcs/ghreport/internal/tracker"
)

// Ensure Client implements the collaborator interfaces it is wired into.
var (
	_ pipeline.ActivitySource = (*Client)(nil)
	_ tracker.Discoverer      = (*Client)(nil)
)
