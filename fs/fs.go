// Package appfs embeds the static assets shipped with the binaries:
// database migrations, email templates and seed data.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/* seed/*.yaml
var FS embed.FS
