package resources

import "embed"

//go:embed migrations i18n lockreasons.yml
var FS embed.FS
