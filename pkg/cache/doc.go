// Package cache stores rendered pages on disk together with the fingerprint
// of the site they were rendered from. An entry is valid while the site's
// current fingerprint matches the one recorded in its trailing marker.
package cache
