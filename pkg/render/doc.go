// Package render answers page requests: it resolves the path, validates the
// client's ETag and the on-disk cache against the site fingerprint, and
// renders and caches the page when neither is current.
package render
