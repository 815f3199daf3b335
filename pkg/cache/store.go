package cache

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/CTAG07/Pitcher/pkg/content"
	"github.com/natefinch/atomic"
)

// ErrMiss is returned by Read when a node has no cache entry.
var ErrMiss = errors.New("cache: no entry")

// CachedTrailer is appended to every page served from the cache.
const CachedTrailer = "\n<!-- Cached. -->"

var markerPattern = regexp.MustCompile(`<!-- Pitcher\(([^)]*)\): ([0-9a-f]+) -->\s*$`)

// Marker is the trailing line recording the fingerprint of a cached page.
func Marker(version, fingerprint string) string {
	return "<!-- Pitcher(" + version + "): " + fingerprint + " -->"
}

// UncachedMarker is appended to fresh pages that could not be cached.
func UncachedMarker(version string) string {
	return "<!-- Pitcher(" + version + "). -->"
}

// ParseMarker extracts the version and fingerprint from the marker at the
// end of body.
func ParseMarker(body []byte) (version, fingerprint string, ok bool) {
	m := markerPattern.FindSubmatch(body)
	if m == nil {
		return "", "", false
	}
	return string(m[1]), string(m[2]), true
}

// Entry describes one cache file.
type Entry struct {
	Key         string    `json:"key"`
	Source      string    `json:"source"`
	Fingerprint string    `json:"fingerprint"`
	Version     string    `json:"version"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
}

// Store keeps one file per node in the layout's cache directory.
// Writes replace files atomically, so concurrent readers and writers never
// see a partial entry.
type Store struct {
	layout  content.Layout
	version string
}

// NewStore returns a Store for layout. version is recorded in every marker.
func NewStore(layout content.Layout, version string) *Store {
	return &Store{layout: layout, version: version}
}

// Version returns the version recorded in markers.
func (s *Store) Version() string { return s.version }

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.layout.CachePath() }

// Key returns the cache file name of node: the URL-safe base64 of its
// content file path relative to the site root.
func (s *Store) Key(node *content.Node) string {
	return base64.URLEncoding.EncodeToString([]byte(s.layout.Rel(node.ContentFile)))
}

// Path returns the cache file path of node.
func (s *Store) Path(node *content.Node) string {
	return filepath.Join(s.Dir(), s.Key(node))
}

// Fingerprint computes the current fingerprint of the site's content and
// templates.
func (s *Store) Fingerprint() (string, error) {
	return Fingerprint(s.layout.Root, s.layout.ContentPath(), s.layout.TemplatesPath())
}

// Read returns the stored bytes of node's entry, marker included.
func (s *Store) Read(node *content.Node) ([]byte, error) {
	b, err := os.ReadFile(s.Path(node))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	return b, nil
}

// IsValid reports whether node has an entry recorded with fingerprint.
func (s *Store) IsValid(node *content.Node, fingerprint string) bool {
	b, err := s.Read(node)
	if err != nil {
		return false
	}
	_, fp, ok := ParseMarker(b)
	return ok && fp == fingerprint
}

// Write stores body followed by the fingerprint marker and returns the
// stored bytes.
func (s *Store) Write(node *content.Node, fingerprint string, body []byte) ([]byte, error) {
	stored := make([]byte, 0, len(body)+64)
	stored = append(stored, body...)
	stored = append(stored, '\n')
	stored = append(stored, Marker(s.version, fingerprint)...)

	if err := os.MkdirAll(s.Dir(), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if err := atomic.WriteFile(s.Path(node), bytes.NewReader(stored)); err != nil {
		return nil, fmt.Errorf("write cache entry: %w", err)
	}
	return stored, nil
}

// Entries lists the cache files, sorted by source path.
func (s *Store) Entries() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.Dir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache dir: %w", err)
	}
	var entries []Entry
	for _, d := range dirEntries {
		if d.IsDir() {
			continue
		}
		info, err := d.Info()
		if err != nil {
			return nil, err
		}
		e := Entry{Key: d.Name(), Size: info.Size(), ModTime: info.ModTime()}
		if src, err := base64.URLEncoding.DecodeString(d.Name()); err == nil {
			e.Source = string(src)
		}
		if b, err := os.ReadFile(filepath.Join(s.Dir(), d.Name())); err == nil {
			e.Version, e.Fingerprint, _ = ParseMarker(b)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Source < entries[j].Source })
	return entries, nil
}

// Purge removes every cache file and returns how many were removed.
func (s *Store) Purge() (int, error) {
	dirEntries, err := os.ReadDir(s.Dir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("list cache dir: %w", err)
	}
	n := 0
	for _, d := range dirEntries {
		if d.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir(), d.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return n, fmt.Errorf("remove cache entry %s: %w", d.Name(), err)
		}
		n++
	}
	return n, nil
}
