package cache

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// Fingerprint hashes the relative path and modification time of every file
// and directory below dirs, in lexical walk order. Paths are taken relative
// to root so that moving a site does not change its fingerprint. Missing
// directories contribute nothing.
func Fingerprint(root string, dirs ...string) (string, error) {
	h := md5.New()
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir && errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if path == dir {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			_, err = fmt.Fprintf(h, "%s:%d\n", filepath.ToSlash(rel), info.ModTime().UnixNano())
			return err
		})
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", dir, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
