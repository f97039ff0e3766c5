// Package ledger records the publisher's last-modified timestamps for what
// has already been mirrored, so unchanged artifacts are not fetched again.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
)

// PackageFileKey is the format name under which the package archive itself is tracked.
const PackageFileKey = "package"

// Entry is the ledger of one sitemap: the sitemap's own lastmod plus, for
// each package it lists, the lastmod at which each format was last written.
type Entry struct {
	mu       sync.Mutex
	Lastmod  string                   `yaml:"lastmod,omitempty"`
	Packages map[string]*PackageEntry `yaml:"packages,omitempty"`
}

type PackageEntry struct {
	Files map[string]string `yaml:"files,omitempty"`
}

// Load reads the ledger at path. A missing file yields an empty entry.
func Load(path string) (*Entry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path derived from sitemap layout
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Entry{}, nil
		}
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	return &e, nil
}

// Save writes the ledger atomically.
func (e *Entry) Save(path string) error {
	e.mu.Lock()
	data, err := yaml.Marshal(e)
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return artifacts.WriteFileAtomic(path, data)
}

func (e *Entry) SitemapLastmod() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Lastmod
}

func (e *Entry) SetSitemapLastmod(ts string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Lastmod = ts
}

// FileLastmod returns the timestamp recorded for one format of a package.
func (e *Entry) FileLastmod(pkg, format string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.Packages[pkg]
	if !ok || p.Files == nil {
		return "", false
	}
	ts, ok := p.Files[format]
	return ts, ok
}

func (e *Entry) SetFileLastmod(pkg, format, ts string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Packages == nil {
		e.Packages = make(map[string]*PackageEntry)
	}
	p, ok := e.Packages[pkg]
	if !ok {
		p = &PackageEntry{}
		e.Packages[pkg] = p
	}
	if p.Files == nil {
		p.Files = make(map[string]string)
	}
	p.Files[format] = ts
}

// ClearPackage forgets everything recorded for pkg.
func (e *Entry) ClearPackage(pkg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.Packages, pkg)
}

// PackageNames lists tracked packages in sorted order.
func (e *Entry) PackageNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.Packages))
	for name := range e.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadLastmod reads a sibling -lastmod.txt file.
func ReadLastmod(path string) (string, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path derived from layout
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

func WriteLastmod(path, ts string) error {
	return artifacts.WriteFileAtomic(path, []byte(ts))
}
