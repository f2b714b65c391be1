// Package manifest walks a photo tree, extracts one record per image and
// writes the sorted result as a JSON manifest.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ankit-chaubey/photo-manifest/core"
	"github.com/ankit-chaubey/photo-manifest/core/image"
	"github.com/ankit-chaubey/photo-manifest/core/pipeline"
)

// Entry is one manifest row: file facts plus the flattened record.
type Entry struct {
	RelativePath string `json:"relativePath"`
	Filename     string `json:"filename"`
	Year         *int   `json:"year"`
	Month        *int   `json:"month"`
	Day          *int   `json:"day"`
	Slug         string `json:"slug"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"fileSize"`
	LastModified string `json:"lastModified"`
	core.Record
}

// Manifest is the outcome of a Build.
type Manifest struct {
	Entries   []Entry
	Processed int
	Skipped   int
}

// Builder runs the extraction over a directory tree.
type Builder struct {
	settings Settings
	cfg      core.Config
	logger   *zap.Logger
	open     func(path string, logger *zap.Logger) (*core.Source, error)
}

// New validates s and returns a Builder. A nil logger discards output.
func New(s Settings, logger *zap.Logger) (*Builder, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest settings: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		settings: s,
		cfg:      s.Config(),
		logger:   logger,
		open:     image.Open,
	}, nil
}

// Scan lists every supported image under root in lexical order.
func Scan(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !core.IsImageExt(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return paths, nil
}

// Build extracts every image under the root. A failing image is logged and
// skipped; only a scan error or cancellation of ctx aborts the run.
func (b *Builder) Build(ctx context.Context) (Manifest, error) {
	var m Manifest
	paths, err := b.Scan()
	if err != nil {
		return m, err
	}
	b.logger.Info("scanning for images",
		zap.String("root", b.settings.Root),
		zap.Int("candidates", len(paths)),
		zap.Int("workers", b.settings.Workers))

	results := make([]*Entry, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.settings.Workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := b.entry(path)
			if err != nil {
				b.logger.Warn("skipping image", zap.String("path", path), zap.Error(err))
				return nil
			}
			results[i] = &e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return m, err
	}
	if err := ctx.Err(); err != nil {
		return m, err
	}

	for _, e := range results {
		if e == nil {
			m.Skipped++
			continue
		}
		m.Entries = append(m.Entries, *e)
	}
	m.Processed = len(m.Entries)
	Sort(m.Entries)
	return m, nil
}

// Scan lists the images under the configured root.
func (b *Builder) Scan() ([]string, error) {
	return Scan(b.settings.Root)
}

// Run builds the manifest and writes it to the configured output file.
func (b *Builder) Run(ctx context.Context) (Manifest, error) {
	m, err := b.Build(ctx)
	if err != nil {
		return m, err
	}
	if err := WriteFile(b.settings.Output, m.Entries); err != nil {
		return m, err
	}
	b.logger.Info("manifest written",
		zap.String("output", b.settings.Output),
		zap.Int("processed", m.Processed),
		zap.Int("skipped", m.Skipped))
	return m, nil
}

func (b *Builder) entry(path string) (Entry, error) {
	rel, err := filepath.Rel(b.settings.Root, path)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}
	src, err := b.open(path, b.logger)
	if err != nil {
		return Entry{}, err
	}

	res := pipeline.Extract(src, b.cfg)
	if degraded := res.Degraded(); len(degraded) > 0 {
		b.logger.Debug("fields degraded",
			zap.String("path", path),
			zap.Error(pipeline.Result{Issues: degraded}.Err()))
	}

	rel = filepath.ToSlash(rel)
	e := Entry{
		RelativePath: rel,
		Filename:     filepath.Base(path),
		Slug:         Slug(rel),
		Width:        src.Width,
		Height:       src.Height,
		FileSize:     info.Size(),
		LastModified: info.ModTime().UTC().Format(time.RFC3339),
		Record:       res.Record,
	}
	e.Year, e.Month, e.Day = PathDate(rel)
	return e, nil
}

// PathDate reads year, month and day from a "YYYY/MM/DD/name" relative path.
// All three are absent unless the path has at least four parts and the first
// three are numbers.
func PathDate(rel string) (year, month, day *int) {
	parts := strings.Split(rel, "/")
	if len(parts) < 4 {
		return nil, nil, nil
	}
	nums := make([]int, 3)
	for i := range nums {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return nil, nil, nil
		}
		nums[i] = n
	}
	return &nums[0], &nums[1], &nums[2]
}

// Slug is the relative path without its extension, separators replaced by
// "-".
func Slug(rel string) string {
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(rel, "/", "-")
}

// Sort orders entries by capture time, newest first. Entries without a date
// go last; ties fall back to the relative path.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].DateTaken, entries[j].DateTaken
		switch {
		case a != nil && b != nil && !a.Equal(b.Time):
			return a.After(b.Time)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return entries[i].RelativePath < entries[j].RelativePath
	})
}

// WriteJSON encodes entries as an indented JSON array. An empty manifest is
// written as [].
func WriteJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(entries)
}

// WriteFile writes the manifest to path, creating parent directories.
func WriteFile(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, entries); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
