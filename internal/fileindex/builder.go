package fileindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/raccreative/clawdrop/internal/utils"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const chunkSize = 256 * 1024

var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, chunkSize)
		return &b
	},
}

// Builder computes a FileIndex for a directory tree.
type Builder struct {
	fs      afero.Fs
	workers int
}

type BuilderOption func(*Builder)

// WithHashWorkers caps how many files are hashed at once. Defaults to GOMAXPROCS.
func WithHashWorkers(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

func NewBuilder(fs afero.Fs, opts ...BuilderOption) *Builder {
	b := &Builder{
		fs:      fs,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build indexes root on the OS filesystem.
func Build(ctx context.Context, root string, excludes []string) (*FileIndex, error) {
	return NewBuilder(afero.NewOsFs()).Build(ctx, root, excludes)
}

type candidate struct {
	abs  string
	rel  string
	size int64
}

// Build walks root, skips excluded paths and hashes every remaining regular file.
// The returned index is in canonical path order regardless of walk or hashing order.
func (b *Builder) Build(ctx context.Context, root string, excludes []string) (*FileIndex, error) {
	matcher, err := NewExcludeMatcher(excludes)
	if err != nil {
		return nil, err
	}

	info, err := b.fs.Stat(root)
	if err != nil {
		return nil, syncerr.IO("stat build root", err)
	}
	if !info.IsDir() {
		return nil, syncerr.IO("stat build root", fmt.Errorf("%s is not a directory", root))
	}

	start := time.Now()
	candidates, err := b.collect(ctx, root, matcher)
	if err != nil {
		return nil, err
	}

	records := make([]FileRecord, len(candidates))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.workers)
	for i, c := range candidates {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			rec, err := b.hashFile(c)
			if err != nil {
				return err
			}
			// each goroutine owns exactly one slot
			records[i] = rec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	idx := &FileIndex{Files: records}
	idx.Sort()

	slog.Debug("fileindex built",
		"root", root,
		"files", idx.Len(),
		"size", humanize.IBytes(uint64(idx.TotalSize())),
		"took", time.Since(start),
	)
	return idx, nil
}

// collect is the sequential half of Build: it only lists files, no content is read.
func (b *Builder) collect(ctx context.Context, root string, matcher *ExcludeMatcher) ([]candidate, error) {
	var candidates []candidate

	err := afero.Walk(b.fs, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return syncerr.IO("walk "+path, walkErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := utils.SlashRel(root, path)
		if err != nil {
			return syncerr.IO("relative path", err)
		}
		if rel == "." {
			return nil
		}

		if matcher.Match(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		switch mode := info.Mode(); {
		case mode.IsDir():
		case mode.IsRegular():
			candidates = append(candidates, candidate{abs: path, rel: rel, size: info.Size()})
		default:
			slog.Debug("fileindex skip non-regular file", "path", rel, "mode", mode.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (b *Builder) hashFile(c candidate) (FileRecord, error) {
	f, err := b.fs.Open(c.abs)
	if err != nil {
		return FileRecord{}, syncerr.IO("open "+c.rel, err)
	}
	defer f.Close()

	bufp := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufp)
	buf := *bufp

	h := sha256.New()
	var read int64
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			read += int64(n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return FileRecord{}, syncerr.IO("read "+c.rel, err)
		}
	}

	if read != c.size {
		return FileRecord{}, syncerr.IO("read "+c.rel,
			fmt.Errorf("size changed while hashing: stat reported %d bytes, read %d", c.size, read))
	}

	return FileRecord{
		Path:        c.rel,
		Size:        c.size,
		Hash:        hex.EncodeToString(h.Sum(nil)),
		ContentType: utils.DetectContentType(c.rel),
	}, nil
}
