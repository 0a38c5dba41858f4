package archive

import (
	"archive/tar"
	"bytes"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/idelchi/shadowenv/internal/container"
	"github.com/idelchi/shadowenv/internal/errors"
	"github.com/idelchi/shadowenv/internal/filter"
	"github.com/idelchi/shadowenv/internal/logging"
)

// readFile loads a source file. Tests replace it to fail reads independently of permissions.
//
//nolint:gochecknoglobals
var readFile = os.ReadFile

// Options controls what Pack leaves out.
type Options struct {
	// Exclude lists paths that must never be archived, typically the container being written.
	// They need not exist yet.
	Exclude []string

	// Filter prunes entries by pattern, matched relative to the root.
	Filter *filter.Filter

	// Logger receives notices about skipped entries. Nil discards them.
	Logger *logging.Logger
}

// Stats counts what Pack wrote and skipped.
type Stats struct {
	Dirs    int
	Files   int
	Skipped int
	Bytes   int64
}

// Pack archives the directory root into a zstd-compressed tar stream.
//
// Entry names are relative to the parent of root, so the archive's top-level entry is
// the root folder itself. Symbolic links are neither followed nor stored, and files with
// the container extension are skipped. Any read failure aborts the whole operation.
func Pack(root string, opts Options) ([]byte, Stats, error) {
	var stats Stats

	base, walkRoot, err := resolveRoot(root)
	if err != nil {
		return nil, stats, err
	}

	excluded, err := canonicalSet(opts.Exclude)
	if err != nil {
		return nil, stats, err
	}

	var buf bytes.Buffer

	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, stats, errors.IO("creating compressor for", root, err)
	}

	tw := tar.NewWriter(enc)

	walkErr := filepath.WalkDir(walkRoot, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.IO("walking", full, err)
		}

		rel, err := filepath.Rel(walkRoot, full)
		if err != nil {
			return errors.IO("resolving", full, err)
		}

		rel = filepath.ToSlash(rel)
		name := path.Join(base, rel)

		if _, skip := excluded[full]; skip {
			opts.Logger.Debugf("excluding %q", full)
			stats.Skipped++

			return skipEntry(d)
		}

		if rel != "." && opts.Filter.Excluded(rel) {
			opts.Logger.Debugf("excluding %q by pattern", rel)
			stats.Skipped++

			return skipEntry(d)
		}

		switch mode := d.Type(); {
		case mode&fs.ModeSymlink != 0:
			opts.Logger.Warnf("skipping symbolic link %q", full)
			stats.Skipped++

			return nil
		case d.IsDir():
			stats.Dirs++

			return addDir(tw, full, name)
		case !mode.IsRegular():
			opts.Logger.Warnf("skipping special file %q", full)
			stats.Skipped++

			return nil
		case strings.EqualFold(filepath.Ext(full), container.Extension):
			opts.Logger.Debugf("skipping container file %q", full)
			stats.Skipped++

			return nil
		}

		size, err := addFile(tw, full, name)
		if err != nil {
			return err
		}

		stats.Files++
		stats.Bytes += size

		return nil
	})
	if walkErr != nil {
		enc.Close() //nolint:errcheck,gosec // output is discarded

		return nil, Stats{}, walkErr
	}

	if err := tw.Close(); err != nil {
		enc.Close() //nolint:errcheck,gosec // output is discarded

		return nil, Stats{}, errors.IO("finishing archive of", root, err)
	}

	if err := enc.Close(); err != nil {
		return nil, Stats{}, errors.IO("finishing compression of", root, err)
	}

	return buf.Bytes(), stats, nil
}

// resolveRoot validates root and returns the archive name of the root folder
// together with the canonical path to walk.
func resolveRoot(root string) (base, walkRoot string, err error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", "", errors.PathSafety(root, "cannot resolve absolute path")
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", errors.PathSafety(root, "source directory does not exist")
		}

		return "", "", errors.IO("stat", root, err)
	}

	if !info.IsDir() {
		return "", "", errors.PathSafety(root, "source is not a directory")
	}

	base = filepath.Base(abs)
	if base == string(filepath.Separator) || base == "." || base == ".." {
		return "", "", errors.PathSafety(root, "cannot archive the filesystem root")
	}

	walkRoot, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", "", errors.IO("resolving", root, err)
	}

	return base, walkRoot, nil
}

// canonicalSet resolves paths the same way walked paths are resolved, so membership
// does not depend on how the caller spelled them. The final element may not exist yet.
func canonicalSet(paths []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(paths))

	for _, p := range paths {
		if p == "" {
			continue
		}

		canon, err := canonical(p)
		if err != nil {
			return nil, err
		}

		set[canon] = struct{}{}
	}

	return set, nil
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.IO("resolving", p, err)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		// Nothing under a missing directory can be walked either.
		return abs, nil //nolint:nilerr
	}

	return filepath.Join(dir, filepath.Base(abs)), nil
}

func skipEntry(d fs.DirEntry) error {
	if d.IsDir() {
		return fs.SkipDir
	}

	return nil
}

func addDir(tw *tar.Writer, full, name string) error {
	info, err := os.Lstat(full)
	if err != nil {
		return errors.IO("stat", full, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return errors.IO("creating tar header for", full, err)
	}

	normalizeHeader(header, name+"/")

	if err := tw.WriteHeader(header); err != nil {
		return errors.IO("writing tar header for", full, err)
	}

	return nil
}

func addFile(tw *tar.Writer, full, name string) (int64, error) {
	data, err := readFile(full)
	if err != nil {
		return 0, errors.IO("reading", full, err)
	}

	info, err := os.Lstat(full)
	if err != nil {
		return 0, errors.IO("stat", full, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return 0, errors.IO("creating tar header for", full, err)
	}

	normalizeHeader(header, name)
	header.Size = int64(len(data))

	if err := tw.WriteHeader(header); err != nil {
		return 0, errors.IO("writing tar header for", full, err)
	}

	if _, err := tw.Write(data); err != nil {
		return 0, errors.IO("writing contents of", full, err)
	}

	return header.Size, nil
}

// normalizeHeader drops owner information and fixes the format,
// so archives do not leak local account names.
func normalizeHeader(header *tar.Header, name string) {
	header.Name = name
	header.Uid, header.Gid = 0, 0
	header.Uname, header.Gname = "", ""
	header.Format = tar.FormatPAX
	header.AccessTime, header.ChangeTime = time.Time{}, time.Time{}
}
