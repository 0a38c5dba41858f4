package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/idelchi/shadowenv/internal/errors"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Entry describes one archived item.
type Entry struct {
	Name string      `yaml:"name"`
	Dir  bool        `yaml:"dir,omitempty"`
	Size int64       `yaml:"size,omitempty"`
	Mode fs.FileMode `yaml:"-"`
}

// List returns the entries of stream without extracting anything.
// It fails on the same unsafe entries Unpack rejects.
func List(stream []byte) ([]Entry, error) {
	var entries []Entry

	err := walkStream(stream, func(hdr *tar.Header, _ *tar.Reader) error {
		entry, err := checkEntry(hdr)
		if err != nil {
			return err
		}

		entries = append(entries, entry)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Unpack recreates the archived tree under dest, creating dest if absent.
//
// Every entry is validated before anything is written: names that are absolute,
// contain "..", or are not plain files or directories fail the whole call with
// errors.ErrPathSafety. Existing files at conflicting paths are overwritten.
// A failure while writing leaves whatever was already extracted in place.
func Unpack(stream []byte, dest string) error {
	if _, err := List(stream); err != nil {
		return err
	}

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return errors.IO("resolving", dest, err)
	}

	if err := os.MkdirAll(absDest, dirPerm); err != nil {
		return errors.IO("creating destination", absDest, err)
	}

	return walkStream(stream, func(hdr *tar.Header, tr *tar.Reader) error {
		entry, err := checkEntry(hdr)
		if err != nil {
			return err
		}

		target, err := resolveTarget(absDest, entry.Name)
		if err != nil {
			return err
		}

		if entry.Dir {
			if err := os.MkdirAll(target, entry.Mode|0o700); err != nil {
				return errors.IO("creating directory", target, err)
			}

			return nil
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return errors.Format("reading archived file %q: %v", entry.Name, err)
		}

		if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
			return errors.IO("creating directory", filepath.Dir(target), err)
		}

		return writeFile(target, data, entry.Mode|0o600)
	})
}

// walkStream decompresses stream and calls fn for every tar header in order.
func walkStream(stream []byte, fn func(*tar.Header, *tar.Reader) error) error {
	dec, err := zstd.NewReader(bytes.NewReader(stream), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return errors.Format("opening compressed stream: %v", err)
	}
	defer dec.Close()

	tr := tar.NewReader(dec)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}

		// The header is still returned and checkEntry reports the unsafe name.
		if errors.Is(err, tar.ErrInsecurePath) {
			err = nil
		}

		if err != nil {
			return errors.Format("reading archive: %v", err)
		}

		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}

// checkEntry validates a header's name and type without touching the filesystem.
func checkEntry(hdr *tar.Header) (Entry, error) {
	name := hdr.Name

	if name == "" || strings.ContainsRune(name, 0) {
		return Entry{}, errors.PathSafety(name, "empty or malformed entry name")
	}

	if path.IsAbs(name) || filepath.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return Entry{}, errors.PathSafety(name, "absolute entry name")
	}

	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return Entry{}, errors.PathSafety(name, "entry name escapes destination")
		}
	}

	clean := path.Clean(name)
	if clean == "." {
		return Entry{}, errors.PathSafety(name, "entry name resolves to destination itself")
	}

	mode := hdr.FileInfo().Mode().Perm()

	switch hdr.Typeflag {
	case tar.TypeDir:
		return Entry{Name: clean, Dir: true, Mode: mode}, nil
	case tar.TypeReg, tar.TypeRegA: //nolint:staticcheck // TypeRegA appears in archives from older writers
		return Entry{Name: clean, Size: hdr.Size, Mode: mode}, nil
	default:
		return Entry{}, errors.PathSafety(name, "unsupported entry type")
	}
}

// resolveTarget joins name onto dest and verifies the result stays inside dest
// without passing through a symbolic link already present on disk.
func resolveTarget(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))

	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.PathSafety(name, "entry name escapes destination")
	}

	current := dest

	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)

		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}

		if err != nil {
			return "", errors.IO("stat", current, err)
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			return "", errors.PathSafety(name, "entry would be written through a symbolic link")
		}
	}

	return target, nil
}

func writeFile(target string, data []byte, perm fs.FileMode) error {
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm) //nolint:gosec // target validated by resolveTarget
	if err != nil {
		return errors.IO("creating file", target, err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close() //nolint:errcheck,gosec // the write error is reported

		return errors.IO("writing file", target, err)
	}

	if err := file.Close(); err != nil {
		return errors.IO("closing file", target, err)
	}

	return nil
}
