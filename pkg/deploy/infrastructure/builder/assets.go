package builder

import (
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// CopyCompressed mirrors the regular files of from into to and writes a
// gzip-compressed sibling <file>.gz next to each copy, the layout nginx
// gzip_static serves. Files already ending in .gz are copied as is.
func CopyCompressed(from, to string) (int, error) {
	info, err := os.Stat(from)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to stat asset directory %v", from)
	}
	if !info.IsDir() {
		return 0, errors.Errorf("asset source %v is not a directory", from)
	}
	compressed := 0
	err = filepath.WalkDir(from, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		target := filepath.Join(to, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if err = copyFile(path, target); err != nil {
			return err
		}
		if strings.HasSuffix(path, ".gz") {
			return nil
		}
		compressed++
		return gzipFile(path, target+".gz")
	})
	if err != nil {
		return compressed, errors.Wrapf(err, "failed to copy assets from %v", from)
	}
	return compressed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	zw, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		out.Close()
		return err
	}
	zw.Name = filepath.Base(src)
	_, err = io.Copy(zw, in)
	if closeErr := zw.Close(); err == nil {
		err = closeErr
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}
