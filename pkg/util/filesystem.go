package util

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func RemoveDirectory(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return err
	}
	for _, file := range files {
		err = os.RemoveAll(file)
		if err != nil {
			return err
		}
	}
	return os.RemoveAll(dir)
}

// CopyFile copies a single file preserving its mode, creating parent directories
// of the target when necessary.
func CopyFile(from string, to string) error {
	info, err := os.Stat(from)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", from)
	}
	if err := os.MkdirAll(filepath.Dir(to), os.ModePerm); err != nil {
		return errors.Wrapf(err, "failed to create parent dir for %s", to)
	}
	src, err := os.Open(from)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", from)
	}
	defer src.Close()
	dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", to)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrapf(err, "failed to copy %s to %s", from, to)
	}
	return dst.Close()
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
