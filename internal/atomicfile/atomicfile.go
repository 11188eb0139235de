// Package atomicfile replaces files so that readers see either the old
// content or the complete new content, never a partial write.
package atomicfile

import (
	"io"
	"os"
	"path/filepath"

	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
)

// WriteFile streams content produced by write into a temporary file next to
// path, syncs it, renames it over path, and syncs the directory so the rename
// itself survives a power loss.
func WriteFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapPersistence("mkdir", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapPersistence("create", path, err)
	}
	tempPath := tempFile.Name()
	defer func() { _ = os.Remove(tempPath) }()

	if err := write(tempFile); err != nil {
		_ = tempFile.Close()
		return errors.WrapPersistence("write", path, err)
	}
	if err := tempFile.Chmod(constants.FilePermissions); err != nil {
		_ = tempFile.Close()
		return errors.WrapPersistence("chmod", path, err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return errors.WrapPersistence("sync", path, err)
	}
	if err := tempFile.Close(); err != nil {
		return errors.WrapPersistence("close", path, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return errors.WrapPersistence("rename", path, err)
	}
	if err := syncDir(dir); err != nil {
		return errors.WrapPersistence("sync", dir, err)
	}
	return nil
}

// syncDir flushes the directory entry table of dir.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()
	return d.Sync()
}

// Write replaces path with data.
func Write(path string, data []byte) error {
	return WriteFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Remove deletes path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.WrapPersistence("delete", path, err)
	}
	return nil
}
