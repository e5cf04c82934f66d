// Package fileutil provides shared file operation helpers.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/idelchi/idxcrypt/internal/crypterr"
)

const (
	ownerReadWrite = 0o600
	executableBits = 0o111
	dirPerm        = 0o750
)

// TempContext holds state for an atomic file write operation.
type TempContext struct {
	fs      afero.Fs
	SrcInfo os.FileInfo
	IsExec  bool
	TmpFile afero.File
	TmpName string
	OutPath string

	closed bool
}

// NewTempContext stats the source file and creates a temp file next to outPath.
// Missing parent directories of outPath are created.
// Caller must defer CleanupOnError.
func NewTempContext(fs afero.Fs, filename, outPath string) (*TempContext, error) {
	info, err := fs.Stat(filename)
	if err != nil {
		return nil, crypterr.NewIOError("stat", filename, err)
	}

	if info.IsDir() {
		return nil, crypterr.NewIOError("open", filename, fmt.Errorf("is a directory"))
	}

	dir := filepath.Dir(outPath)

	if err := fs.MkdirAll(dir, dirPerm); err != nil {
		return nil, crypterr.NewIOError("mkdir", dir, err)
	}

	tmpFile, err := afero.TempFile(fs, dir, ".tmp-*")
	if err != nil {
		return nil, crypterr.NewIOError("create", dir, err)
	}

	return &TempContext{
		fs:      fs,
		SrcInfo: info,
		IsExec:  info.Mode()&executableBits != 0,
		TmpFile: tmpFile,
		TmpName: tmpFile.Name(),
		OutPath: outPath,
	}, nil
}

// CleanupOnError closes the temp file and removes it if the write failed.
func (tc *TempContext) CleanupOnError(errp *error) {
	if !tc.closed {
		tc.TmpFile.Close() //nolint:errcheck,gosec // best-effort cleanup
	}

	if *errp != nil {
		tc.fs.Remove(tc.TmpName) //nolint:errcheck,gosec // best-effort cleanup
	}
}

// Commit sets owner-only permissions (keeping the executable bit of the source),
// closes the temp file, optionally copies the source modification time onto it and
// renames it onto OutPath. It returns the size of the committed output. The rename is
// the last step, so OutPath is untouched whenever Commit fails.
func (tc *TempContext) Commit(preserveTimestamps bool) (int64, error) {
	perm := os.FileMode(ownerReadWrite)

	if tc.IsExec {
		perm |= executableBits
	}

	if err := tc.fs.Chmod(tc.TmpName, perm); err != nil {
		return 0, crypterr.NewIOError("chmod", tc.TmpName, err)
	}

	tc.closed = true

	if err := tc.TmpFile.Close(); err != nil {
		return 0, crypterr.NewIOError("close", tc.TmpName, err)
	}

	if preserveTimestamps {
		modTime := tc.SrcInfo.ModTime()

		if err := tc.fs.Chtimes(tc.TmpName, modTime, modTime); err != nil {
			return 0, crypterr.NewIOError("chtimes", tc.TmpName, err)
		}
	}

	info, err := tc.fs.Stat(tc.TmpName)
	if err != nil {
		return 0, crypterr.NewIOError("stat", tc.TmpName, err)
	}

	if err := tc.fs.Rename(tc.TmpName, tc.OutPath); err != nil {
		return 0, crypterr.NewIOError("rename", tc.OutPath, err)
	}

	return info.Size(), nil
}
