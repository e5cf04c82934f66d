package fileutil_test

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/fileutil"
)

func TestCommit(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	if err := afero.WriteFile(fs, "src/a.txt", []byte("hello"), 0o755); err != nil {
		t.Fatal(err)
	}

	tc, err := fileutil.NewTempContext(fs, "src/a.txt", "out/nested/a.txt.idx")
	if err != nil {
		t.Fatalf("NewTempContext() error: %v", err)
	}

	defer tc.CleanupOnError(&err)

	if !tc.IsExec {
		t.Errorf("IsExec = false for a 0755 source")
	}

	if _, err = tc.TmpFile.Write([]byte("payload")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	modTime := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)

	if err := fs.Chtimes("src/a.txt", modTime, modTime); err != nil {
		t.Fatal(err)
	}

	tc.SrcInfo, _ = fs.Stat("src/a.txt")

	size, err := tc.Commit(true)
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	if size != int64(len("payload")) {
		t.Errorf("size = %d, want %d", size, len("payload"))
	}

	info, _ := fs.Stat("out/nested/a.txt.idx")
	if !info.ModTime().Equal(modTime) {
		t.Errorf("ModTime = %v, want %v", info.ModTime(), modTime)
	}

	if exists, _ := afero.Exists(fs, tc.TmpName); exists {
		t.Errorf("temp file %q still exists after rename", tc.TmpName)
	}
}

func TestCleanupOnError(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	if err := afero.WriteFile(fs, "a.txt", []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	tc, err := fileutil.NewTempContext(fs, "a.txt", "a.txt.idx")
	if err != nil {
		t.Fatalf("NewTempContext() error: %v", err)
	}

	if _, err := tc.TmpFile.Write([]byte("partial")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	failure := errors.New("boom")
	tc.CleanupOnError(&failure)

	if exists, _ := afero.Exists(fs, tc.TmpName); exists {
		t.Errorf("temp file survived a failed write")
	}

	if exists, _ := afero.Exists(fs, "a.txt.idx"); exists {
		t.Errorf("output created by a failed write")
	}
}

func TestMissingSource(t *testing.T) {
	t.Parallel()

	_, err := fileutil.NewTempContext(afero.NewMemMapFs(), "missing", "missing.idx")
	if !crypterr.IsIOError(err) {
		t.Errorf("error = %v, want an IOError", err)
	}
}

// noChtimesFs rejects timestamp changes.
type noChtimesFs struct {
	afero.Fs
}

func (noChtimesFs) Chtimes(string, time.Time, time.Time) error {
	return errors.New("chtimes not permitted")
}

func TestCommitFailureLeavesNoOutput(t *testing.T) {
	t.Parallel()

	fs := noChtimesFs{afero.NewMemMapFs()}

	if err := afero.WriteFile(fs, "a.txt", []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	tc, err := fileutil.NewTempContext(fs, "a.txt", "a.txt.idx")
	if err != nil {
		t.Fatalf("NewTempContext() error: %v", err)
	}

	defer tc.CleanupOnError(&err)

	if _, err = tc.TmpFile.Write([]byte("payload")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	_, err = tc.Commit(true)
	if !crypterr.IsIOError(err) {
		t.Fatalf("Commit() error = %v, want an IOError", err)
	}

	if exists, _ := afero.Exists(fs, "a.txt.idx"); exists {
		t.Errorf("output exists after a failed commit")
	}

	tc.CleanupOnError(&err)

	if exists, _ := afero.Exists(fs, tc.TmpName); exists {
		t.Errorf("temp file survived a failed commit")
	}
}
