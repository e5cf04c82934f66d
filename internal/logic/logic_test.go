package logic_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/idelchi/idxcrypt/internal/config"
	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/encryption"
	"github.com/idelchi/idxcrypt/internal/logic"
)

type streams struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newEnv(fs afero.Fs) (logic.Env, *streams) {
	s := &streams{}

	return logic.Env{FS: fs, Stdout: &s.stdout, Stderr: &s.stderr}, s
}

func newConfig(decrypt bool, files ...string) *config.Config {
	return &config.Config{
		Password:   "correct horse",
		Hash:       "sha256",
		Iterations: 3,
		Parallel:   2,
		LogFormat:  "human",
		NoSelftest: true,
		Decrypt:    decrypt,
		Files:      files,
	}
}

func seed(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()

	for name, content := range files {
		if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

func read(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()

	data, err := afero.ReadFile(fs, name)
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}

	return string(data)
}

func exists(t *testing.T, fs afero.Fs, name string) bool {
	t.Helper()

	ok, err := afero.Exists(fs, name)
	if err != nil {
		t.Fatalf("stat %s: %v", name, err)
	}

	return ok
}

func TestRunRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	files := map[string]string{
		"data/a.txt":     "alpha",
		"data/sub/b.bin": strings.Repeat("b", 70000),
		"data/empty":     "",
	}
	seed(t, fs, files)

	env, out := newEnv(fs)

	cfg := newConfig(false, "data")
	cfg.Delete = true
	cfg.Stats = true

	if err := logic.Run(context.Background(), cfg, env); err != nil {
		t.Fatalf("encrypt: %v\n%s", err, out.stderr.String())
	}

	for name, content := range files {
		if exists(t, fs, name) {
			t.Errorf("%s was not deleted", name)
		}

		size := int64(len(read(t, fs, name+encryption.Extension)))
		if want := encryption.EncryptedSize(cfg.Algorithm(), int64(len(content))); size != want {
			t.Errorf("%s: container size = %d, want %d", name, size, want)
		}
	}

	if !strings.Contains(out.stderr.String(), "Processed: 3") {
		t.Errorf("stats missing from stderr: %q", out.stderr.String())
	}

	env, out = newEnv(fs)

	cfg = newConfig(true, "data")
	cfg.Delete = true

	if err := logic.Run(context.Background(), cfg, env); err != nil {
		t.Fatalf("decrypt: %v\n%s", err, out.stderr.String())
	}

	for name, content := range files {
		if got := read(t, fs, name); got != content {
			t.Errorf("%s: round trip mismatch", name)
		}

		if exists(t, fs, name+encryption.Extension) {
			t.Errorf("%s%s was not deleted", name, encryption.Extension)
		}
	}
}

func TestDecryptSelectsContainersOnly(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{"dir/secret.txt": "top secret"})

	env, _ := newEnv(fs)
	if err := logic.Run(context.Background(), newConfig(false, "dir/secret.txt"), env); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	seed(t, fs, map[string]string{"dir/secret.txt": "stale", "dir/notes.md": "plain"})

	env, out := newEnv(fs)
	if err := logic.Run(context.Background(), newConfig(true, "dir"), env); err != nil {
		t.Fatalf("decrypt: %v\n%s", err, out.stderr.String())
	}

	if got := read(t, fs, "dir/secret.txt"); got != "top secret" {
		t.Errorf("decrypted = %q", got)
	}

	if got := read(t, fs, "dir/notes.md"); got != "plain" {
		t.Errorf("unrelated file changed: %q", got)
	}

	if strings.Contains(out.stdout.String(), "notes.md") {
		t.Errorf("notes.md was processed: %q", out.stdout.String())
	}
}

func TestRunWrongPassword(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{"f.txt": "payload"})

	env, _ := newEnv(fs)
	if err := logic.Run(context.Background(), newConfig(false, "f.txt"), env); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if err := fs.Remove("f.txt"); err != nil {
		t.Fatal(err)
	}

	cfg := newConfig(true, "f.txt.idx")
	cfg.Password = "wrong"

	env, out := newEnv(fs)

	err := logic.Run(context.Background(), cfg, env)
	if !errors.Is(err, encryption.ErrFilesFailed) || !errors.Is(err, crypterr.ErrWrongPasswordOrCorruptFile) {
		t.Fatalf("Run() error = %v", err)
	}

	if exists(t, fs, "f.txt") {
		t.Errorf("partial output left behind")
	}

	if !strings.Contains(out.stderr.String(), "f.txt.idx") {
		t.Errorf("failure not reported: %q", out.stderr.String())
	}
}

func TestRunOutputDir(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{"src/x/y.txt": "nested"})

	cfg := newConfig(false, "src")
	cfg.Output = "out"

	env, _ := newEnv(fs)
	if err := logic.Run(context.Background(), cfg, env); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if !exists(t, fs, "out/src/x/y.txt.idx") {
		t.Errorf("mirrored output missing")
	}

	if !exists(t, fs, "src/x/y.txt") {
		t.Errorf("input removed without --delete")
	}
}

func TestDryRun(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{"d/a": "1234", "d/b": "5678"})

	cfg := newConfig(false, "d")
	cfg.Dry = true
	cfg.Stats = true
	cfg.Password = ""

	env, out := newEnv(fs)
	if err := logic.Run(context.Background(), cfg, env); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := strings.Count(out.stdout.String(), "Would process"); got != 2 {
		t.Errorf("listed %d files, want 2: %q", got, out.stdout.String())
	}

	if exists(t, fs, "d/a.idx") {
		t.Errorf("dry run wrote output")
	}

	if !strings.Contains(out.stderr.String(), "dry run") {
		t.Errorf("stats missing: %q", out.stderr.String())
	}
}

func TestPasswordSources(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{"p.txt": "hello", "pw": "correct horse\r\n"})

	cfg := newConfig(false, "p.txt")
	cfg.Password = ""
	cfg.PasswordFile = "pw"

	env, _ := newEnv(fs)
	if err := logic.Run(context.Background(), cfg, env); err != nil {
		t.Fatalf("encrypt with password file: %v", err)
	}

	if err := fs.Remove("p.txt"); err != nil {
		t.Fatal(err)
	}

	var asked []bool

	cfg = newConfig(true, "p.txt.idx")
	cfg.Password = ""

	env, _ = newEnv(fs)
	env.Prompt = func(confirm bool) ([]byte, error) {
		asked = append(asked, confirm)

		return []byte("correct horse"), nil
	}

	if err := logic.Run(context.Background(), cfg, env); err != nil {
		t.Fatalf("decrypt with prompt: %v", err)
	}

	if len(asked) != 1 || asked[0] {
		t.Errorf("prompt calls = %v, want one without confirmation", asked)
	}

	if got := read(t, fs, "p.txt"); got != "hello" {
		t.Errorf("decrypted = %q", got)
	}
}

func TestPasswordErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config, *logic.Env)
		wantErr error
	}{
		{
			name:    "no source",
			mutate:  func(c *config.Config, _ *logic.Env) { c.Password = "" },
			wantErr: logic.ErrNoPassword,
		},
		{
			name: "prompt mismatch",
			mutate: func(c *config.Config, e *logic.Env) {
				c.Password = ""
				e.Prompt = func(bool) ([]byte, error) { return nil, logic.ErrPasswordMismatch }
			},
			wantErr: logic.ErrPasswordMismatch,
		},
		{
			name:    "too long",
			mutate:  func(c *config.Config, _ *logic.Env) { c.Password = strings.Repeat("x", config.MaxPasswordLen+1) },
			wantErr: config.ErrPassword,
		},
		{
			name: "empty file",
			mutate: func(c *config.Config, _ *logic.Env) {
				c.Password = ""
				c.PasswordFile = "empty"
			},
			wantErr: config.ErrPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			seed(t, fs, map[string]string{"f": "x", "empty": "\n"})

			cfg := newConfig(false, "f")
			env, _ := newEnv(fs)
			tt.mutate(cfg, &env)

			if err := logic.Run(context.Background(), cfg, env); !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}

			if exists(t, fs, "f.idx") {
				t.Errorf("output written despite password error")
			}
		})
	}
}

func TestRunWithSelftest(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{"f": "x"})

	cfg := newConfig(false, "f")
	cfg.NoSelftest = false

	env, _ := newEnv(fs)
	if err := logic.Run(context.Background(), cfg, env); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestRunSelftest(t *testing.T) {
	t.Parallel()

	env, out := newEnv(afero.NewMemMapFs())

	if err := logic.RunSelftest(env, false); err != nil {
		t.Fatalf("RunSelftest() error: %v", err)
	}

	if !strings.Contains(out.stdout.String(), "checks passed") {
		t.Errorf("summary missing: %q", out.stdout.String())
	}

	if out.stderr.Len() != 0 {
		t.Errorf("unexpected failures: %q", out.stderr.String())
	}
}

func TestRunCheck(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{"r/a.txt": "", "r/b.go": ""})

	cfg := newConfig(false, "r")
	cfg.Include = []string{"*.txt"}
	cfg.Exclude = []string{"*.go"}

	env, out := newEnv(fs)
	if err := logic.RunCheck(cfg, env); err != nil {
		t.Fatalf("RunCheck() error: %v\n%s", err, out.stderr.String())
	}

	cfg.Exclude = append(cfg.Exclude, "*.rs")

	env, out = newEnv(fs)

	err := logic.RunCheck(cfg, env)
	if !errors.Is(err, logic.ErrUnmatchedPatterns) {
		t.Fatalf("RunCheck() error = %v, want ErrUnmatchedPatterns", err)
	}

	if !strings.Contains(out.stderr.String(), "*.rs: 0 files") {
		t.Errorf("unmatched pattern not reported: %q", out.stderr.String())
	}
}
