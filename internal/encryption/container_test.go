package encryption_test

import (
	"errors"
	"testing"

	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/encryption"
)

func TestOutputName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		decrypt bool
		want    string
		wantErr bool
	}{
		{"a.txt", false, "a.txt.idx", false},
		{"dir/a", false, "dir/a.idx", false},
		{"a.idx", false, "a.idx", false},
		{"a.txt.idx", true, "a.txt", false},
		{"dir/b.idx", true, "dir/b", false},
		{"a.txt", true, "", true},
		{".idx", true, "", true},
		{"dir/.idx", true, "", true},
		{"a.IDX", true, "", true},
	}

	for _, tc := range tests {
		got, err := encryption.OutputName(tc.name, tc.decrypt)

		if tc.wantErr {
			if !errors.Is(err, crypterr.ErrMalformedContainer) {
				t.Errorf("OutputName(%q, %v) error = %v, want ErrMalformedContainer", tc.name, tc.decrypt, err)
			}

			continue
		}

		if err != nil || got != tc.want {
			t.Errorf("OutputName(%q, %v) = %q, %v; want %q", tc.name, tc.decrypt, got, err, tc.want)
		}
	}
}
