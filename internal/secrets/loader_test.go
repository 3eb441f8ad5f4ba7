package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	require.NoError(t, os.WriteFile(keyFile, []byte("  from-file\n"), 0o600))
	emptyFile := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(emptyFile, []byte("\n"), 0o600))

	t.Setenv("PM_TEST_SECRET", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins", src: Source{File: keyFile, Value: "inline", Env: "PM_TEST_SECRET"}, want: "from-file"},
		{name: "inline", src: Source{Value: " inline ", Env: "PM_TEST_SECRET"}, want: "inline"},
		{name: "env", src: Source{Env: "PM_TEST_SECRET"}, want: "from-env"},
		{name: "empty file", src: Source{Name: "gemini api key", File: emptyFile}, wantErr: "is empty"},
		{name: "missing file", src: Source{File: filepath.Join(dir, "missing")}, wantErr: "reading secret"},
		{name: "unset env", src: Source{Env: "PM_TEST_UNSET_SECRET"}, wantErr: "PM_TEST_UNSET_SECRET"},
		{name: "nothing", src: Source{Name: "token"}, wantErr: "token is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
