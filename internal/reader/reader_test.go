package reader

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadFileContent(t *testing.T) {
	dir := t.TempDir()
	r := New()
	ctx := context.Background()

	tests := []struct {
		name    string
		path    string
		kind    Kind
		content string
	}{
		{"text file", writeFile(t, dir, "a.go", []byte("package a\n")), KindNone, "package a\n"},
		{"empty file", writeFile(t, dir, "empty.txt", nil), KindNone, ""},
		{"missing", filepath.Join(dir, "missing.txt"), KindNotFound, ""},
		{"directory", dir, KindNotAFile, ""},
		{"nul byte", writeFile(t, dir, "bin.dat", []byte{'a', 0, 'b'}), KindBinaryFile, ""},
		{"invalid utf8", writeFile(t, dir, "latin1.txt", []byte{0xff, 0xfe, 'x'}), KindBinaryFile, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.ReadFileContent(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, res.Error)
			assert.Equal(t, tt.kind == KindNone, res.HasContent)
			assert.Equal(t, tt.kind != KindNone, res.Failed())
			assert.Equal(t, tt.content, res.Content)
			if res.Failed() {
				assert.NotEmpty(t, res.Message)
			}
		})
	}
}

func TestReadFileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.txt", []byte("0123456789"))

	res, err := New(WithMaxFileSize(4)).ReadFileContent(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, KindFileTooLarge, res.Error)
	assert.Equal(t, "Size: 10 bytes", res.Message)
	assert.Equal(t, int64(10), res.Size)
	assert.False(t, res.HasContent)

	res, err = New(WithMaxFileSize(10)).ReadFileContent(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, res.HasContent)
}

func TestReadAllowBinary(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bin.dat", []byte{'a', 0, 'b'})

	res, err := New(WithAllowBinary(true)).ReadFileContent(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, res.HasContent)
	assert.Equal(t, "a\x00b", res.Content)
}

func TestReadPermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	dir := t.TempDir()
	path := writeFile(t, dir, "private.txt", []byte("secret"))
	require.NoError(t, os.Chmod(path, 0o000))

	res, err := New().ReadFileContent(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, KindPermissionDenied, res.Error)
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().ReadFileContent(ctx, "whatever")
	assert.ErrorIs(t, err, context.Canceled)
}
