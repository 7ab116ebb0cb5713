package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteCSV writes a transaction CSV fixture with a standard header and the
// supplied data rows, returning the file path.
func WriteCSV(t testing.TB, dir, name string, rows ...string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	content := "Date,Amount,Description\n"
	for _, row := range rows {
		content += row + "\n"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
