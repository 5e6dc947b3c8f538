package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// UpdateGoldenEnv rewrites golden files from the actual output when set to
// a non-empty value.
const UpdateGoldenEnv = "TRANSLATIONS_UPDATE_GOLDEN"

// LoadFixture reads a fixture file, failing the test when it is missing.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("load fixture %s: %v", path, err)
	}
	return data
}

// LoadFixtureJSON decodes a JSON fixture into a T.
func LoadFixtureJSON[T any](t testing.TB, path string) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(LoadFixture(t, path), &out); err != nil {
		t.Fatalf("decode fixture %s: %v", path, err)
	}
	return out
}

// CompareWithGolden fails the test when actual differs from the golden file
// at path. Missing golden files, or any file when UpdateGoldenEnv is set,
// are written from actual.
func CompareWithGolden(t testing.TB, path string, actual []byte) {
	t.Helper()

	if os.Getenv(UpdateGoldenEnv) != "" {
		writeGolden(t, path, actual)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Logf("golden file %s missing, creating it", path)
		writeGolden(t, path, actual)
		return
	}
	if err != nil {
		t.Fatalf("read golden %s: %v", path, err)
	}

	if string(actual) != string(expected) {
		t.Errorf("output mismatch for %s:\nwant: %s\ngot:  %s", path, expected, actual)
	}
}

func writeGolden(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create golden dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden %s: %v", path, err)
	}
}

// FixturePath joins name under the package's testdata directory.
func FixturePath(name string) string {
	return filepath.Join("testdata", name)
}

// GoldenPath joins name under testdata/golden.
func GoldenPath(name string) string {
	return filepath.Join("testdata", "golden", name)
}
