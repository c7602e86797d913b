package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppDirs(t *testing.T) {
	dirs, err := AppDirs("tapestry-test")
	if err != nil {
		t.Fatalf("AppDirs failed: %v", err)
	}

	if dirs.Config == "" || dirs.Data == "" {
		t.Fatal("both Config and Data should be non-empty")
	}
	if !filepath.IsAbs(dirs.Config) || !filepath.IsAbs(dirs.Data) {
		t.Error("directories should be absolute paths")
	}
	if !hasBase(dirs.Config, "tapestry-test") || !hasBase(dirs.Data, "tapestry-test") {
		t.Error("directories should be named after the app")
	}
}

func TestAppDirsCreatesDirectories(t *testing.T) {
	dirs, err := AppDirs("tapestry-test2")
	if err != nil {
		t.Fatalf("AppDirs failed: %v", err)
	}

	if _, err := os.Stat(dirs.Config); os.IsNotExist(err) {
		t.Errorf("Config directory was not created: %s", dirs.Config)
	}
	if _, err := os.Stat(dirs.Data); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dirs.Data)
	}
}

func hasBase(path, name string) bool {
	return filepath.Base(path) == name
}
