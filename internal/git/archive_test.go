package git

import (
	"archive/tar"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubGit installs a fake git executable as the only entry on PATH.
func stubGit(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "git")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("PATH", dir)
}

// writeTarFixture writes a tar archive holding one ebuild and one eclass.
func writeTarFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.tar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	tw := tar.NewWriter(f)
	files := map[string]string{
		"dev-libs/foo/foo-1.0.ebuild": "# Copyright 2020 Gentoo Authors\nKEYWORDS=\"amd64 ~x86\"\n",
		"eclass/foo.eclass":           "# eclass\n",
	}
	for name, content := range files {
		if err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestExtractSnapshot(t *testing.T) {
	tarPath := writeTarFixture(t)
	t.Setenv("PKGCHECK_TEST_TAR", tarPath)
	stubGit(t, "#!/bin/sh\n/bin/cat \"$PKGCHECK_TEST_TAR\"\n")

	snap, err := ExtractSnapshot(".", "abc123", []string{"dev-libs/foo", "eclass"}, "dev-libs")
	if err != nil {
		t.Fatalf("ExtractSnapshot() error: %v", err)
	}
	defer snap.Close()

	// Extracted content.
	data, err := os.ReadFile(filepath.Join(snap.Dir(), "dev-libs", "foo", "foo-1.0.ebuild"))
	if err != nil {
		t.Fatalf("extracted ebuild missing: %v", err)
	}
	if !strings.Contains(string(data), "KEYWORDS") {
		t.Errorf("extracted ebuild content wrong: %q", data)
	}

	// Synthesized skeleton.
	for path, want := range map[string]string{
		"metadata/layout.conf": "masters =\n",
		"profiles/repo_name":   "old-repo\n",
		"profiles/categories":  "dev-libs\n",
	} {
		data, err := os.ReadFile(filepath.Join(snap.Dir(), path))
		if err != nil {
			t.Fatalf("skeleton file %s missing: %v", path, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", path, data, want)
		}
	}
}

func TestExtractSnapshot_CloseRemovesTree(t *testing.T) {
	tarPath := writeTarFixture(t)
	t.Setenv("PKGCHECK_TEST_TAR", tarPath)
	stubGit(t, "#!/bin/sh\n/bin/cat \"$PKGCHECK_TEST_TAR\"\n")

	snap, err := ExtractSnapshot(".", "abc123", []string{"dev-libs/foo"}, "dev-libs")
	if err != nil {
		t.Fatalf("ExtractSnapshot() error: %v", err)
	}
	dir := snap.Dir()
	if err := snap.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("snapshot dir still exists after Close: %v", err)
	}
}

func TestExtractSnapshot_GitFailure(t *testing.T) {
	stubGit(t, "#!/bin/sh\necho 'fatal: not a valid object name' >&2\nexit 128\n")

	_, err := ExtractSnapshot(".", "badbadbad", []string{"dev-libs/foo"}, "dev-libs")
	if err == nil {
		t.Fatal("ExtractSnapshot() should fail when git archive exits non-zero")
	}
	if !strings.Contains(err.Error(), "not a valid object name") {
		t.Errorf("error should carry git stderr, got: %v", err)
	}
}

func TestExtractSnapshot_RejectsEscapingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evil.tar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tw := tar.NewWriter(f)
	content := "pwned\n"
	if err := tw.WriteHeader(&tar.Header{
		Name: "../escape.txt",
		Mode: 0644,
		Size: int64(len(content)),
	}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := tw.Write([]byte(content)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	tw.Close()
	f.Close()

	t.Setenv("PKGCHECK_TEST_TAR", path)
	stubGit(t, "#!/bin/sh\n/bin/cat \"$PKGCHECK_TEST_TAR\"\n")

	if _, err := ExtractSnapshot(".", "abc123", []string{"x"}, "x"); err == nil {
		t.Fatal("ExtractSnapshot() should reject entries escaping the extraction root")
	}
}
