package git

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Snapshot is an ephemeral repository tree reconstructed from a historical
// commit. Callers own it for the duration of one check and must Close it.
type Snapshot struct {
	dir string
}

// Dir returns the snapshot's repository root.
func (s *Snapshot) Dir() string {
	return s.dir
}

// Close removes the snapshot's backing filesystem tree.
func (s *Snapshot) Close() error {
	return os.RemoveAll(s.dir)
}

// ExtractSnapshot materializes the given paths of the repository at root as
// they were at commit, under a fresh temporary directory, and writes the
// minimal metadata files that let the tree pass for a masterless repository
// containing the one given category.
//
// The git archive stream is unpacked incrementally while the subprocess runs;
// archives are never buffered whole. On any failure the temporary tree is
// removed before returning, and the error carries git's stderr text.
func ExtractSnapshot(root, commit string, paths []string, category string) (snap *Snapshot, err error) {
	dir, err := os.MkdirTemp("", "pkgcheck-old-repo-")
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()

	args := append([]string{"-C", root, "archive", commit}, paths...)
	cmd := exec.Command("git", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to pipe git archive output: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start git archive: %w", err)
	}

	extractErr := untar(stdout, dir)
	waitErr := cmd.Wait()
	if waitErr != nil {
		return nil, fmt.Errorf("git archive %s failed: %w (stderr: %s)",
			commit, waitErr, strings.TrimSpace(stderr.String()))
	}
	if extractErr != nil {
		return nil, fmt.Errorf("failed to extract archive of %s: %w", commit, extractErr)
	}

	if err := writeRepoSkeleton(dir, category); err != nil {
		return nil, err
	}

	return &Snapshot{dir: dir}, nil
}

// untar streams a tar archive into dir. Entries escaping dir are rejected;
// entry types other than directories and regular files are skipped.
func untar(r io.Reader, dir string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := filepath.Clean(hdr.Name)
		if name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) ||
			filepath.IsAbs(name) {
			return fmt.Errorf("archive entry %q escapes extraction root", hdr.Name)
		}
		target := filepath.Join(dir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
	}
}

// writeRepoSkeleton writes the metadata a repository reader needs to accept
// the extracted tree: a masterless layout.conf, a repository name, and a
// single-category listing.
func writeRepoSkeleton(dir, category string) error {
	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(dir, "metadata", "layout.conf"), "masters =\n"},
		{filepath.Join(dir, "profiles", "repo_name"), "old-repo\n"},
		{filepath.Join(dir, "profiles", "categories"), category + "\n"},
	}
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(f.path), err)
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}
	}
	return nil
}
