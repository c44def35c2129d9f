// Package ebuild provides a minimal read-only view of an ebuild repository:
// category/package/version discovery, KEYWORDS parsing, and maintainer
// metadata. It recognizes both full repositories and the bare snapshot trees
// written by the git archive extractor (profiles/repo_name plus a category
// listing are enough).
package ebuild

import (
	"bufio"
	"fmt"
	"os"
)

// Key identifies a package without a version (category/name).
type Key struct {
	Category string
	Package  string
}

// String returns the category/name form, e.g. "dev-libs/foo".
func (k Key) String() string {
	return k.Category + "/" + k.Package
}

// Atom identifies one package version.
type Atom struct {
	Category string
	Package  string
	Version  string
}

// Key returns the unversioned identifier for the atom.
func (a Atom) Key() Key {
	return Key{Category: a.Category, Package: a.Package}
}

// String returns the category/name-version form, e.g. "dev-libs/foo-1.2.3".
func (a Atom) String() string {
	return fmt.Sprintf("%s/%s-%s", a.Category, a.Package, a.Version)
}

// Restrict selects package versions from a repository. Exactly three forms
// exist: Key (all versions of a package), Atom (one exact version), and Func
// (an arbitrary predicate).
type Restrict interface {
	restrict()
}

func (Key) restrict()  {}
func (Atom) restrict() {}

// Func is a predicate restriction: every version for which the function
// returns true is matched.
type Func func(*PackageVersion) bool

func (Func) restrict() {}

// PackageVersion is one ebuild as seen in a repository tree.
type PackageVersion struct {
	Atom        Atom
	Keywords    []string
	Maintainers []string

	path string // absolute path of the .ebuild file
}

// Path returns the location of the backing .ebuild file.
func (p *PackageVersion) Path() string {
	return p.path
}

// FirstLine returns the first line of the ebuild text without its trailing
// newline. An empty file yields an empty string and no error.
func (p *PackageVersion) FirstLine() (string, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return "", fmt.Errorf("failed to open ebuild %s: %w", p.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read ebuild %s: %w", p.path, err)
		}
		return "", nil
	}
	return scanner.Text(), nil
}
