package ebuild

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// keywordsRegex matches the KEYWORDS assignment in an ebuild. Ebuilds are
// bash, but repositories declare KEYWORDS as a plain quoted literal, so a
// line match is sufficient here.
var keywordsRegex = regexp.MustCompile(`^\s*KEYWORDS=["']?([^"']*)["']?\s*$`)

// Repository is a read-only ebuild repository rooted at a directory.
type Repository struct {
	root       string
	name       string
	categories []string
	arches     map[string]struct{}
}

// Open reads the minimal repository metadata under root: profiles/repo_name
// (required), profiles/categories (required), and profiles/arch.list
// (optional; absent in snapshot trees).
func Open(root string) (*Repository, error) {
	name, err := readFirstLine(filepath.Join(root, "profiles", "repo_name"))
	if err != nil {
		return nil, fmt.Errorf("not an ebuild repository at %s: %w", root, err)
	}

	categories, err := readLines(filepath.Join(root, "profiles", "categories"))
	if err != nil {
		return nil, fmt.Errorf("failed to read category listing at %s: %w", root, err)
	}

	arches := make(map[string]struct{})
	if lines, err := readLines(filepath.Join(root, "profiles", "arch.list")); err == nil {
		for _, arch := range lines {
			arches[arch] = struct{}{}
		}
	}

	return &Repository{
		root:       root,
		name:       name,
		categories: categories,
		arches:     arches,
	}, nil
}

// Root returns the repository's filesystem root.
func (r *Repository) Root() string {
	return r.root
}

// Name returns the repository name from profiles/repo_name.
func (r *Repository) Name() string {
	return r.name
}

// KnownArches returns the set of valid stable platform identifiers declared
// in profiles/arch.list. The map must be treated as read-only.
func (r *Repository) KnownArches() map[string]struct{} {
	return r.arches
}

// Match returns the package versions selected by the restriction, sorted by
// category, package, then version string.
func (r *Repository) Match(restrict Restrict) ([]*PackageVersion, error) {
	var matched []*PackageVersion

	switch res := restrict.(type) {
	case Atom:
		pkgs, err := r.loadPackage(res.Key())
		if err != nil {
			return nil, err
		}
		for _, pkg := range pkgs {
			if pkg.Atom == res {
				matched = append(matched, pkg)
			}
		}
	case Key:
		pkgs, err := r.loadPackage(res)
		if err != nil {
			return nil, err
		}
		matched = pkgs
	case Func:
		for _, category := range r.categories {
			entries, err := os.ReadDir(filepath.Join(r.root, category))
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, fmt.Errorf("failed to read category %s: %w", category, err)
			}
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				pkgs, err := r.loadPackage(Key{Category: category, Package: entry.Name()})
				if err != nil {
					return nil, err
				}
				for _, pkg := range pkgs {
					if res(pkg) {
						matched = append(matched, pkg)
					}
				}
			}
		}
	default:
		return nil, fmt.Errorf("unsupported restriction type %T", restrict)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Atom.Category != matched[j].Atom.Category {
			return matched[i].Atom.Category < matched[j].Atom.Category
		}
		if matched[i].Atom.Package != matched[j].Atom.Package {
			return matched[i].Atom.Package < matched[j].Atom.Package
		}
		return matched[i].Atom.Version < matched[j].Atom.Version
	})

	return matched, nil
}

// loadPackage reads every .ebuild under category/package. A missing package
// directory matches nothing rather than failing: callers probe freely.
func (r *Repository) loadPackage(key Key) ([]*PackageVersion, error) {
	pkgDir := filepath.Join(r.root, key.Category, key.Package)
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read package directory %s: %w", pkgDir, err)
	}

	maintainers, err := readMaintainers(filepath.Join(pkgDir, "metadata.xml"))
	if err != nil {
		return nil, err
	}

	var pkgs []*PackageVersion
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ebuild") {
			continue
		}
		version, ok := VersionFromFilename(entry.Name(), key.Package)
		if !ok {
			continue
		}

		path := filepath.Join(pkgDir, entry.Name())
		keywords, err := readKeywords(path)
		if err != nil {
			return nil, err
		}

		pkgs = append(pkgs, &PackageVersion{
			Atom:        Atom{Category: key.Category, Package: key.Package, Version: version},
			Keywords:    keywords,
			Maintainers: maintainers,
			path:        path,
		})
	}

	return pkgs, nil
}

// VersionFromFilename extracts the version from "name-version.ebuild".
// The version must start with a digit, so hyphenated package names never
// bleed into it.
func VersionFromFilename(filename, pkg string) (string, bool) {
	base := strings.TrimSuffix(filename, ".ebuild")
	if !strings.HasPrefix(base, pkg+"-") {
		return "", false
	}
	version := base[len(pkg)+1:]
	if version == "" || version[0] < '0' || version[0] > '9' {
		return "", false
	}
	return version, true
}

// readKeywords scans an ebuild for its KEYWORDS assignment. An ebuild
// without one has no keywords.
func readKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ebuild %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := keywordsRegex.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		return strings.Fields(m[1]), nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ebuild %s: %w", path, err)
	}
	return nil, nil
}

// pkgMetadata mirrors the subset of metadata.xml this tool cares about.
type pkgMetadata struct {
	Maintainers []struct {
		Email string `xml:"email"`
		Name  string `xml:"name"`
	} `xml:"maintainer"`
}

// readMaintainers parses metadata.xml and returns one entry per declared
// maintainer (the email, falling back to the name). A missing metadata.xml
// means no maintainers.
func readMaintainers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var meta pkgMetadata
	if err := xml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var maintainers []string
	for _, m := range meta.Maintainers {
		switch {
		case m.Email != "":
			maintainers = append(maintainers, strings.TrimSpace(m.Email))
		case m.Name != "":
			maintainers = append(maintainers, strings.TrimSpace(m.Name))
		}
	}
	return maintainers, nil
}

// readFirstLine returns the first non-blank line of a file.
func readFirstLine(path string) (string, error) {
	lines, err := readLines(path)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%s is empty", path)
	}
	return lines[0], nil
}

// readLines returns all non-blank, non-comment lines of a file, trimmed.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
