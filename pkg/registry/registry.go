// Package registry maps (package, executable) pairs to binaries on disk,
// the way the middleware install space lays them out:
// <prefix>/lib/<package>/<executable>.
package registry

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFilename = ".skylaunch.yaml"

// File is the on-disk registry configuration.
type File struct {
	Prefixes []string  `yaml:"prefixes,omitempty"`
	Packages []Package `yaml:"packages,omitempty"`
}

// Package pins a package to an explicit directory, bypassing prefix scans.
type Package struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
}

// Registry resolves executables against install prefixes and per-package
// overrides.
type Registry struct {
	root     string
	prefixes []string
	dirs     map[string]string
}

func DefaultPath(root string) string {
	return filepath.Join(root, DefaultConfigFilename)
}

// Load reads the registry config at path. A missing file is not an error:
// the install root itself becomes the only prefix. Relative paths in the
// config are joined to root.
func Load(root, path string) (*Registry, error) {
	if root == "" {
		return nil, errors.New("missing root")
	}

	cfg := &File{}
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "read registry config")
		}
	} else if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrap(err, "parse registry yaml")
	}

	r := &Registry{root: root, dirs: map[string]string{}}
	for _, p := range cfg.Prefixes {
		r.prefixes = append(r.prefixes, absUnder(root, p))
	}
	if len(r.prefixes) == 0 {
		r.prefixes = []string{root}
	}
	for _, p := range cfg.Packages {
		if p.Name == "" {
			return nil, errors.New("package entry missing name")
		}
		if p.Dir == "" {
			return nil, errors.Errorf("package %q missing dir", p.Name)
		}
		if _, ok := r.dirs[p.Name]; ok {
			return nil, errors.Errorf("duplicate package entry %q", p.Name)
		}
		r.dirs[p.Name] = absUnder(root, p.Dir)
	}
	return r, nil
}

// LookupExecutable returns the path of the executable belonging to pkg. An
// explicit package dir wins over prefix scans; prefixes are searched in
// declaration order.
func (r *Registry) LookupExecutable(pkg, executable string) (string, error) {
	if pkg == "" || executable == "" {
		return "", errors.New("missing package or executable")
	}

	if dir, ok := r.dirs[pkg]; ok {
		path := filepath.Join(dir, executable)
		if err := checkExecutable(path); err != nil {
			return "", errors.Wrapf(err, "package %q executable %q", pkg, executable)
		}
		return path, nil
	}

	for _, prefix := range r.prefixes {
		path := filepath.Join(prefix, "lib", pkg, executable)
		if err := checkExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", errors.Errorf("executable %q not found for package %q (searched %d prefixes)",
		executable, pkg, len(r.prefixes))
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.Errorf("%s is a directory", path)
	}
	if info.Mode()&0o111 == 0 {
		return errors.Errorf("%s is not executable", path)
	}
	return nil
}

func absUnder(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
