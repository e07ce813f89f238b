package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// File is the on-disk YAML form of a repository
type File struct {
	Name      string              `yaml:"name"`
	Installed bool                `yaml:"installed,omitempty"`
	Packages  []PackageEntry      `yaml:"packages"`
	Sets      map[string][]string `yaml:"sets,omitempty"`
}

// PackageEntry describes one package ID
type PackageEntry struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	Slot         string            `yaml:"slot,omitempty"`
	Transient    bool              `yaml:"transient,omitempty"`
	Choices      map[string]bool   `yaml:"choices,omitempty"`
	Masks        []paludis.Mask    `yaml:"masks,omitempty"`
	Dependencies []DependencyEntry `yaml:"dependencies,omitempty"`
}

// DependencyEntry is one node of a dependency tree. Exactly one of Spec, Any, All or If
// is set; Then holds the children of an If.
type DependencyEntry struct {
	Spec   string            `yaml:"spec,omitempty"`
	Labels []string          `yaml:"labels,omitempty"`
	Any    []DependencyEntry `yaml:"any,omitempty"`
	All    []DependencyEntry `yaml:"all,omitempty"`
	If     string            `yaml:"if,omitempty"`
	Then   []DependencyEntry `yaml:"then,omitempty"`
}

// Parse decodes a YAML repository
func Parse(data []byte) (*Repository, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse repository: %w", err)
	}
	return f.Build()
}

// LoadFile reads and decodes a YAML repository file
func LoadFile(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.NewFileSystemError("failed to read repository", err).WithContext("path", path)
	}
	repo, err := Parse(data)
	if err != nil {
		return nil, perrors.NewRepositoryError("failed to load repository", err).WithContext("path", path)
	}
	log.Debugf("Loaded repository %s from %s with %d packages", repo.Name(), path, repo.PackageCount())
	return repo, nil
}

// LoadEnvironment loads repository files concurrently and builds an environment
// that keeps the order the paths were given in. Every bad file is reported, not
// just the first.
func LoadEnvironment(ctx context.Context, paths []string, concurrency int) (*Environment, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	repos := make([]*Repository, len(paths))
	errs := make([]error, len(paths))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(concurrency)
	for i, path := range paths {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			repos[i], errs[i] = LoadFile(path)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	collector := perrors.NewErrorCollector()
	seen := make(map[paludis.RepositoryName]string)
	for i, repo := range repos {
		if errs[i] != nil {
			collector.Add(errs[i])
			continue
		}
		if other, exists := seen[repo.Name()]; exists {
			collector.Add(perrors.NewRepositoryError(
				fmt.Sprintf("repository %s is defined by both %s and %s", repo.Name(), other, paths[i]), nil))
			continue
		}
		seen[repo.Name()] = paths[i]
	}
	if collector.HasErrors() {
		for kind, count := range collector.Summary() {
			log.Debugf("%d %s error(s) loading repositories", count, kind)
		}
		return nil, collector.Err()
	}

	env := NewEnvironment(repos...)
	env.logSummary()
	return env, nil
}

// Build converts the file form into a Repository
func (f *File) Build() (*Repository, error) {
	if f.Name == "" {
		return nil, fmt.Errorf("repository has no name")
	}
	repo := NewRepository(paludis.RepositoryName(f.Name), f.Installed)

	for _, p := range f.Packages {
		id, err := p.build()
		if err != nil {
			return nil, fmt.Errorf("repository %s: %w", f.Name, err)
		}
		repo.AddPackage(id)
	}

	for name, members := range f.Sets {
		tree, err := paludis.NewSetSpecTree(members...)
		if err != nil {
			return nil, fmt.Errorf("repository %s: set %s: %w", f.Name, name, err)
		}
		repo.AddSet(paludis.SetName(name), tree)
	}

	return repo, nil
}

func (p PackageEntry) build() (*paludis.PackageID, error) {
	name, err := paludis.NewQualifiedPackageName(p.Name)
	if err != nil {
		return nil, err
	}
	version, err := paludis.NewVersion(p.Version)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", p.Name, err)
	}
	deps, err := buildTree(p.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("package %s-%s: %w", p.Name, p.Version, err)
	}

	return &paludis.PackageID{
		Name:         name,
		Version:      version,
		Slot:         paludis.SlotName(p.Slot),
		Transient:    p.Transient,
		Choices:      paludis.Choices(p.Choices),
		Masks:        p.Masks,
		Dependencies: deps,
	}, nil
}

func buildTree(entries []DependencyEntry) (*paludis.DependencyTree, error) {
	children, err := buildChildren(entries)
	if err != nil {
		return nil, err
	}
	return paludis.AllOf(children...), nil
}

func buildChildren(entries []DependencyEntry) ([]*paludis.DependencyTree, error) {
	children := make([]*paludis.DependencyTree, 0, len(entries))
	for _, e := range entries {
		child, err := e.build()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func (e DependencyEntry) build() (*paludis.DependencyTree, error) {
	var node *paludis.DependencyTree
	switch {
	case e.Spec != "":
		spec, err := paludis.ParsePackageOrBlockDepSpec(e.Spec)
		if err != nil {
			return nil, err
		}
		node = paludis.Leaf(spec)
	case e.If != "":
		children, err := buildChildren(e.Then)
		if err != nil {
			return nil, err
		}
		node = paludis.If(e.If, children...)
	case len(e.Any) > 0:
		children, err := buildChildren(e.Any)
		if err != nil {
			return nil, err
		}
		node = paludis.AnyOf(children...)
	case len(e.All) > 0:
		children, err := buildChildren(e.All)
		if err != nil {
			return nil, err
		}
		node = paludis.AllOf(children...)
	default:
		return nil, fmt.Errorf("empty dependency entry")
	}

	if len(e.Labels) > 0 {
		labels := make([]paludis.DependencyLabel, 0, len(e.Labels))
		for _, l := range e.Labels {
			label, err := paludis.ParseDependencyLabel(l)
			if err != nil {
				return nil, err
			}
			labels = append(labels, label)
		}
		node.Labels = paludis.NewDependencyLabels(labels...)
	}
	return node, nil
}
