// Package catalog holds the ordered domain/project catalog and resolves paths against it.
package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/schema"
)

// Catalog is an append-only, ordered list of domains, each with an ordered list of projects.
// Domain IDs are registration indexes. Project IDs are global: the number of projects
// registered under earlier domains plus the local index.
type Catalog struct {
	domains  []string
	projects [][]string
	mode     schema.MatchMode
	capacity int
}

var _ contract.Classifier = &Catalog{}

// New returns an empty catalog. A non-positive capacity selects contract.DefaultMaxCapacity.
func New(mode schema.MatchMode, capacity int) *Catalog {
	if mode == "" {
		mode = schema.StrictMatch
	}
	if capacity <= 0 {
		capacity = contract.DefaultMaxCapacity
	}
	return &Catalog{mode: mode, capacity: capacity}
}

// FromEntries builds a catalog by registering every entry in order.
func FromEntries(entries []schema.CatalogEntry, mode schema.MatchMode, capacity int) (*Catalog, error) {
	c := New(mode, capacity)
	for _, entry := range entries {
		if entry.Domain == "" {
			return nil, fmt.Errorf("catalog entry with empty domain name")
		}
		if c.domainIndex(entry.Domain) >= 0 {
			return nil, fmt.Errorf("domain '%s' is declared more than once", entry.Domain)
		}
		id := c.RegisterDomain(entry.Domain)
		for _, p := range entry.Projects {
			if _, err := c.RegisterProject(id, p); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// RegisterDomain appends a domain and returns its ID.
func (c *Catalog) RegisterDomain(name string) int {
	c.domains = append(c.domains, name)
	c.projects = append(c.projects, nil)
	return len(c.domains) - 1
}

// RegisterProject appends a project to the given domain and returns its local index.
func (c *Catalog) RegisterProject(domainID int, name string) (int, error) {
	if domainID < 0 || domainID >= len(c.domains) {
		return -1, fmt.Errorf("unknown domain id %d", domainID)
	}
	if name == "" {
		return -1, fmt.Errorf("empty project name in domain '%s'", c.domains[domainID])
	}
	c.projects[domainID] = append(c.projects[domainID], name)
	return len(c.projects[domainID]) - 1, nil
}

// MatchMode returns the path match policy in use.
func (c *Catalog) MatchMode() schema.MatchMode { return c.mode }

// Capacity returns the exclusive upper bound on domain and project IDs.
func (c *Catalog) Capacity() int { return c.capacity }

// Domains returns the domain names in registration order.
func (c *Catalog) Domains() []string {
	return append([]string(nil), c.domains...)
}

// Projects returns the project names of one domain in registration order.
func (c *Catalog) Projects(domainID int) []string {
	if domainID < 0 || domainID >= len(c.projects) {
		return nil
	}
	return append([]string(nil), c.projects[domainID]...)
}

// NumProjects returns the number of projects across all domains.
func (c *Catalog) NumProjects() int {
	n := 0
	for _, ps := range c.projects {
		n += len(ps)
	}
	return n
}

// Entries returns the catalog as config entries.
func (c *Catalog) Entries() []schema.CatalogEntry {
	entries := make([]schema.CatalogEntry, len(c.domains))
	for i, d := range c.domains {
		entries[i] = schema.CatalogEntry{Domain: d, Projects: c.Projects(i)}
	}
	return entries
}

// Classify resolves a path to its identity. The first registered domain whose name is a
// segment of path wins; the first of its projects that is also a segment of path is then
// selected. Later domains are not tried when the winning domain has no matching project.
func (c *Catalog) Classify(path string) (schema.Identity, error) {
	for i, domain := range c.domains {
		if !c.contains(path, domain) {
			continue
		}
		for _, project := range c.projects[i] {
			if c.contains(path, project) {
				return c.identity(domain, project)
			}
		}
		return schema.Identity{}, fmt.Errorf("%w: no project of domain '%s' in %s", contract.ErrClassification, domain, path)
	}
	return schema.Identity{}, fmt.Errorf("%w: no domain in %s", contract.ErrClassification, path)
}

// ResolveIDs looks up a domain and project by exact name.
func (c *Catalog) ResolveIDs(domain, project string) (domainID, projectID int, err error) {
	domainID = c.domainIndex(domain)
	if domainID < 0 {
		return -1, -1, fmt.Errorf("%w: unknown domain '%s'", contract.ErrClassification, domain)
	}
	offset := 0
	for i := range domainID {
		offset += len(c.projects[i])
	}
	local := -1
	for j, p := range c.projects[domainID] {
		if p == project {
			local = j
			break
		}
	}
	if local < 0 {
		return -1, -1, fmt.Errorf("%w: unknown project '%s' in domain '%s'", contract.ErrClassification, project, domain)
	}
	projectID = offset + local
	if domainID >= c.capacity || projectID >= c.capacity {
		return -1, -1, fmt.Errorf("%w: domain %d / project %d against limit %d", contract.ErrCapacityExceeded, domainID, projectID, c.capacity)
	}
	return domainID, projectID, nil
}

// IsOutOfProject reports whether defLocation lies outside the identity's domain and project.
// The definition counts as in-project only when both names appear as segments of it.
func (c *Catalog) IsOutOfProject(defLocation string, id schema.Identity) bool {
	return !c.contains(defLocation, id.Domain) || !c.contains(defLocation, id.Project)
}

// Print writes one "domain: p1, p2" line per domain.
func (c *Catalog) Print(w io.Writer) error {
	for i, d := range c.domains {
		if _, err := fmt.Fprintf(w, "%s: %s\n", d, strings.Join(c.projects[i], ", ")); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) identity(domain, project string) (schema.Identity, error) {
	domainID, projectID, err := c.ResolveIDs(domain, project)
	if err != nil {
		return schema.Identity{}, err
	}
	return schema.Identity{Domain: domain, Project: project, DomainID: domainID, ProjectID: projectID}, nil
}

func (c *Catalog) domainIndex(name string) int {
	for i, d := range c.domains {
		if d == name {
			return i
		}
	}
	return -1
}

func (c *Catalog) contains(path, name string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(path, segment(name, c.mode))
}

// segment returns the needle that marks name as a path segment under mode.
func segment(name string, mode schema.MatchMode) string {
	if mode == schema.PrefixMatch {
		return "/" + name
	}
	return "/" + name + "/"
}
