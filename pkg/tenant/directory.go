package tenant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Directory is the source of truth for tenant records. Implementations report absence
// with an error matching ErrTenantNotFound.
type Directory interface {
	TenantByID(ctx context.Context, id string) (Record, error)
	TenantByWorkspace(ctx context.Context, workspaceID string) (Record, error)
	// ActiveMembership returns the tenant id of the user's active membership.
	ActiveMembership(ctx context.Context, userID string) (string, error)
}

// Membership links a user to a tenant.
type Membership struct {
	UserID   string `yaml:"userId"`
	TenantID string `yaml:"tenantId"`
	Active   bool   `yaml:"active"`
}

// StaticDirectory is an in-memory Directory, typically loaded from a YAML file
// for local development and tests.
type StaticDirectory struct {
	mu          sync.RWMutex
	tenants     map[string]Record
	memberships []Membership
}

type staticFile struct {
	Tenants     []Record     `yaml:"tenants"`
	Memberships []Membership `yaml:"memberships"`
}

// NewStaticDirectory creates a directory holding records.
func NewStaticDirectory(records ...Record) *StaticDirectory {
	d := &StaticDirectory{tenants: make(map[string]Record, len(records))}
	for _, r := range records {
		d.tenants[r.ID] = r
	}
	return d
}

// LoadStaticDirectory decodes a YAML document with "tenants" and "memberships" lists.
func LoadStaticDirectory(r io.Reader) (*StaticDirectory, error) {
	var f staticFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrInvalidDirectoryFile, err)
	}

	d := NewStaticDirectory()
	for _, rec := range f.Tenants {
		if rec.ID == "" || rec.DB == "" {
			return nil, fmt.Errorf("%w: tenant record needs id and db", ErrInvalidDirectoryFile)
		}
		d.tenants[rec.ID] = rec
	}
	d.memberships = f.Memberships
	return d, nil
}

// LoadStaticDirectoryFile reads a YAML directory file from path.
func LoadStaticDirectoryFile(path string) (*StaticDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidDirectoryFile, err)
	}
	defer f.Close()
	return LoadStaticDirectory(f)
}

// Put adds or replaces a record.
func (d *StaticDirectory) Put(r Record) {
	d.mu.Lock()
	d.tenants[r.ID] = r
	d.mu.Unlock()
}

// AddMembership records an active membership of userID in tenantID.
func (d *StaticDirectory) AddMembership(userID, tenantID string) {
	d.mu.Lock()
	d.memberships = append(d.memberships, Membership{UserID: userID, TenantID: tenantID, Active: true})
	d.mu.Unlock()
}

func (d *StaticDirectory) TenantByID(_ context.Context, id string) (Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.tenants[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: tenant %s", ErrTenantNotFound, id)
	}
	return r, nil
}

func (d *StaticDirectory) TenantByWorkspace(_ context.Context, workspaceID string) (Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, r := range d.tenants {
		if r.Workspace != nil && r.Workspace.ID == workspaceID {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: workspace %s", ErrTenantNotFound, workspaceID)
}

func (d *StaticDirectory) ActiveMembership(_ context.Context, userID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, m := range d.memberships {
		if m.UserID == userID && m.Active && m.TenantID != "" {
			return m.TenantID, nil
		}
	}
	return "", fmt.Errorf("%w: user %s", ErrTenantNotFound, userID)
}
