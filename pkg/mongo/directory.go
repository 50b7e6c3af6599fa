package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/tenancy/pkg/tenant"
)

const (
	defaultTenantCollection     = "tenants"
	defaultMembershipCollection = "user_tenants"
)

// Directory is a tenant.Directory backed by two collections: tenant records keyed
// by _id, and user memberships {userId, tenantId, active}.
type Directory struct {
	tenants     *mongo.Collection
	memberships *mongo.Collection
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*directoryOptions)

type directoryOptions struct {
	tenants     string
	memberships string
}

func WithTenantCollection(name string) DirectoryOption {
	return func(o *directoryOptions) {
		if name != "" {
			o.tenants = name
		}
	}
}

func WithMembershipCollection(name string) DirectoryOption {
	return func(o *directoryOptions) {
		if name != "" {
			o.memberships = name
		}
	}
}

// NewDirectory creates a directory over db.
func NewDirectory(db *mongo.Database, opts ...DirectoryOption) *Directory {
	o := directoryOptions{
		tenants:     defaultTenantCollection,
		memberships: defaultMembershipCollection,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Directory{
		tenants:     db.Collection(o.tenants),
		memberships: db.Collection(o.memberships),
	}
}

// EnsureIndexes creates the indexes the lookups rely on. It is safe to call repeatedly.
func (d *Directory) EnsureIndexes(ctx context.Context) error {
	if _, err := d.tenants.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workspace.id", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}); err != nil {
		return errors.Join(ErrDirectoryQuery, err)
	}
	if _, err := d.memberships.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "active", Value: 1}},
	}); err != nil {
		return errors.Join(ErrDirectoryQuery, err)
	}
	return nil
}

func (d *Directory) TenantByID(ctx context.Context, id string) (tenant.Record, error) {
	return d.findTenant(ctx, bson.D{{Key: "_id", Value: id}}, "tenant "+id)
}

func (d *Directory) TenantByWorkspace(ctx context.Context, workspaceID string) (tenant.Record, error) {
	return d.findTenant(ctx, bson.D{{Key: "workspace.id", Value: workspaceID}}, "workspace "+workspaceID)
}

func (d *Directory) ActiveMembership(ctx context.Context, userID string) (string, error) {
	var m struct {
		TenantID string `bson:"tenantId"`
	}
	err := d.memberships.FindOne(ctx, bson.D{
		{Key: "userId", Value: userID},
		{Key: "active", Value: true},
	}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && m.TenantID == "") {
		return "", fmt.Errorf("%w: user %s", tenant.ErrTenantNotFound, userID)
	}
	if err != nil {
		return "", errors.Join(ErrDirectoryQuery, err)
	}
	return m.TenantID, nil
}

func (d *Directory) findTenant(ctx context.Context, filter bson.D, what string) (tenant.Record, error) {
	var rec tenant.Record
	err := d.tenants.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return tenant.Record{}, fmt.Errorf("%w: %s", tenant.ErrTenantNotFound, what)
	}
	if err != nil {
		return tenant.Record{}, errors.Join(ErrDirectoryQuery, err)
	}
	return rec, nil
}
