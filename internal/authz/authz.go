package authz

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/casbin/casbin/v3"

	"github.com/gridbase/gridbase/internal/services"
)

//go:embed model.conf policy.csv
var embedFS embed.FS

// Enforcer checks database-level role permissions. Roles (owner, editor,
// viewer) come from the membership table; the embedded casbin policy maps
// roles to resource/action pairs.
type Enforcer struct {
	enforcer  *casbin.Enforcer
	databases *services.DatabaseService
}

// NewEnforcer creates the enforcer from the embedded model and policy files.
func NewEnforcer(databaseService *services.DatabaseService) (*Enforcer, error) {
	dir, err := os.MkdirTemp("", "gridbase-casbin-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if err := writeEmbedToDir(dir, "model.conf", "policy.csv"); err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewEnforcer(
		filepath.Join(dir, "model.conf"),
		filepath.Join(dir, "policy.csv"),
	)
	if err != nil {
		return nil, err
	}

	return &Enforcer{enforcer: enforcer, databases: databaseService}, nil
}

func writeEmbedToDir(dir string, names ...string) error {
	for _, name := range names {
		data, err := embedFS.ReadFile(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			return err
		}
	}
	return nil
}

// Enforce checks if the user may perform action on resource within a database.
// resource is "database", "table" or "row"; action is "read", "write",
// "update", "delete" or "manage_members".
func (e *Enforcer) Enforce(ctx context.Context, userID, databaseID, resource, action string) (bool, error) {
	role, err := e.databases.MemberRole(ctx, databaseID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve role: %w", err)
	}
	if role == "" {
		// Owners are implicit members, but cover direct ownership too.
		isOwner, err := e.databases.IsOwner(ctx, databaseID, userID)
		if err != nil {
			return false, err
		}
		if !isOwner {
			return false, nil
		}
		role = "owner"
	}

	return e.enforcer.Enforce(role, resource, action)
}
