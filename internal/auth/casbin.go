package auth

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	casbinbunadapter "github.com/schooltrack/attendapi/internal/auth/bunadapter"
	"github.com/uptrace/bun"
)

//go:embed model.conf
var casbinModelContent string

// InitEnforcer creates a Casbin enforcer with the embedded RBAC model and the
// bun-backed policy adapter, sharing the application's database handle.
// Policies are seeded by migrations and treated as read-only at runtime.
func InitEnforcer(db *bun.DB) (casbin.IEnforcer, error) {
	adapter, err := casbinbunadapter.NewAdapter(db)
	if err != nil {
		return nil, fmt.Errorf("create casbin adapter: %w", err)
	}

	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load casbin policies: %w", err)
	}

	return enforcer, nil
}
