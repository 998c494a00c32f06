// Package bunadapter persists Casbin policies through the application's bun
// database handle, so policy rows live in the same SQLite/PostgreSQL database
// as everything else and are seeded by ordinary migrations.
//
// Only the persist.Adapter surface attendapi needs is implemented; filtered
// and auto-save update paths are intentionally absent because the enforcer
// runs read-only after migration seeding.
package bunadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	"github.com/uptrace/bun"
)

// CasbinRule is a single policy line in storage.
type CasbinRule struct {
	bun.BaseModel `bun:"table:casbin_rules,alias:cr"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Ptype string `bun:"ptype,notnull"`
	V0    string `bun:"v0"`
	V1    string `bun:"v1"`
	V2    string `bun:"v2"`
}

// String renders the rule in Casbin's CSV line format.
func (r *CasbinRule) String() string {
	parts := []string{r.Ptype}
	for _, v := range []string{r.V0, r.V1, r.V2} {
		if v == "" {
			break
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, ", ")
}

func newCasbinRule(ptype string, rule []string) *CasbinRule {
	r := &CasbinRule{Ptype: ptype}
	if len(rule) > 0 {
		r.V0 = rule[0]
	}
	if len(rule) > 1 {
		r.V1 = rule[1]
	}
	if len(rule) > 2 {
		r.V2 = rule[2]
	}
	return r
}

// Adapter implements casbin persist.Adapter on top of bun.
type Adapter struct {
	db *bun.DB
}

// NewAdapter creates an adapter using an existing bun database handle. The
// casbin_rules table is expected to exist (created by migrations).
func NewAdapter(db *bun.DB) (*Adapter, error) {
	if db == nil {
		return nil, fmt.Errorf("bun database handle is required")
	}
	return &Adapter{db: db}, nil
}

// LoadPolicy loads all policy rules from storage.
func (a *Adapter) LoadPolicy(m model.Model) error {
	var rules []*CasbinRule
	if err := a.db.NewSelect().Model(&rules).Order("id ASC").Scan(context.Background()); err != nil {
		return fmt.Errorf("load casbin rules: %w", err)
	}

	for _, rule := range rules {
		if err := persist.LoadPolicyLine(rule.String(), m); err != nil {
			return fmt.Errorf("parse casbin rule %d: %w", rule.ID, err)
		}
	}
	return nil
}

// SavePolicy replaces all stored rules with the model's current policy.
func (a *Adapter) SavePolicy(m model.Model) error {
	var rules []*CasbinRule
	for _, section := range []string{"p", "g"} {
		for ptype, ast := range m[section] {
			for _, line := range ast.Policy {
				rules = append(rules, newCasbinRule(ptype, line))
			}
		}
	}

	ctx := context.Background()
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*CasbinRule)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear casbin rules: %w", err)
		}
		if len(rules) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rules).Exec(ctx); err != nil {
			return fmt.Errorf("insert casbin rules: %w", err)
		}
		return nil
	})
}

// AddPolicy adds a policy rule to storage.
func (a *Adapter) AddPolicy(_ string, ptype string, rule []string) error {
	r := newCasbinRule(ptype, rule)
	if _, err := a.db.NewInsert().Model(r).Exec(context.Background()); err != nil {
		return fmt.Errorf("add casbin rule: %w", err)
	}
	return nil
}

// RemovePolicy removes a policy rule from storage.
func (a *Adapter) RemovePolicy(_ string, ptype string, rule []string) error {
	r := newCasbinRule(ptype, rule)
	_, err := a.db.NewDelete().
		Model((*CasbinRule)(nil)).
		Where("ptype = ?", r.Ptype).
		Where("v0 = ?", r.V0).
		Where("v1 = ?", r.V1).
		Where("v2 = ?", r.V2).
		Exec(context.Background())
	if err != nil {
		return fmt.Errorf("remove casbin rule: %w", err)
	}
	return nil
}

// RemoveFilteredPolicy removes rules matching the field filter from storage.
func (a *Adapter) RemoveFilteredPolicy(_ string, ptype string, fieldIndex int, fieldValues ...string) error {
	query := a.db.NewDelete().Model((*CasbinRule)(nil)).Where("ptype = ?", ptype)

	columns := []string{"v0", "v1", "v2"}
	for i, value := range fieldValues {
		idx := fieldIndex + i
		if idx >= len(columns) || value == "" {
			continue
		}
		query = query.Where(columns[idx]+" = ?", value)
	}

	if _, err := query.Exec(context.Background()); err != nil {
		return fmt.Errorf("remove filtered casbin rules: %w", err)
	}
	return nil
}
