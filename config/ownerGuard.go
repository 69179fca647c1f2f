package config

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/fieldops_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Columns that mark a table as owner-scoped. Submission tables track the
// submitting team member as team_member_msisdn; onboarding tables as
// submitter_msisdn. member_details has neither, so it is never scoped.
var ownerColumns = []string{"team_member_msisdn", "submitter_msisdn"}

// OwnerGuardPlugin enforces per-member isolation by automatically scoping
// queries/updates/deletes to the request's member msisdn when the model has
// an owner column.
//
// NOTE:
// - This does NOT apply to Raw SQL queries. Those must filter manually.
// - The admin report export bypasses via an explicit context flag.
type OwnerGuardPlugin struct{}

func NewOwnerGuardPlugin() *OwnerGuardPlugin { return &OwnerGuardPlugin{} }

func (p *OwnerGuardPlugin) Name() string { return "owner_guard" }

func (p *OwnerGuardPlugin) Initialize(db *gorm.DB) error {
	// Query
	if err := db.Callback().Query().Before("gorm:query").Register("owner_guard:query", ownerGuardCallback); err != nil {
		return err
	}
	// Row (First/Take)
	if err := db.Callback().Row().Before("gorm:row").Register("owner_guard:row", ownerGuardCallback); err != nil {
		return err
	}
	// Update
	if err := db.Callback().Update().Before("gorm:update").Register("owner_guard:update", ownerGuardCallback); err != nil {
		return err
	}
	// Delete
	if err := db.Callback().Delete().Before("gorm:delete").Register("owner_guard:delete", ownerGuardCallback); err != nil {
		return err
	}
	return nil
}

func ownerGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if shouldBypassOwnerScope(ctx) {
		return
	}
	msisdn := memberMsisdnFromContext(ctx)
	if msisdn == "" {
		return
	}

	// Only apply if the current model/table includes an owner column.
	if db.Statement.Schema == nil {
		return
	}
	ownerCol := ""
	for _, f := range db.Statement.Schema.Fields {
		for _, candidate := range ownerColumns {
			if strings.EqualFold(f.DBName, candidate) {
				ownerCol = f.DBName
				break
			}
		}
		if ownerCol != "" {
			break
		}
	}
	if ownerCol == "" {
		return
	}

	// Don't duplicate an explicit owner filter.
	if whereHasOwnerColumn(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: ownerCol},
				Value:  msisdn,
			},
		},
	})
}

func memberMsisdnFromContext(ctx context.Context) string {
	v, _ := appctx.GetString(ctx, appctx.ContextKeyMemberMsisdn)
	return v
}

func shouldBypassOwnerScope(ctx context.Context) bool {
	v, ok := appctx.GetBool(ctx, appctx.ContextKeySkipOwnerScope)
	return ok && v
}

func whereHasOwnerColumn(c clause.Clause) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasOwnerColumn(e) {
			return true
		}
	}
	return false
}

func exprHasOwnerColumn(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsOwnerColumn(v.Column)
	case clause.Neq:
		return colIsOwnerColumn(v.Column)
	case clause.IN:
		return colIsOwnerColumn(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasOwnerColumn(x) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasOwnerColumn(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		// Best-effort for raw expressions.
		sql := strings.ToLower(v.SQL)
		for _, candidate := range ownerColumns {
			if strings.Contains(sql, candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func colIsOwnerColumn(col any) bool {
	name := ""
	switch c := col.(type) {
	case string:
		name = c
	case clause.Column:
		name = c.Name
	default:
		return false
	}
	for _, candidate := range ownerColumns {
		if strings.EqualFold(name, candidate) {
			return true
		}
	}
	return false
}
