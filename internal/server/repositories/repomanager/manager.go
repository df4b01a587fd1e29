// Package repomanager vends repositories bound to a DB handle or transaction
// and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/refkeeper/internal/dbx"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/referrals"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Referrals(db dbx.DBTX) referrals.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
}
