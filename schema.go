package subtrack

import (
	"context"

	"github.com/uptrace/bun"
)

// RegisterModels wires the model relations into the bun instance. Call before
// querying so belongs-to joins resolve.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*User)(nil))
	db.RegisterModel((*Subscription)(nil))
}

// CreateSchema bootstraps the tables and indexes. Idempotent, safe to run on
// every boot.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Subscription)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	// Queries for a user's subscriptions filter on user_id.
	if _, err := db.NewCreateIndex().
		Model((*Subscription)(nil)).
		Index("idx_subscriptions_user_id").
		Column("user_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	return nil
}
