package subtrack

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Subscriptions is the persistence surface for subscription records
type Subscriptions interface {
	repository.Repository[*Subscription]

	Create(ctx context.Context, record *Subscription, criteria ...repository.InsertCriteria) (*Subscription, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Subscription, criteria ...repository.InsertCriteria) (*Subscription, error)
	ListAll(ctx context.Context) ([]*Subscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Subscription, error)
	ListUpcomingRenewals(ctx context.Context, userID uuid.UUID, within time.Duration) ([]*Subscription, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	MarkOverdueExpired(ctx context.Context, now time.Time) (int64, error)
}

type subscriptions struct {
	repository.Repository[*Subscription]
	db *bun.DB
}

var (
	_ Subscriptions                        = (*subscriptions)(nil)
	_ repository.Repository[*Subscription] = (*subscriptions)(nil)
)

func NewSubscriptionsRepository(db *bun.DB) Subscriptions {
	repo := repository.NewRepository[*Subscription](db, repository.ModelHandlers[*Subscription]{
		NewRecord: func() *Subscription { return &Subscription{} },
		GetID: func(s *Subscription) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Subscription, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
	})

	return &subscriptions{
		Repository: repo,
		db:         db,
	}
}

func (r *subscriptions) Create(ctx context.Context, record *Subscription, criteria ...repository.InsertCriteria) (*Subscription, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *subscriptions) CreateTx(ctx context.Context, tx bun.IDB, record *Subscription, criteria ...repository.InsertCriteria) (*Subscription, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// ListAll returns every subscription in creation order, without the paging
// criteria of the embedded repository's List.
func (r *subscriptions) ListAll(ctx context.Context) ([]*Subscription, error) {
	records := []*Subscription{}
	err := r.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *subscriptions) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Subscription, error) {
	records := []*Subscription{}
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("renewal_date ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// ListUpcomingRenewals returns the user's active subscriptions whose renewal
// date falls between now and now+within.
func (r *subscriptions) ListUpcomingRenewals(ctx context.Context, userID uuid.UUID, within time.Duration) ([]*Subscription, error) {
	now := time.Now()
	records := []*Subscription{}
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.status = ?", SubscriptionActive).
		Where("?TableAlias.renewal_date >= ?", now).
		Where("?TableAlias.renewal_date <= ?", now.Add(within)).
		Order("renewal_date ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *subscriptions) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Subscription)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

// MarkOverdueExpired flips every active subscription with a renewal date in the
// past to expired. Used by the renewal sweeper.
func (r *subscriptions) MarkOverdueExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*Subscription)(nil)).
		Set("status = ?", SubscriptionExpired).
		Set("updated_at = ?", now).
		Where("status = ?", SubscriptionActive).
		Where("renewal_date < ?", now).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
