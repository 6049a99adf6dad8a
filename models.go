package subtrack

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record. The password hash never leaves the server.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeEmail lower-cases and trims the email so the unique index treats
// addresses case-insensitively.
func (u *User) NormalizeEmail() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}

// Currency is the subscription billing currency
type Currency = string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyVND Currency = "VND"
)

// Currencies lists every accepted billing currency
var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyVND}

// Frequency is the billing period of a subscription
type Frequency = string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Frequencies lists every accepted billing frequency
var Frequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly}

// renewalPeriods maps a frequency to the number of days until the next renewal
var renewalPeriods = map[Frequency]int{
	FrequencyDaily:   1,
	FrequencyWeekly:  7,
	FrequencyMonthly: 30,
	FrequencyYearly:  365,
}

// Category is the subscription category
type Category = string

const (
	CategorySport         Category = "sport"
	CategoryNews          Category = "new"
	CategoryEntertainment Category = "entertainment"
	CategoryLifestyle     Category = "lifestyle"
	CategoryTechnology    Category = "technology"
	CategoryFinance       Category = "finance"
	CategoryOther         Category = "other"
)

// Categories lists every accepted subscription category
var Categories = []Category{
	CategorySport,
	CategoryNews,
	CategoryEntertainment,
	CategoryLifestyle,
	CategoryTechnology,
	CategoryFinance,
	CategoryOther,
}

// SubscriptionStatus is the lifecycle state of a subscription
type SubscriptionStatus = string

const (
	// SubscriptionActive is a subscription that renews on its renewal date
	SubscriptionActive SubscriptionStatus = "active"
	// SubscriptionCancelled is a subscription stopped by its owner
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	// SubscriptionExpired is a subscription whose renewal date has passed
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Subscription is a recurring payment tracked for a user
type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions,alias:sub"`
	ID            uuid.UUID          `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID          `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User              `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Name          string             `bun:"name,notnull" json:"name,omitempty"`
	Price         float64            `bun:"price,notnull" json:"price"`
	Currency      Currency           `bun:"currency,notnull" json:"currency,omitempty"`
	Frequency     Frequency          `bun:"frequency,notnull" json:"frequency,omitempty"`
	Category      Category           `bun:"category,notnull" json:"category,omitempty"`
	PaymentMethod string             `bun:"payment_method,notnull" json:"payment_method,omitempty"`
	Status        SubscriptionStatus `bun:"status,notnull" json:"status,omitempty"`
	StartDate     time.Time          `bun:"start_date,notnull" json:"start_date"`
	RenewalDate   time.Time          `bun:"renewal_date,nullzero" json:"renewal_date"`
	CreatedAt     *time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureDefaults fills the enum fields the same way the schema defaults would
func (s *Subscription) EnsureDefaults() {
	if s.Currency == "" {
		s.Currency = CurrencyVND
	}
	if s.Frequency == "" {
		s.Frequency = FrequencyMonthly
	}
	if s.Status == "" {
		s.Status = SubscriptionActive
	}
}

// ComputeRenewalDate derives the renewal date from the start date and the
// billing frequency when the caller did not provide one.
func (s *Subscription) ComputeRenewalDate() {
	if !s.RenewalDate.IsZero() {
		return
	}

	days, ok := renewalPeriods[s.Frequency]
	if !ok {
		days = renewalPeriods[FrequencyMonthly]
	}

	s.RenewalDate = s.StartDate.AddDate(0, 0, days)
}

// RefreshStatus flips an overdue subscription to expired. Cancelled
// subscriptions are left alone.
func (s *Subscription) RefreshStatus(now time.Time) {
	if s.Status == SubscriptionCancelled {
		return
	}

	if !s.RenewalDate.IsZero() && s.RenewalDate.Before(now) {
		s.Status = SubscriptionExpired
	}
}

// ApplyLifecycle runs defaults, renewal computation and the expiry flip in the
// order the write path needs them.
func (s *Subscription) ApplyLifecycle(now time.Time) {
	s.EnsureDefaults()
	s.ComputeRenewalDate()
	s.RefreshStatus(now)
}

// IsOwnedBy reports whether the subscription belongs to the given user
func (s *Subscription) IsOwnedBy(userID uuid.UUID) bool {
	return s.UserID == userID
}
