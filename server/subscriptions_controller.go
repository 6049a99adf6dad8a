package server

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"

	"github.com/subtrackd/subtrack"
)

// SubscriptionRequest is the payload for creating or replacing a subscription
type SubscriptionRequest struct {
	Name          string    `form:"name" json:"name"`
	Price         *float64  `form:"price" json:"price"`
	Currency      string    `form:"currency" json:"currency"`
	Frequency     string    `form:"frequency" json:"frequency"`
	Category      string    `form:"category" json:"category"`
	PaymentMethod string    `form:"payment_method" json:"payment_method"`
	StartDate     time.Time `form:"start_date" json:"start_date"`
	RenewalDate   time.Time `form:"renewal_date" json:"renewal_date"`
}

// Validate will run validation rules
func (r SubscriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required,
			validation.Length(2, 100),
		),
		// NotNil instead of Required: a zero price is legitimate, only an
		// absent one is not.
		validation.Field(
			&r.Price,
			validation.NotNil,
			validation.Min(0.0),
		),
		validation.Field(
			&r.Currency,
			validation.In(anySlice(subtrack.Currencies)...),
		),
		validation.Field(
			&r.Frequency,
			validation.In(anySlice(subtrack.Frequencies)...),
		),
		validation.Field(
			&r.Category,
			validation.Required,
			validation.In(anySlice(subtrack.Categories)...),
		),
		validation.Field(
			&r.PaymentMethod,
			validation.Required,
		),
		validation.Field(
			&r.StartDate,
			validation.Required,
			validation.By(startDateNotInFuture),
		),
		validation.Field(
			&r.RenewalDate,
			validation.By(r.renewalAfterStart),
		),
	)
}

func startDateNotInFuture(value any) error {
	date, ok := value.(time.Time)
	if !ok || date.IsZero() {
		return nil
	}
	if date.After(time.Now()) {
		return errors.New("must not be in the future", errors.CategoryValidation)
	}
	return nil
}

func (r SubscriptionRequest) renewalAfterStart(value any) error {
	date, ok := value.(time.Time)
	if !ok || date.IsZero() {
		return nil
	}
	if !date.After(r.StartDate) {
		return errors.New("must be after the start date", errors.CategoryValidation)
	}
	return nil
}

func (r SubscriptionRequest) apply(sub *subtrack.Subscription) {
	sub.Name = r.Name
	if r.Price != nil {
		sub.Price = *r.Price
	}
	sub.Currency = r.Currency
	sub.Frequency = r.Frequency
	sub.Category = r.Category
	sub.PaymentMethod = r.PaymentMethod
	sub.StartDate = r.StartDate
	sub.RenewalDate = r.RenewalDate
}

func (s *Server) listSubscriptions(c *fiber.Ctx) error {
	subs, err := s.repo.Subscriptions().ListAll(c.UserContext())
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Get all subscriptions successfully!", fiber.Map{
		"subscriptions": subs,
	})
}

func (s *Server) showSubscription(c *fiber.Ctx) error {
	sub, err := s.ownedSubscription(c)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Get a subscription successfully!", fiber.Map{
		"subscription": sub,
	})
}

func (s *Server) createSubscription(c *fiber.Ctx) error {
	caller, ok := s.currentUser(c)
	if !ok {
		return subtrack.ErrUnauthorized
	}

	payload := new(SubscriptionRequest)
	if err := c.BodyParser(payload); err != nil {
		return errInvalidPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	sub := &subtrack.Subscription{UserID: caller.ID}
	payload.apply(sub)
	sub.ApplyLifecycle(time.Now())

	sub, err := s.repo.Subscriptions().Create(c.UserContext(), sub)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "Create subscription successfully!", fiber.Map{
		"subscription": sub,
	})
}

func (s *Server) updateSubscription(c *fiber.Ctx) error {
	sub, err := s.ownedSubscription(c)
	if err != nil {
		return err
	}

	payload := new(SubscriptionRequest)
	if err := c.BodyParser(payload); err != nil {
		return errInvalidPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	payload.apply(sub)
	sub.ApplyLifecycle(time.Now())

	sub, err = s.repo.Subscriptions().Update(c.UserContext(), sub, repository.UpdateByID(sub.ID.String()))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Update subscription successfully!", fiber.Map{
		"subscription": sub,
	})
}

func (s *Server) cancelSubscription(c *fiber.Ctx) error {
	sub, err := s.ownedSubscription(c)
	if err != nil {
		return err
	}

	if sub.Status == subtrack.SubscriptionCancelled {
		return errors.New("Subscription is already cancelled", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	sub.Status = subtrack.SubscriptionCancelled

	sub, err = s.repo.Subscriptions().Update(c.UserContext(), sub, repository.UpdateByID(sub.ID.String()))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Cancel subscription successfully!", fiber.Map{
		"subscription": sub,
	})
}

func (s *Server) deleteSubscription(c *fiber.Ctx) error {
	sub, err := s.ownedSubscription(c)
	if err != nil {
		return err
	}

	if err := s.repo.Subscriptions().DeleteByID(c.UserContext(), sub.ID); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Delete subscription successfully!", nil)
}

func (s *Server) listUserSubscriptions(c *fiber.Ctx) error {
	caller, ok := s.currentUser(c)
	if !ok {
		return subtrack.ErrUnauthorized
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	if caller.ID != id {
		return subtrack.ErrOwnershipMismatch
	}

	subs, err := s.repo.Subscriptions().ListByUser(c.UserContext(), id)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Get all subscriptions of user successfully!", fiber.Map{
		"subscriptions": subs,
	})
}

func (s *Server) upcomingRenewals(c *fiber.Ctx) error {
	caller, ok := s.currentUser(c)
	if !ok {
		return subtrack.ErrUnauthorized
	}

	days := c.QueryInt("days", 7)
	if days < 1 || days > 365 {
		return errors.New("days must be between 1 and 365", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	subs, err := s.repo.Subscriptions().ListUpcomingRenewals(
		c.UserContext(),
		caller.ID,
		time.Duration(days)*24*time.Hour,
	)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Get upcoming renewals successfully!", fiber.Map{
		"subscriptions": subs,
	})
}

// ownedSubscription loads the ":id" subscription and enforces that it belongs
// to the authenticated caller.
func (s *Server) ownedSubscription(c *fiber.Ctx) (*subtrack.Subscription, error) {
	caller, ok := s.currentUser(c)
	if !ok {
		return nil, subtrack.ErrUnauthorized
	}

	id, err := parseID(c)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.Subscriptions().GetByID(c.UserContext(), id.String())
	if err != nil {
		return nil, err
	}

	if !sub.IsOwnedBy(caller.ID) {
		return nil, subtrack.ErrOwnershipMismatch
	}

	return sub, nil
}

func anySlice[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
