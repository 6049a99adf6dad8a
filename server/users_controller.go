package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/subtrackd/subtrack"
)

func (s *Server) listUsers(c *fiber.Ctx) error {
	users, err := s.repo.Users().ListAll(c.UserContext())
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Get all users successfully!", fiber.Map{
		"users": users,
	})
}

func (s *Server) showUser(c *fiber.Ctx) error {
	caller, ok := s.currentUser(c)
	if !ok {
		return subtrack.ErrUnauthorized
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	// Resource-level authorization: callers may only read themselves.
	if caller.ID != id {
		return subtrack.ErrOwnershipMismatch
	}

	user, err := s.repo.Users().GetByID(c.UserContext(), id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return errors.New("There is no user of this id!", errors.CategoryNotFound).
				WithCode(errors.CodeNotFound)
		}
		return err
	}

	return respond(c, fiber.StatusOK, "Get a user successfully!", fiber.Map{
		"user": user,
	})
}

func (s *Server) createUserPlaceholder(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "CREATE a user", nil)
}

func (s *Server) updateUserPlaceholder(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "UPDATE a specific user", nil)
}

func (s *Server) deleteUserPlaceholder(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "DELETE a specific user", nil)
}

// parseID reads the ":id" path parameter. A value that is not a UUID behaves
// like a missing record, not a client syntax error.
func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, subtrack.ErrResourceNotFound
	}
	return id, nil
}
