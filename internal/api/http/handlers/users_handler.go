package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-api/internal/api/dto"
	"github.com/spec-kit/finance-api/internal/auth"
	"github.com/spec-kit/finance-api/internal/domain"
	"github.com/spec-kit/finance-api/internal/service"
	apperrors "github.com/spec-kit/finance-api/pkg/util"
)

// UsersHandler exposes account and session endpoints.
type UsersHandler struct {
	auth         *service.AuthService
	transactions *service.TransactionService
	sessions     *auth.SessionIssuer
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, transactions *service.TransactionService, sessions *auth.SessionIssuer) *UsersHandler {
	return &UsersHandler{auth: authService, transactions: transactions, sessions: sessions}
}

// SignUp handles POST /users/signup.
func (h *UsersHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.SignUp(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	c.Location("/users/" + user.ID)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Login handles POST /users/login. The session travels in the cookie only.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	identity, err := h.sessions.IssueSession(c, user)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	h.auth.SessionStarted(c.UserContext(), identity)

	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		User:    userResponse(user),
		Session: dto.SessionResponse{ExpiresAt: identity.ExpiresAt},
	}})
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.auth.Profile(c.UserContext(), identity)
	if err != nil {
		return err
	}
	txs, err := h.transactions.List(c.UserContext(), user.ID, service.TransactionListFilter{})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.ProfileResponse{
		UserResponse: userResponse(user),
		Transactions: transactionResponses(txs),
	}})
}

// ChangePassword handles PUT /users/password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.auth.ChangePassword(c.UserContext(), identity, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "password updated"}})
}

// Logout handles DELETE /users/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	h.auth.Logout(c.UserContext(), identity)
	h.sessions.EndSession(c)
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "logged out"}})
}

// DeleteAccount handles DELETE /users/delete-account.
func (h *UsersHandler) DeleteAccount(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	if err := h.auth.DeleteAccount(c.UserContext(), identity); err != nil {
		return err
	}
	h.sessions.EndSession(c)
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "account deleted"}})
}

func currentIdentity(c *fiber.Ctx) (*domain.Identity, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("session required")
	}
	return identity, nil
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
