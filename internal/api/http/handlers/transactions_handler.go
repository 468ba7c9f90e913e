package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-api/internal/api/dto"
	"github.com/spec-kit/finance-api/internal/auth"
	"github.com/spec-kit/finance-api/internal/domain"
	"github.com/spec-kit/finance-api/internal/service"
	apperrors "github.com/spec-kit/finance-api/pkg/util"
)

// TransactionsHandler manages /users/:userId/transactions. The guard has
// already matched :userId against the session.
type TransactionsHandler struct {
	service *service.TransactionService
}

// NewTransactionsHandler constructs handler.
func NewTransactionsHandler(transactionService *service.TransactionService) *TransactionsHandler {
	return &TransactionsHandler{service: transactionService}
}

// List GET /users/:userId/transactions.
func (h *TransactionsHandler) List(c *fiber.Ctx) error {
	filter, err := parseTransactionQuery(c)
	if err != nil {
		return err
	}
	txs, err := h.service.List(c.UserContext(), ownerID(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transactionResponses(txs)})
}

// Get GET /users/:userId/transactions/:id.
func (h *TransactionsHandler) Get(c *fiber.Ctx) error {
	tx, err := h.service.Get(c.UserContext(), ownerID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transactionResponse(tx)})
}

// Create POST /users/:userId/transactions.
func (h *TransactionsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	userID := ownerID(c)
	tx, err := h.service.Create(c.UserContext(), userID, service.TransactionCreateInput{
		Amount:      req.Amount,
		Description: req.Description,
		Type:        req.Type,
		Category:    req.Category,
		Date:        req.Date,
	})
	if err != nil {
		return err
	}

	c.Location("/users/" + userID + "/transactions/" + tx.ID)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": transactionResponse(tx)})
}

// Update PUT /users/:userId/transactions/:id.
func (h *TransactionsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	tx, err := h.service.Update(c.UserContext(), ownerID(c), c.Params("id"), service.TransactionUpdateInput{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transactionResponse(tx)})
}

// Delete DELETE /users/:userId/transactions/:id.
func (h *TransactionsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), ownerID(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "transaction deleted"}})
}

// ownerID returns the session's user id. The guard has matched it against
// :userId, which may differ in letter case.
func ownerID(c *fiber.Ctx) string {
	if identity, ok := auth.IdentityFromContext(c); ok {
		return identity.UserID
	}
	return c.Params("userId")
}

func parseTransactionQuery(c *fiber.Ctx) (service.TransactionListFilter, error) {
	filter := service.TransactionListFilter{}
	if typ := strings.TrimSpace(c.Query("type")); typ != "" {
		t := domain.TransactionType(typ)
		filter.Type = &t
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filter.Category = &category
	}
	for _, bound := range []struct {
		name string
		dst  **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := c.Query(bound.name)
		if raw == "" {
			continue
		}
		parsed, err := parseDate(raw)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid "+bound.name+" date", map[string]any{bound.name: raw})
		}
		*bound.dst = &parsed
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

func transactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Amount:      tx.Amount,
		Date:        tx.Date,
		Description: tx.Description,
		Type:        tx.Type,
		Category:    tx.Category,
	}
}

func transactionResponses(txs []domain.Transaction) []dto.TransactionResponse {
	items := make([]dto.TransactionResponse, 0, len(txs))
	for i := range txs {
		items = append(items, transactionResponse(&txs[i]))
	}
	return items
}
