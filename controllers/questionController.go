package controllers

import (
	"context"
	"encoding/json"
	"strconv"

	"analytics-gateway/database"
	"analytics-gateway/middlewares"
	"analytics-gateway/models"
	"analytics-gateway/services"
	"analytics-gateway/utils"

	"github.com/gofiber/fiber/v2"
)

// QuestionAsker forwards questions and lists their audit trail.
type QuestionAsker interface {
	Ask(ctx context.Context, storeID, question string) (json.RawMessage, error)
	Logs(ctx context.Context, f database.RequestLogFilter) ([]models.RequestLog, error)
}

type QuestionController struct {
	questions QuestionAsker
}

func NewQuestionController(q QuestionAsker) *QuestionController {
	return &QuestionController{questions: q}
}

type questionRequest struct {
	StoreID  string `json:"store_id" validate:"required"`
	Question string `json:"question" validate:"required"`
}

// Create forwards a question and relays the analytics payload unchanged.
func (q *QuestionController) Create(c *fiber.Ctx) error {
	var req questionRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	if !middlewares.ShopAllowed(c, req.StoreID) {
		return services.ForbiddenError("Token is not valid for this store")
	}

	payload, err := q.questions.Ask(c.UserContext(), req.StoreID, req.Question)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

// Logs lists recent forwarded questions, newest first.
// Query: store_id, success (bool), limit (max 100).
func (q *QuestionController) Logs(c *fiber.Ctx) error {
	f := database.RequestLogFilter{
		StoreID: c.Query("store_id"),
		Limit:   utils.ParseIntDefault(c.Query("limit"), database.MaxRequestLogs),
	}
	shop := middlewares.TokenShop(c)
	if shop == "" {
		return services.ForbiddenError("Request logs require an API token")
	}
	if f.StoreID != "" && !middlewares.ShopAllowed(c, f.StoreID) {
		return services.ForbiddenError("Token is not valid for this store")
	}
	f.StoreID = shop
	if raw := c.Query("success"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return services.ValidationError("Invalid success parameter", raw)
		}
		f.Success = &b
	}

	logs, err := q.questions.Logs(c.UserContext(), f)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": logs, "count": len(logs)})
}
