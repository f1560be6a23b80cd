// handlers/progression_routes.go
package handlers

import (
	"errors"
	"strconv"

	"progression-engine/middleware"
	"progression-engine/models"
	"progression-engine/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SetupProgressionRoutes wires the engine's external operations. All engine
// semantics live in services/; these handlers only parse, dispatch and map
// errors to statuses.
func SetupProgressionRoutes(
	app *fiber.App,
	profiles *services.ProfileService,
	tasks *services.TaskService,
	targets *services.TargetService,
	leaderboard *services.LeaderboardService,
	ledger *services.RewardLedger,
) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		snapshot, err := profiles.GetProfileSnapshot(userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(snapshot)
	})

	securedGroup.Post("/user/tasks/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		taskID := c.Params("id")
		if _, err := uuid.Parse(taskID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task ID"})
		}

		var req struct {
			Steps int `json:"steps"`
		}
		if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Steps == 0 {
			req.Steps = 1
		}

		result, err := tasks.CompleteTask(userID, taskID, req.Steps)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})

	securedGroup.Post("/user/feed", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			Points int `json:"points"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		result, err := profiles.FeedProfile(userID, req.Points)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})

	securedGroup.Post("/user/targets/check", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		metric := models.MetricType(c.Query("metric"))
		result, err := targets.CheckTargets(userID, metric)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})

	securedGroup.Post("/user/store/:id/purchase", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		itemID := c.Params("id")
		if _, err := uuid.Parse(itemID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item ID"})
		}
		result, err := profiles.PurchaseItem(userID, itemID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})

	securedGroup.Post("/user/store/:id/equip", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		itemID := c.Params("id")
		if _, err := uuid.Parse(itemID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item ID"})
		}
		if err := profiles.EquipItem(userID, itemID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "item equipped", "item_id": itemID})
	})

	securedGroup.Get("/user/rewards/recent", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		records, err := ledger.Recent(userID, limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(records)
	})

	securedGroup.Get("/leaderboard", func(c *fiber.Ctx) error {
		metric := models.LeaderboardMetric(c.Query("metric", string(models.LeaderboardByLevel)))
		limit, _ := strconv.Atoi(c.Query("limit", "25"))

		if c.Query("cached") == "true" {
			rows, err := leaderboard.CachedRank(metric, limit)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(rows)
		}

		entries, err := leaderboard.Rank(metric, limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(entries)
	})
}

// respondError maps the engine's error taxonomy onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyCompleted):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrLevelTooLow):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrTransactionConflict):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
