package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

//
// --- Subscription Handlers ---
//
// Payment collection happens off-platform; admins assign plans once billing
// clears.
//

// GetSubscriptionPlans is the handler for GET /v1/subscriptions/plans
func (h *Handlers) GetSubscriptionPlans(c *gin.Context) {
	rows, err := h.DB.Query("SELECT id, name, price_monthly, max_listings, description FROM plans ORDER BY price_monthly ASC")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	plans := []*models.Plan{}
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceMonthly, &p.MaxListings, &p.Description); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan plan row"})
			return
		}
		plans = append(plans, &p)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// AssignSubscriptionInput defines the JSON for an admin plan assignment.
type AssignSubscriptionInput struct {
	PlanID int64 `json:"plan_id" binding:"required"`
	Months int   `json:"months" binding:"required,gte=1,lte=24"`
}

// AssignSubscription is the handler for POST /v1/admin/users/:id/subscription
func (h *Handlers) AssignSubscription(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var input AssignSubscriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var planName string
	if err := h.DB.QueryRow("SELECT name FROM plans WHERE id = ?", input.PlanID).Scan(&planName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	expires := now.AddDate(0, input.Months, 0)
	_, err = tx.Exec(`
		INSERT INTO subscriptions (user_id, plan_id, starts_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		userID, input.PlanID, now, expires)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign subscription"})
		return
	}

	message := fmt.Sprintf("Your %s subscription is active until %s.", planName, expires.Format("2 January 2006"))
	if err := h.AddNotification(tx, userID, message, "/account/subscription"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription assigned"})
}
