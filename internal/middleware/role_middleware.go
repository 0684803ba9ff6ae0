package middleware

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

//
// --- Role-Based Middleware ---
//
// These run *after* AuthMiddleware: they read the userID from the context,
// look up the user's role, and enforce it.
//

func queryUserRole(db *sql.DB, userID int64) (string, error) {
	var role string
	err := db.QueryRow("SELECT role FROM users WHERE id = ?", userID).Scan(&role)
	if err != nil {
		return "", err
	}
	return role, nil
}

func requireRole(db *sql.DB, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDRaw, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context (AuthMiddleware must run first)"})
			c.Abort()
			return
		}

		role, err := queryUserRole(db, userIDRaw.(int64))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking role"})
			c.Abort()
			return
		}

		for _, a := range allowed {
			if role == a {
				c.Set("userRole", role)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied for your role"})
		c.Abort()
	}
}

// SellerMiddleware restricts a route group to sellers (admins pass too).
func SellerMiddleware(db *sql.DB) gin.HandlerFunc {
	return requireRole(db, models.RoleSeller, models.RoleAdministrator)
}

// BuyerMiddleware restricts a route group to buyers.
func BuyerMiddleware(db *sql.DB) gin.HandlerFunc {
	return requireRole(db, models.RoleBuyer, models.RoleAdministrator)
}

// AdminMiddleware restricts a route group to administrators.
func AdminMiddleware(db *sql.DB) gin.HandlerFunc {
	return requireRole(db, models.RoleAdministrator)
}
