package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/practicemarket/practicemarket-golang/internal/auth"
	"github.com/practicemarket/practicemarket-golang/internal/config"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

// --- User Registration ---

// RegisterUserInput is deliberately separate from models.User: we never
// accept an id, role or status from the caller.
type RegisterUserInput struct {
	FullName    string `json:"full_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	CompanyName string `json:"company_name"`
}

// RegisterSeller is the handler for POST /v1/register/seller
func (h *Handlers) RegisterSeller(c *gin.Context) {
	h.registerUser(c, models.RoleSeller)
}

// RegisterBuyer is the handler for POST /v1/register/buyer
func (h *Handlers) RegisterBuyer(c *gin.Context) {
	h.registerUser(c, models.RoleBuyer)
}

func (h *Handlers) registerUser(c *gin.Context, role string) {
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 1. --- Reject duplicate emails early ---
	var exists int
	err := h.DB.QueryRow("SELECT 1 FROM users WHERE email = ?", input.Email).Scan(&exists)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	}
	if err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	// 2. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	var companyName *string
	if input.CompanyName != "" {
		companyName = &input.CompanyName
	}

	// 3. --- Insert ---
	now := time.Now()
	result, err := h.DB.Exec(`
		INSERT INTO users (role, status, email, password_hash, full_name, phone_number,
			company_name, kyc_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		role, "active", input.Email, password.Hash, input.FullName, input.PhoneNumber,
		companyName, models.KYCStatusUnsubmitted, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	userID, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("%s registered successfully", role),
		"user_id": userID,
	})
}

// --- Login ---

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/login
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := h.DB.QueryRow(`
		SELECT id, role, status, email, password_hash, full_name
		FROM users WHERE email = ?`, input.Email).Scan(
		&user.ID, &user.Role, &user.Status, &user.Email, &user.PasswordHash, &user.FullName)
	if err != nil {
		// Same response for unknown email and bad password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	matches, err := password.Matches(input.Password)
	if err != nil || !matches {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if user.Status != "active" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account is not active"})
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":        user.ID,
			"role":      user.Role,
			"email":     user.Email,
			"full_name": user.FullName,
		},
	})
}

// GetMyProfile is the handler for GET /v1/profile/me
func (h *Handlers) GetMyProfile(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var user models.User
	err := h.DB.QueryRow(`
		SELECT id, role, status, email, full_name, phone_number, company_name,
			city, postcode, kyc_status, kyc_document_url, kyc_rejection_reason,
			created_at, updated_at
		FROM users WHERE id = ?`, userID).Scan(
		&user.ID, &user.Role, &user.Status, &user.Email, &user.FullName, &user.PhoneNumber,
		&user.CompanyName, &user.City, &user.Postcode, &user.KYCStatus,
		&user.KYCDocumentURL, &user.KYCRejectionReason, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// --- KYC Submission ---

// SubmitKYCDocuments is the handler for POST /v1/seller/kyc
// Accepts the verification document as a multipart upload, stores it, and
// queues the account for admin review.
func (h *Handlers) SubmitKYCDocuments(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	file, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No document uploaded"})
		return
	}

	uploadPath := filepath.Join(h.Cfg.UploadDir, "kyc")
	if _, err := os.Stat(uploadPath); os.IsNotExist(err) {
		os.MkdirAll(uploadPath, 0755)
	}

	ext := filepath.Ext(file.Filename)
	newFilename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	savePath := filepath.Join(uploadPath, newFilename)
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save document"})
		return
	}

	documentURL := fmt.Sprintf("%s/uploads/kyc/%s", h.Cfg.BaseURL, newFilename)

	_, err = h.DB.Exec(`
		UPDATE users
		SET kyc_status = ?, kyc_document_url = ?, kyc_rejection_reason = NULL, updated_at = ?
		WHERE id = ?`,
		models.KYCStatusPending, documentURL, time.Now(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Documents submitted for verification",
		"document_url": documentURL,
	})
}

// EnsureAdminUser creates the bootstrap administrator account at startup if
// it is missing. No-op when the env vars are unset.
func (h *Handlers) EnsureAdminUser(cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var exists int
	err := h.DB.QueryRow("SELECT 1 FROM users WHERE email = ?", cfg.AdminEmail).Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	var password models.Password
	if err := password.Set(cfg.AdminPassword); err != nil {
		return err
	}

	now := time.Now()
	_, err = h.DB.Exec(`
		INSERT INTO users (role, status, email, password_hash, full_name, phone_number,
			kyc_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		models.RoleAdministrator, "active", cfg.AdminEmail, password.Hash, "Administrator", "",
		models.KYCStatusVerified, now, now)
	return err
}
