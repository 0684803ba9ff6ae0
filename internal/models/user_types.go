package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User roles and account statuses.
const (
	RoleSeller        = "seller"
	RoleBuyer         = "buyer"
	RoleAdministrator = "administrator"
)

// KYC review states for seller verification documents.
const (
	KYCStatusUnsubmitted = "unsubmitted"
	KYCStatusPending     = "pending"
	KYCStatusVerified    = "verified"
	KYCStatusRejected    = "rejected"
)

// User is the model for the 'users' table. Nullable profile fields use
// pointers so they serialize cleanly.
type User struct {
	ID           int64  `json:"id" db:"id"`
	Role         string `json:"role" db:"role"`
	Status       string `json:"status" db:"status"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	FullName     string `json:"full_name" db:"full_name"`
	PhoneNumber  string `json:"phone_number" db:"phone_number"`

	CompanyName *string `json:"company_name,omitempty" db:"company_name"`
	City        *string `json:"city,omitempty" db:"city"`
	Postcode    *string `json:"postcode,omitempty" db:"postcode"`

	// Seller verification documents, reviewed by admins.
	KYCStatus          string  `json:"kyc_status" db:"kyc_status"`
	KYCDocumentURL     *string `json:"kyc_document_url,omitempty" db:"kyc_document_url"`
	KYCRejectionReason *string `json:"kyc_rejection_reason,omitempty" db:"kyc_rejection_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Password helper.
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
