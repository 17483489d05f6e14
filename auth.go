package main

import (
	"fmt"
	"strings"

	"kili/models"

	"golang.org/x/crypto/bcrypt"
)

// CreateClient builds and persists a client from validated arguments. The
// email is normalized, the password stored only as a bcrypt hash. All five
// arguments are required.
func CreateClient(email, firstName, lastName, phone, password string) (models.Client, error) {
	email = normalizeEmail(email)
	if email == "" || firstName == "" || lastName == "" || phone == "" || password == "" {
		return models.Client{}, fmt.Errorf("clients require an email, a first name, a last name, a phone and a password")
	}
	if !phoneRE.MatchString(phone) {
		return models.Client{}, fmt.Errorf("invalid phone format")
	}
	// pre-check existing (optimistic)
	var existing models.Client
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return models.Client{}, fmt.Errorf("email already registered")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Client{}, err
	}
	client := models.Client{
		Email:          email,
		FirstName:      firstName,
		LastName:       lastName,
		Phone:          phone,
		HashedPassword: hashedPassword,
		IsActive:       true,
	}
	if err := db.Create(&client).Error; err != nil {
		if isUniqueConstraintError(err) { // race condition after initial check
			return models.Client{}, fmt.Errorf("email already registered")
		}
		return models.Client{}, err
	}
	return client, nil
}

// CreateSuperuser creates a client with all privilege flags set. The same
// five arguments are required as for CreateClient.
func CreateSuperuser(email, firstName, lastName, phone, password string) (models.Client, error) {
	client, err := CreateClient(email, firstName, lastName, phone, password)
	if err != nil {
		return models.Client{}, err
	}
	client.IsActive = true
	client.IsAdmin = true
	client.IsStaff = true
	if err := db.Model(&client).Updates(map[string]any{
		"is_active": true, "is_admin": true, "is_staff": true,
	}).Error; err != nil {
		return models.Client{}, err
	}
	return client, nil
}

// Authenticate verifies email+password and returns the matching active client.
func Authenticate(email, password string) (models.Client, error) {
	email = normalizeEmail(email)
	var client models.Client
	if err := db.Where("email = ?", email).First(&client).Error; err != nil {
		return models.Client{}, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(client.HashedPassword, []byte(password)); err != nil {
		return models.Client{}, fmt.Errorf("invalid credentials")
	}
	if !client.IsActive {
		return models.Client{}, fmt.Errorf("invalid credentials")
	}
	return client, nil
}

// normalizeEmail trims the address and lowercases its domain part, the same
// normalization the login lookup applies.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "foreign key") || strings.Contains(s, "violates") || strings.Contains(s, "constraint")
}
