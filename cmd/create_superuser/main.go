package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"kili/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 6 {
		fmt.Println("usage: go run ./cmd/create_superuser <email> <first_name> <last_name> <phone> <password>")
		os.Exit(2)
	}
	email := strings.TrimSpace(os.Args[1])
	firstName := os.Args[2]
	lastName := os.Args[3]
	phone := os.Args[4]
	password := os.Args[5]

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	// check existing
	var existing models.Client
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		fmt.Printf("client %s already exists (id=%d)\n", email, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	client := models.Client{
		Email:          email,
		FirstName:      firstName,
		LastName:       lastName,
		Phone:          phone,
		HashedPassword: hpw,
		IsActive:       true,
		IsAdmin:        true,
		IsStaff:        true,
	}
	if err := db.Create(&client).Error; err != nil {
		log.Fatalf("failed to create superuser: %v", err)
	}
	fmt.Printf("created superuser %s id=%d\n", client.Email, client.ID)
}
