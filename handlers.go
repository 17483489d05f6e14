package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"kili/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.GET("/clients/:id", getClientHandler)
	authGroup.GET("/accounts", listAccountsHandler)
	authGroup.GET("/movements", listMovementsHandler)
	authGroup.POST("/movements", createMovementHandler)
	authGroup.GET("/movements/:id", getMovementHandler)
	authGroup.PUT("/movements/:id", updateMovementHandler)
	authGroup.PATCH("/movements/:id", updateMovementHandler)
	authGroup.DELETE("/movements/:id", deleteMovementHandler)

	adminGroup := authGroup.Group("/admin")
	adminGroup.Use(staffOnlyMiddleware())
	setupAdminRoutes(adminGroup)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		email, _ := claims["email"].(string)
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		c.Set("email", email)
		c.Next()
	}
}

// getClientFromContext fetches the currently authenticated client using the
// email set by jwtAuthMiddleware.
func getClientFromContext(c *gin.Context) (*models.Client, bool) {
	emailVal, _ := c.Get("email")
	if emailVal == nil {
		return nil, false
	}
	email := emailVal.(string)
	var client models.Client
	if err := db.Where("email = ?", email).First(&client).Error; err != nil {
		return nil, false
	}
	return &client, true
}

func meHandler(c *gin.Context) {
	client, ok := getClientFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": client.ID, "email": client.Email})
}

// getClientHandler returns the public profile of any client by id.
func getClientHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return
	}
	var client models.Client
	if err := db.First(&client, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}
	c.JSON(http.StatusOK, clientView(client))
}

// listAccountsHandler returns the caller's accounts, each expanded with its
// movements (newest first) and computed balance.
func listAccountsHandler(c *gin.Context) {
	client, ok := getClientFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
		return
	}
	var accounts []models.CurrentAccount
	if err := db.Where("client_id = ?", client.ID).Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	views := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		av, err := loadAccountView(a.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		views = append(views, av)
	}
	c.JSON(http.StatusOK, views)
}

// listMovementsHandler returns recent movements, newest id first. The 200-row
// cap keeps the unpaginated response bounded.
func listMovementsHandler(c *gin.Context) {
	var items []models.Movement
	if err := db.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	views := make([]MovementView, 0, len(items))
	for _, m := range items {
		views = append(views, movementView(m))
	}
	c.JSON(http.StatusOK, views)
}

func createMovementHandler(c *gin.Context) {
	var req struct {
		Amount      *int64 `json:"amount" binding:"required"`
		Account     uint   `json:"account" binding:"required"`
		Description string `json:"description" binding:"required,max=125"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var account models.CurrentAccount
	if err := db.First(&account, req.Account).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account does not exist"})
		return
	}
	m := models.Movement{AccountID: req.Account, Amount: *req.Amount, Description: req.Description}
	if err := db.Create(&m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, movementView(m))
}

func getMovementHandler(c *gin.Context) {
	var m models.Movement
	if err := db.First(&m, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "movement not found"})
		return
	}
	c.JSON(http.StatusOK, movementView(m))
}

// updateMovementHandler serves both PUT (full replace) and PATCH (partial).
// id and created are immutable and rejected when the caller tries to set them.
func updateMovementHandler(c *gin.Context) {
	var m models.Movement
	if err := db.First(&m, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "movement not found"})
		return
	}
	var req struct {
		ID          *uint   `json:"id"`
		Created     *string `json:"created"`
		Amount      *int64  `json:"amount"`
		Account     *uint   `json:"account"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID != nil || req.Created != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and created are immutable"})
		return
	}
	if c.Request.Method == http.MethodPut {
		// full replace requires every mutable field
		if req.Amount == nil || req.Account == nil || req.Description == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount, account and description are required"})
			return
		}
	}
	// same rules as create: description is mandatory and bounded
	if req.Description != nil && (*req.Description == "" || len(*req.Description) > models.DescriptionMaxLen) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description must be 1-125 characters"})
		return
	}
	if req.Account != nil {
		var account models.CurrentAccount
		if err := db.First(&account, *req.Account).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "account does not exist"})
			return
		}
		m.AccountID = *req.Account
	}
	if req.Amount != nil {
		m.Amount = *req.Amount
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	// Omit created so the insertion timestamp survives the save.
	if err := db.Model(&models.Movement{}).Where("id = ?", m.ID).Updates(map[string]any{
		"account_id": m.AccountID, "amount": m.Amount, "description": m.Description,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, movementView(m))
}

// deleteMovementHandler removes a movement unconditionally; movements have no
// dependents.
func deleteMovementHandler(c *gin.Context) {
	var m models.Movement
	if err := db.First(&m, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "movement not found"})
		return
	}
	if err := db.Delete(&m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "movement deleted"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	client, err := Authenticate(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := signAccessToken(client, time.Hour*24)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(client.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

func signAccessToken(client models.Client, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email":     client.Email,
		"client_id": client.ID,
		"exp":       time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(clientID uint) (string, error) {
	// generate random 32-byte token (hex)
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	// hash for storage
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{ClientID: clientID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var client models.Client
	if err := db.First(&client, rt.ClientID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
		return
	}
	tokenString, err := signAccessToken(client, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(client.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}
