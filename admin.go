package main

import (
	"net/http"
	"strconv"
	"time"

	"kili/models"

	"github.com/gin-gonic/gin"
)

// Operator surface over clients and accounts. Everything here requires
// is_staff; privilege flags are additionally gated on is_admin.

func setupAdminRoutes(g *gin.RouterGroup) {
	g.GET("/clients", adminListClientsHandler)
	g.POST("/clients", adminCreateClientHandler)
	g.GET("/clients/:id", adminGetClientHandler)
	g.PUT("/clients/:id", adminUpdateClientHandler)
	g.DELETE("/clients/:id", adminDeleteClientHandler)
	g.GET("/accounts", adminListAccountsHandler)
	g.POST("/accounts", adminCreateAccountHandler)
	g.GET("/accounts/:id", adminGetAccountHandler)
	g.DELETE("/accounts/:id", adminDeleteAccountHandler)
}

func staffOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := getClientFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
			c.Abort()
			return
		}
		if !client.IsStaff {
			c.JSON(http.StatusForbidden, gin.H{"error": "staff access required"})
			c.Abort()
			return
		}
		c.Set("operator", client)
		c.Next()
	}
}

func operatorFromContext(c *gin.Context) *models.Client {
	v, _ := c.Get("operator")
	op, _ := v.(*models.Client)
	return op
}

// adminClientView is the operator projection. The password is shown only as
// an opaque marker, never the hash bytes and never plaintext. Privilege
// flags are included only for admin operators.
type adminClientView struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Password  string    `json:"password"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
	IsActive  *bool     `json:"is_active,omitempty"`
	IsAdmin   *bool     `json:"is_admin,omitempty"`
	IsStaff   *bool     `json:"is_staff,omitempty"`
}

func adminClientViewFor(op *models.Client, c models.Client) adminClientView {
	v := adminClientView{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Password:  "(hashed)",
		Created:   c.CreatedAt,
		Updated:   c.UpdatedAt,
	}
	if op != nil && op.IsAdmin {
		v.IsActive = &c.IsActive
		v.IsAdmin = &c.IsAdmin
		v.IsStaff = &c.IsStaff
	}
	return v
}

func adminListClientsHandler(c *gin.Context) {
	op := operatorFromContext(c)
	q := db.Model(&models.Client{})
	if search := c.Query("search"); search != "" {
		q = q.Where("email ILIKE ?", "%"+search+"%")
	}
	var clients []models.Client
	if err := q.Order("is_active desc, id").Limit(200).Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	views := make([]adminClientView, 0, len(clients))
	for _, cl := range clients {
		views = append(views, adminClientViewFor(op, cl))
	}
	c.JSON(http.StatusOK, views)
}

// adminCreateClientHandler mirrors the create-time double-entry flow: the two
// password fields must match or the action is rejected.
func adminCreateClientHandler(c *gin.Context) {
	op := operatorFromContext(c)
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		FirstName string `json:"first_name" binding:"required,max=30"`
		LastName  string `json:"last_name" binding:"required,max=30"`
		Phone     string `json:"phone" binding:"required,max=15,phone"`
		Password1 string `json:"password1" binding:"required"`
		Password2 string `json:"password2" binding:"required"`
		Superuser bool   `json:"superuser"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Password1 != req.Password2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords don't match"})
		return
	}
	if req.Superuser && (op == nil || !op.IsAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required to create a superuser"})
		return
	}
	create := CreateClient
	if req.Superuser {
		create = CreateSuperuser
	}
	client, err := create(req.Email, req.FirstName, req.LastName, req.Phone, req.Password1)
	if err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, adminClientViewFor(op, client))
}

func adminGetClientHandler(c *gin.Context) {
	var client models.Client
	if err := db.First(&client, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}
	c.JSON(http.StatusOK, adminClientViewFor(operatorFromContext(c), client))
}

// adminUpdateClientHandler edits profile fields. Privilege flags are applied
// only for admin operators; created/updated and the password hash are
// read-only here.
func adminUpdateClientHandler(c *gin.Context) {
	op := operatorFromContext(c)
	var client models.Client
	if err := db.First(&client, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}
	var req struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name" binding:"omitempty,max=30"`
		LastName  *string `json:"last_name" binding:"omitempty,max=30"`
		Phone     *string `json:"phone" binding:"omitempty,max=15,phone"`
		IsActive  *bool   `json:"is_active"`
		IsAdmin   *bool   `json:"is_admin"`
		IsStaff   *bool   `json:"is_staff"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := map[string]any{}
	if req.Email != nil {
		updates["email"] = normalizeEmail(*req.Email)
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.IsActive != nil || req.IsAdmin != nil || req.IsStaff != nil {
		if op == nil || !op.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required to change privilege flags"})
			return
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.IsAdmin != nil {
			updates["is_admin"] = *req.IsAdmin
		}
		if req.IsStaff != nil {
			updates["is_staff"] = *req.IsStaff
		}
	}
	if len(updates) > 0 {
		if err := db.Model(&client).Updates(updates).Error; err != nil {
			if isUniqueConstraintError(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	if err := db.First(&client, client.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reload failed"})
		return
	}
	c.JSON(http.StatusOK, adminClientViewFor(op, client))
}

// adminDeleteClientHandler rejects the delete while accounts still reference
// the client (delete-protection, not cascade).
func adminDeleteClientHandler(c *gin.Context) {
	var client models.Client
	if err := db.First(&client, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}
	var dependents int64
	db.Model(&models.CurrentAccount{}).Where("client_id = ?", client.ID).Count(&dependents)
	if dependents > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "client has accounts and cannot be deleted"})
		return
	}
	if err := db.Delete(&client).Error; err != nil {
		if isForeignKeyViolation(err) { // race: account created after the check
			c.JSON(http.StatusConflict, gin.H{"error": "client has accounts and cannot be deleted"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "client deleted"})
}

type adminAccountView struct {
	ID      uint       `json:"id"`
	Client  uint       `json:"client"`
	Moves   []MoveView `json:"moves"`
	Balance int64      `json:"balance"`
}

func adminListAccountsHandler(c *gin.Context) {
	q := db.Model(&models.CurrentAccount{})
	if v := c.Query("client"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			q = q.Where("client_id = ?", id)
		}
	}
	var accounts []models.CurrentAccount
	if err := q.Order("id").Limit(200).Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	views := make([]adminAccountView, 0, len(accounts))
	for _, a := range accounts {
		av, err := loadAccountView(a.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		views = append(views, adminAccountView{ID: a.ID, Client: a.ClientID, Moves: av.Moves, Balance: av.Balance})
	}
	c.JSON(http.StatusOK, views)
}

// adminCreateAccountHandler opens an account for a client. There is no public
// creation endpoint; accounts exist only administratively.
func adminCreateAccountHandler(c *gin.Context) {
	var req struct {
		Client uint `json:"client" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var client models.Client
	if err := db.First(&client, req.Client).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client does not exist"})
		return
	}
	account := models.CurrentAccount{ClientID: client.ID}
	if err := db.Create(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": account.ID, "client": account.ClientID})
}

func adminGetAccountHandler(c *gin.Context) {
	var account models.CurrentAccount
	if err := db.First(&account, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	av, err := loadAccountView(account.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, adminAccountView{ID: account.ID, Client: account.ClientID, Moves: av.Moves, Balance: av.Balance})
}

// adminDeleteAccountHandler rejects the delete while movements still
// reference the account.
func adminDeleteAccountHandler(c *gin.Context) {
	var account models.CurrentAccount
	if err := db.First(&account, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	var dependents int64
	db.Model(&models.Movement{}).Where("account_id = ?", account.ID).Count(&dependents)
	if dependents > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "account has movements and cannot be deleted"})
		return
	}
	if err := db.Delete(&account).Error; err != nil {
		if isForeignKeyViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "account has movements and cannot be deleted"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
