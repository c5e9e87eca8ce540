package handlers

import (
	"net/http"
	"strings"

	"rental-manager/internal/database"
	"rental-manager/internal/models"
	"rental-manager/internal/search"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Indexer mirrors properties and tenants into the search engine
type Indexer interface {
	IndexProperty(p *models.Property) error
	IndexTenant(t *models.Tenant) error
	Remove(id string) error
	Search(params search.FilterParams) (*search.SearchResult, error)
}

// PropertyHandler serves property and tenant CRUD
type PropertyHandler struct {
	db      *database.GormDB
	indexer Indexer
	logger  *zap.Logger
}

func NewPropertyHandler(db *database.GormDB, indexer Indexer, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{db: db, indexer: indexer, logger: logger}
}

type propertyRequest struct {
	Name          string              `json:"name" binding:"required"`
	Address       string              `json:"address"`
	City          string              `json:"city"`
	PostalCode    string              `json:"postal_code"`
	PropertyType  string              `json:"property_type"`
	SizeSqm       decimal.NullDecimal `json:"size_sqm"`
	PurchasePrice decimal.NullDecimal `json:"purchase_price"`
	PurchaseDate  *string             `json:"purchase_date"`
	Notes         string              `json:"notes"`
}

func (r *propertyRequest) toModel() (*models.Property, error) {
	if strings.TrimSpace(r.Name) == "" {
		return nil, badRequest("name is required")
	}
	purchased, err := parseOptionalDate("purchase_date", r.PurchaseDate)
	if err != nil {
		return nil, err
	}
	return &models.Property{
		Name:          strings.TrimSpace(r.Name),
		Address:       r.Address,
		City:          r.City,
		PostalCode:    r.PostalCode,
		PropertyType:  r.PropertyType,
		SizeSqm:       r.SizeSqm,
		PurchasePrice: r.PurchasePrice,
		PurchaseDate:  purchased,
		Notes:         r.Notes,
	}, nil
}

type tenantRequest struct {
	PropertyID    *string             `json:"property_id"`
	FirstName     string              `json:"first_name" binding:"required"`
	LastName      string              `json:"last_name" binding:"required"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone"`
	LeaseStart    *string             `json:"lease_start"`
	LeaseEnd      *string             `json:"lease_end"`
	MonthlyRent   decimal.NullDecimal `json:"monthly_rent"`
	DepositAmount decimal.NullDecimal `json:"deposit_amount"`
	Notes         string              `json:"notes"`
	IsActive      *bool               `json:"is_active"`
}

func (r *tenantRequest) toModel() (*models.Tenant, error) {
	leaseStart, err := parseOptionalDate("lease_start", r.LeaseStart)
	if err != nil {
		return nil, err
	}
	leaseEnd, err := parseOptionalDate("lease_end", r.LeaseEnd)
	if err != nil {
		return nil, err
	}
	if leaseStart != nil && leaseEnd != nil && leaseEnd.Before(*leaseStart) {
		return nil, badRequest("lease_end must not be before lease_start")
	}
	if r.PropertyID != nil && *r.PropertyID == "" {
		r.PropertyID = nil
	}

	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &models.Tenant{
		PropertyID:    r.PropertyID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		LeaseStart:    leaseStart,
		LeaseEnd:      leaseEnd,
		MonthlyRent:   r.MonthlyRent,
		DepositAmount: r.DepositAmount,
		Notes:         r.Notes,
		IsActive:      active,
	}, nil
}

// indexProperty keeps search in step with writes; search is best effort
func (h *PropertyHandler) indexProperty(p *models.Property) {
	if h.indexer == nil {
		return
	}
	if err := h.indexer.IndexProperty(p); err != nil {
		h.logger.Warn("Failed to index property", zap.String("property_id", p.ID), zap.Error(err))
	}
}

func (h *PropertyHandler) indexTenant(t *models.Tenant) {
	if h.indexer == nil {
		return
	}
	if err := h.indexer.IndexTenant(t); err != nil {
		h.logger.Warn("Failed to index tenant", zap.String("tenant_id", t.ID), zap.Error(err))
	}
}

func (h *PropertyHandler) unindex(id string) {
	if h.indexer == nil {
		return
	}
	if err := h.indexer.Remove(id); err != nil {
		h.logger.Warn("Failed to remove search document", zap.String("id", id), zap.Error(err))
	}
}

// ListProperties returns the caller's properties
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	properties, err := h.db.ListProperties(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, properties)
}

// GetProperty returns one property
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	property, err := h.db.GetProperty(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

// CreateProperty adds a property
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest("%v", err))
		return
	}
	property, err := req.toModel()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.db.CreateProperty(c.Request.Context(), userID, property); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.indexProperty(property)
	c.JSON(http.StatusCreated, property)
}

// UpdateProperty replaces a property's editable fields
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest("%v", err))
		return
	}
	property, err := req.toModel()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	property.ID = c.Param("id")
	if err := h.db.UpdateProperty(c.Request.Context(), userID, property); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.indexProperty(property)
	c.JSON(http.StatusOK, property)
}

// DeleteProperty removes a property
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.db.DeleteProperty(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.unindex(id)
	c.Status(http.StatusNoContent)
}

// ListTenants returns the caller's tenants, optionally for one property
func (h *PropertyHandler) ListTenants(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	tenants, err := h.db.ListTenants(c.Request.Context(), userID, c.Query("property_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

// GetTenant returns one tenant
func (h *PropertyHandler) GetTenant(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	tenant, err := h.db.GetTenant(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// CreateTenant adds a tenant
func (h *PropertyHandler) CreateTenant(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest("%v", err))
		return
	}
	tenant, err := req.toModel()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.db.CreateTenant(c.Request.Context(), userID, tenant); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.indexTenant(tenant)
	c.JSON(http.StatusCreated, tenant)
}

// UpdateTenant replaces a tenant's editable fields
func (h *PropertyHandler) UpdateTenant(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest("%v", err))
		return
	}
	tenant, err := req.toModel()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	tenant.ID = c.Param("id")
	if err := h.db.UpdateTenant(c.Request.Context(), userID, tenant); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.indexTenant(tenant)
	c.JSON(http.StatusOK, tenant)
}

// DeleteTenant removes a tenant
func (h *PropertyHandler) DeleteTenant(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.db.DeleteTenant(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.unindex(id)
	c.Status(http.StatusNoContent)
}

// Search queries the caller's properties and tenants
func (h *PropertyHandler) Search(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	if h.indexer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	kind := c.Query("kind")
	if kind != "" && kind != search.KindProperty && kind != search.KindTenant {
		respondError(c, h.logger, badRequest("kind must be %q or %q", search.KindProperty, search.KindTenant))
		return
	}

	result, err := h.indexer.Search(search.FilterParams{
		UserID: userID,
		Query:  c.Query("q"),
		Kind:   kind,
		Limit:  int64(limit),
	})
	if err != nil {
		h.logger.Error("Search failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
