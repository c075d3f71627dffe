package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/service"
)

type PromotionHandler struct {
	promotionService *service.PromotionService
	images           *service.ImageService
}

func NewPromotionHandler(promotionService *service.PromotionService, images *service.ImageService) *PromotionHandler {
	return &PromotionHandler{promotionService: promotionService, images: images}
}

func (h *PromotionHandler) List(c *gin.Context) {
	promos, err := h.promotionService.ListValid(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, promos)
}

func (h *PromotionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "promotion")
	if !ok {
		return
	}

	promo, err := h.promotionService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, promo)
}

// Create accepts JSON or a multipart form. List fields in a form arrive as
// JSON-encoded strings.
func (h *PromotionHandler) Create(c *gin.Context) {
	var req dto.CreatePromotionRequest
	if isMultipart(c) {
		parsed, err := promotionForm(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req = parsed
		if file, ok := formImage(c, "image"); ok {
			asset, err := h.images.Upload(c.Request.Context(), file)
			file.Close()
			if err != nil {
				respondError(c, err)
				return
			}
			req.Image = asset.URL
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	promo, err := h.promotionService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, promo)
}

func (h *PromotionHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "promotion")
	if !ok {
		return
	}

	var req dto.UpdatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	promo, err := h.promotionService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, promo)
}

func (h *PromotionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "promotion")
	if !ok {
		return
	}

	if err := h.promotionService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func promotionForm(c *gin.Context) (dto.CreatePromotionRequest, error) {
	req := dto.CreatePromotionRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Image:       c.PostForm("image"),
	}

	var err error
	if raw := c.PostForm("discountPercent"); raw != "" {
		if req.DiscountPercent, err = strconv.Atoi(raw); err != nil {
			return req, err
		}
	}
	if raw := c.PostForm("validFrom"); raw != "" {
		if req.ValidFrom, err = time.Parse(time.RFC3339, raw); err != nil {
			return req, err
		}
	}
	if raw := c.PostForm("validUntil"); raw != "" {
		if req.ValidUntil, err = time.Parse(time.RFC3339, raw); err != nil {
			return req, err
		}
	}
	if req.ApplicableProducts, err = dto.ParseStringList(c.PostForm("applicableProducts")); err != nil {
		return req, err
	}
	if req.ApplicableCategories, err = dto.ParseStringList(c.PostForm("applicableCategories")); err != nil {
		return req, err
	}
	if raw := c.PostForm("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return req, err
		}
		req.IsActive = &active
	}
	return req, nil
}
