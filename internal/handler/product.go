package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/middleware"
	"github.com/flicky/holohaven-api/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter, err := req.Filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *ProductHandler) Trending(c *gin.Context) {
	products, err := h.productService.Trending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Create accepts either a JSON body or a multipart form carrying an image.
func (h *ProductHandler) Create(c *gin.Context) {
	var (
		req   dto.CreateProductRequest
		image io.Reader
	)
	if isMultipart(c) {
		parsed, err := productForm(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req = parsed
		if file, ok := formImage(c, "image"); ok {
			defer file.Close()
			image = file
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.productService.Create(c.Request.Context(), middleware.GetUserID(c), req, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var (
		req   dto.UpdateProductRequest
		image io.Reader
	)
	if isMultipart(c) {
		parsed, err := productUpdateForm(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req = parsed
		if file, ok := formImage(c, "image"); ok {
			defer file.Close()
			image = file
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.productService.Update(c.Request.Context(), middleware.GetUserID(c), id, req, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) AddImage(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	file, ok := formImage(c, "image")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	product, err := h.productService.AddImage(c.Request.Context(), middleware.GetUserID(c), id, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func productForm(c *gin.Context) (dto.CreateProductRequest, error) {
	req := dto.CreateProductRequest{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		VtuberTag:   c.PostForm("vtuberTag"),
		Image:       c.PostForm("image"),
	}
	if raw := strings.TrimSpace(c.PostForm("price")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return req, err
		}
		req.Price = decimal.NullDecimal{Decimal: price, Valid: true}
	}
	return req, nil
}

// productUpdateForm keeps blank form fields unset so they leave the product
// untouched.
func productUpdateForm(c *gin.Context) (dto.UpdateProductRequest, error) {
	var req dto.UpdateProductRequest
	field := func(name string) *string {
		if v := c.PostForm(name); v != "" {
			return &v
		}
		return nil
	}
	req.Name = field("name")
	req.Description = field("description")
	req.Category = field("category")
	req.VtuberTag = field("vtuberTag")
	req.Image = field("image")

	if raw := strings.TrimSpace(c.PostForm("price")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return req, err
		}
		req.Price = &price
	}
	if raw := strings.TrimSpace(c.PostForm("isActive")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return req, err
		}
		req.IsActive = &active
	}
	return req, nil
}
