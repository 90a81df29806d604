package handlers

import (
	"authgate/internal/middleware"
	"authgate/internal/services"
	"authgate/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List returns a paginated product listing
// GET /api/v1/products
func (h *ProductHandler) List(c *gin.Context) {
	var req services.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.BadRequestWith("Invalid query parameters", err.Error()))
		return
	}

	result, err := h.products.List(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, "Products", gin.H{
		"products":   result.Products,
		"pagination": result.Pagination,
	})
}

// Get returns a single product
// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, "Product", gin.H{"product": product})
}

// Create adds a product owned by the authenticated user
// POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.BadRequestWith("Validation failed", err.Error()))
		return
	}

	product, err := h.products.Create(c.Request.Context(), &req, middleware.GetUserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, "Product created", gin.H{"product": product})
}

// Update modifies a product the caller owns (admins may edit any)
// PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.BadRequestWith("Validation failed", err.Error()))
		return
	}

	product, err := h.products.Update(c.Request.Context(), c.Param("id"), &req,
		middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, "Product updated", gin.H{"product": product})
}

// Delete removes a product the caller owns (admins may delete any)
// DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	err := h.products.Delete(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, "Product deleted", nil)
}
