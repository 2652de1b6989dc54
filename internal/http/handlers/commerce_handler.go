// Commerce HTTP handlers.
//
// This file exposes products and the orders placed for them:
//   - GET, POST              /products
//   - GET, PUT, PATCH, DELETE /products/{id}
//   - GET, POST              /orders        (POST honours Idempotency-Key)
//   - GET, PUT, PATCH, DELETE /orders/{id}
//
// PUT replaces the writable fields and requires the mandatory ones; PATCH
// changes only the fields present in the body.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-creative-marketplace/internal/http/middleware"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
	"github.com/tbourn/go-creative-marketplace/internal/services"
)

//
// DTOs
//

// ProductRequest is the JSON payload for product writes.
type ProductRequest struct {
	Creative    *uint            `json:"creative"    example:"2"`
	Name        *string          `json:"name"        example:"Print A3"`
	Description *string          `json:"description" example:"Signed fine art print"`
	Price       *decimal.Decimal `json:"price"       swaggertype:"string" example:"35.00"`
	Stock       *int             `json:"stock"       example:"1"`
	Image       *string          `json:"image"       example:"products/a3.jpg"`
}

func (r ProductRequest) input() services.ProductInput {
	return services.ProductInput{
		CreativeID:  r.Creative,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Image:       r.Image,
	}
}

// OrderRequest is the JSON payload for order writes. Client defaults to the
// caller; total_price defaults to price × quantity at creation.
type OrderRequest struct {
	Client     *uint            `json:"client"      example:"7"`
	Product    *uint            `json:"product"     example:"5"`
	Quantity   *int             `json:"quantity"    example:"2"`
	TotalPrice *decimal.Decimal `json:"total_price" swaggertype:"string" example:"70.00"`
	Status     *string          `json:"status"      example:"pending" enums:"pending,shipped,delivered,cancelled"`
}

func (r OrderRequest) input() services.OrderInput {
	return services.OrderInput{
		ClientID:   r.Client,
		ProductID:  r.Product,
		Quantity:   r.Quantity,
		TotalPrice: r.TotalPrice,
		Status:     r.Status,
	}
}

//
// Products
//

// ListProducts godoc
// @ID          listProducts
// @Summary     List products
// @Tags        Commerce
// @Produce     json
// @Param       creative_id  query     int     false  "Profile filter"
// @Param       search       query     string  false  "Name substring"
// @Success     200          {array}   handlers.ProductView
// @Failure     400          {object}  handlers.ErrorResponse  "Bad filter"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	creativeID, valid := queryID(c, "creative_id")
	if !valid {
		return
	}
	items, err := h.commerce.Products(c.Request.Context(), creativeID, c.Query("search"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, productViews(h.mediaBaseURL(c), items))
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get a product
// @Tags        Commerce
// @Produce     json
// @Param       id   path      int  true  "Product ID"
// @Success     200  {object}  handlers.ProductView
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Router      /products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}
	p, err := h.commerce.Product(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, productView(h.mediaBaseURL(c), p))
}

// CreateProduct godoc
// @ID          createProduct
// @Summary     Create a product
// @Tags        Commerce
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.ProductRequest  true  "Product"
// @Success     201   {object}  handlers.ProductView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403   {object}  handlers.ErrorResponse  "Not the profile owner"
// @Router      /products [post]
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.commerce.CreateProduct(c.Request.Context(), actor(c), req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, productView(h.mediaBaseURL(c), p))
}

// UpdateProduct godoc
// @ID          updateProduct
// @Summary     Update a product
// @Description PUT replaces the writable fields; PATCH changes only those sent.
// @Tags        Commerce
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                      true  "Product ID"
// @Param       body  body      handlers.ProductRequest  true  "Fields"
// @Success     200   {object}  handlers.ProductView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403   {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404   {object}  handlers.ErrorResponse  "Product not found"
// @Router      /products/{id} [put]
// @Router      /products/{id} [patch]
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}
	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	full := c.Request.Method == http.MethodPut
	p, err := h.commerce.UpdateProduct(c.Request.Context(), actor(c), id, req.input(), full)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, productView(h.mediaBaseURL(c), p))
}

// DeleteProduct godoc
// @ID          deleteProduct
// @Summary     Delete a product
// @Tags        Commerce
// @Security    BearerAuth
// @Param       id   path      int  true  "Product ID"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Router      /products/{id} [delete]
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}
	if err := h.commerce.DeleteProduct(c.Request.Context(), actor(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

//
// Orders
//

// ListOrders godoc
// @ID          listOrders
// @Summary     List orders
// @Description Non-admin callers only see orders they placed or that target their products.
// @Tags        Commerce
// @Produce     json
// @Security    BearerAuth
// @Param       client_id         query     int  false  "Ordering client"
// @Param       creative_user_id  query     int  false  "Owner of the ordered products"
// @Success     200               {array}   handlers.OrderView
// @Failure     403               {object}  handlers.ErrorResponse  "Forbidden"
// @Router      /orders [get]
func (h *Handlers) ListOrders(c *gin.Context) {
	clientID, valid := queryID(c, "client_id")
	if !valid {
		return
	}
	creativeUserID, valid := queryID(c, "creative_user_id")
	if !valid {
		return
	}
	items, err := h.commerce.Orders(c.Request.Context(), actor(c), repo.OrderFilter{
		ClientID:       clientID,
		CreativeUserID: creativeUserID,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, orderViews(items))
}

// CreateOrder godoc
// @ID          createOrder
// @Summary     Place an order
// @Description Retrying with the same Idempotency-Key returns the original order with Idempotency-Replayed: true.
// @Tags        Commerce
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header    string                 false  "Client-chosen retry key"
// @Param       body             body      handlers.OrderRequest  true   "Order"
// @Success     201              {object}  handlers.OrderView
// @Header      201              {string}  Idempotency-Replayed  "true when answered from a previous attempt"
// @Failure     400              {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403              {object}  handlers.ErrorResponse  "Forbidden"
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	a := actor(c)

	if middleware.IsReplay(c) {
		if id, has := middleware.ReplayedResourceID(c); has {
			if o, err := h.commerce.Order(ctx, a, id); err == nil {
				c.Header(middleware.HeaderIdempotencyReplayed, "true")
				ok(c, http.StatusCreated, orderView(o))
				return
			}
		}
	}

	var req OrderRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.commerce.CreateOrder(ctx, a, req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, o.ID)
	ok(c, http.StatusCreated, orderView(o))
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Get an order
// @Tags        Commerce
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Order ID"
// @Success     200  {object}  handlers.OrderView
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}
	o, err := h.commerce.Order(c.Request.Context(), actor(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, orderView(o))
}

// UpdateOrder godoc
// @ID          updateOrder
// @Summary     Update an order
// @Description PUT replaces the writable fields; PATCH changes only those sent. The total is never recomputed.
// @Tags        Commerce
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                    true  "Order ID"
// @Param       body  body      handlers.OrderRequest  true  "Fields"
// @Success     200   {object}  handlers.OrderView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403   {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404   {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id} [put]
// @Router      /orders/{id} [patch]
func (h *Handlers) UpdateOrder(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}
	var req OrderRequest
	if !bindJSON(c, &req) {
		return
	}
	full := c.Request.Method == http.MethodPut
	o, err := h.commerce.UpdateOrder(c.Request.Context(), actor(c), id, req.input(), full)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, orderView(o))
}

// DeleteOrder godoc
// @ID          deleteOrder
// @Summary     Delete an order
// @Tags        Commerce
// @Security    BearerAuth
// @Param       id   path      int  true  "Order ID"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id} [delete]
func (h *Handlers) DeleteOrder(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}
	if err := h.commerce.DeleteOrder(c.Request.Context(), actor(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
