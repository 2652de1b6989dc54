package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-creative-marketplace/internal/http/middleware"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
	"github.com/tbourn/go-creative-marketplace/internal/services"
)

// BookingRequest is the JSON payload for booking writes. Client defaults to
// the caller on create.
type BookingRequest struct {
	Client       *uint   `json:"client"        example:"7"`
	Creative     *uint   `json:"creative"      example:"2"`
	Package      *uint   `json:"package"       example:"3"`
	BookingDate  *string `json:"booking_date"  example:"2025-07-01"`
	BookingTime  *string `json:"booking_time"  example:"10:30"`
	ProjectType  *string `json:"project_type"  example:"Hourly"`
	Requirements *string `json:"requirements"  example:"Outdoor portraits"`
	Status       *string `json:"status"        example:"pending" enums:"pending,confirmed,completed,cancelled,disputed"`
}

func (r BookingRequest) input() services.BookingInput {
	return services.BookingInput{
		ClientID:     r.Client,
		CreativeID:   r.Creative,
		PackageID:    r.Package,
		BookingDate:  r.BookingDate,
		BookingTime:  r.BookingTime,
		ProjectType:  r.ProjectType,
		Requirements: r.Requirements,
		Status:       r.Status,
	}
}

// CreateBooking godoc
// @ID          createBooking
// @Summary     Book a creative
// @Description Retrying with the same Idempotency-Key returns the original booking with Idempotency-Replayed: true.
// @Tags        Bookings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header    string                   false  "Client-chosen retry key"
// @Param       body             body      handlers.BookingRequest  true   "Booking"
// @Success     201              {object}  handlers.BookingView
// @Header      201              {string}  Idempotency-Replayed  "true when answered from a previous attempt"
// @Failure     400              {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403              {object}  handlers.ErrorResponse  "Forbidden"
// @Router      /bookings [post]
func (h *Handlers) CreateBooking(c *gin.Context) {
	ctx := c.Request.Context()
	a := actor(c)

	if middleware.IsReplay(c) {
		if id, has := middleware.ReplayedResourceID(c); has {
			if b, err := h.bookings.Get(ctx, a, id); err == nil {
				c.Header(middleware.HeaderIdempotencyReplayed, "true")
				ok(c, http.StatusCreated, bookingView(b))
				return
			}
		}
	}

	var req BookingRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.bookings.Create(ctx, a, req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, b.ID)
	ok(c, http.StatusCreated, bookingView(b))
}

// ListBookings godoc
// @ID          listBookings
// @Summary     List bookings
// @Description Newest first. Without filters, clients see their bookings and creatives the bookings made with them.
// @Tags        Bookings
// @Produce     json
// @Security    BearerAuth
// @Param       client_id         query     int     false  "Booking client"
// @Param       creative_user_id  query     int     false  "User owning the booked profile"
// @Param       search            query     string  false  "Creative username, names, role or industry"
// @Success     200               {array}   handlers.BookingView
// @Failure     403               {object}  handlers.ErrorResponse  "Forbidden"
// @Router      /my-bookings [get]
func (h *Handlers) ListBookings(c *gin.Context) {
	clientID, valid := queryID(c, "client_id")
	if !valid {
		return
	}
	creativeUserID, valid := queryID(c, "creative_user_id")
	if !valid {
		return
	}
	items, err := h.bookings.List(c.Request.Context(), actor(c), repo.BookingFilter{
		ClientID:       clientID,
		CreativeUserID: creativeUserID,
		Search:         c.Query("search"),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, bookingViews(items))
}

// GetBooking godoc
// @ID          getBooking
// @Summary     Get a booking
// @Tags        Bookings
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Booking ID"
// @Success     200  {object}  handlers.BookingView
// @Failure     403  {object}  handlers.ErrorResponse  "Not a party to the booking"
// @Failure     404  {object}  handlers.ErrorResponse  "Booking not found"
// @Router      /bookings/{id} [get]
func (h *Handlers) GetBooking(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, bookingView(b))
}

// UpdateBooking godoc
// @ID          updateBooking
// @Summary     Update a booking
// @Description PUT replaces the writable fields; PATCH changes only those sent.
// @Tags        Bookings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                      true  "Booking ID"
// @Param       body  body      handlers.BookingRequest  true  "Fields"
// @Success     200   {object}  handlers.BookingView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403   {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404   {object}  handlers.ErrorResponse  "Booking not found"
// @Router      /bookings/{id} [put]
// @Router      /bookings/{id} [patch]
func (h *Handlers) UpdateBooking(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}
	var req BookingRequest
	if !bindJSON(c, &req) {
		return
	}
	full := c.Request.Method == http.MethodPut
	b, err := h.bookings.Update(c.Request.Context(), actor(c), id, req.input(), full)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, bookingView(b))
}

// DeleteBooking godoc
// @ID          deleteBooking
// @Summary     Delete a booking
// @Description Removes the booking with its contract and chat.
// @Tags        Bookings
// @Security    BearerAuth
// @Param       id   path      int  true  "Booking ID"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse  "Booking not found"
// @Router      /bookings/{id} [delete]
func (h *Handlers) DeleteBooking(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}
	if err := h.bookings.Delete(c.Request.Context(), actor(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
