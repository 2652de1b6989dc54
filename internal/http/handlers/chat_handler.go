// Chat HTTP handlers.
//
// This file exposes the chat thread attached to every booking:
//   - GET, POST /bookings/{id}/messages
//   - GET, POST /messages  (booking from ?booking_id= or the body)
//
// Listings carry a weak ETag built from the message count and the newest
// timestamp so polling clients can revalidate cheaply.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-creative-marketplace/internal/utils"
)

// PostMessageRequest is the JSON payload for sending a chat message.
// Booking is ignored when the booking is addressed by the path.
type PostMessageRequest struct {
	Booking uint   `json:"booking" example:"11"`
	Message string `json:"message" example:"See you at 10"`
}

// bookingFromQuery reads the mandatory booking_id filter of /messages.
func bookingFromQuery(c *gin.Context) (uint, bool) {
	id, valid := utils.ParseID(c.Query("booking_id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "booking_id is required")
		return 0, false
	}
	return id, true
}

// ListBookingMessages godoc
// @ID          listBookingMessages
// @Summary     List a booking's chat
// @Description Oldest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Param       id             path      int     true   "Booking ID"
// @Param       If-None-Match  header    string  false  "Return 304 if ETag matches"
// @Success     200            {array}   handlers.MessageView
// @Header      200            {string}  ETag  "Weak ETag for current result"
// @Success     304            {string}  string  "Not Modified"
// @Failure     403            {object}  handlers.ErrorResponse  "Not a party to the booking"
// @Failure     404            {object}  handlers.ErrorResponse  "Booking not found"
// @Router      /bookings/{id}/messages [get]
func (h *Handlers) ListBookingMessages(c *gin.Context) {
	bookingID, found := pathID(c, "id")
	if !found {
		return
	}
	h.listMessages(c, bookingID)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List a booking's chat (query form)
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Param       booking_id     query     int     true   "Booking ID"
// @Param       If-None-Match  header    string  false  "Return 304 if ETag matches"
// @Success     200            {array}   handlers.MessageView
// @Success     304            {string}  string  "Not Modified"
// @Failure     400            {object}  handlers.ErrorResponse  "booking_id missing"
// @Failure     403            {object}  handlers.ErrorResponse  "Not a party to the booking"
// @Router      /messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	bookingID, valid := bookingFromQuery(c)
	if !valid {
		return
	}
	h.listMessages(c, bookingID)
}

func (h *Handlers) listMessages(c *gin.Context, bookingID uint) {
	ctx := c.Request.Context()
	a := actor(c)

	// Stats enforces access as well, so a 304 never leaks to outsiders.
	count, newest, err := h.chat.Stats(ctx, a, bookingID)
	if err != nil {
		failErr(c, err)
		return
	}
	var ts int64
	if newest != nil {
		ts = newest.Unix()
	}
	etag := fmt.Sprintf(`W/"messages:%d:%d:%d"`, bookingID, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	items, err := h.chat.List(ctx, a, bookingID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, messageViews(items))
}

// PostBookingMessage godoc
// @ID          postBookingMessage
// @Summary     Send a chat message
// @Description The sender is always the caller.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                          true  "Booking ID"
// @Param       body  body      handlers.PostMessageRequest  true  "Message"
// @Success     201   {object}  handlers.MessageView
// @Failure     400   {object}  handlers.ErrorResponse  "Blank message"
// @Failure     403   {object}  handlers.ErrorResponse  "Not a party to the booking"
// @Failure     404   {object}  handlers.ErrorResponse  "Booking not found"
// @Router      /bookings/{id}/messages [post]
func (h *Handlers) PostBookingMessage(c *gin.Context) {
	bookingID, found := pathID(c, "id")
	if !found {
		return
	}
	var req PostMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	h.postMessage(c, bookingID, req.Message)
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a chat message (body form)
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.PostMessageRequest  true  "Booking and message"
// @Success     201   {object}  handlers.MessageView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403   {object}  handlers.ErrorResponse  "Not a party to the booking"
// @Router      /messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	var req PostMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Booking == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "booking is required")
		return
	}
	h.postMessage(c, req.Booking, req.Message)
}

func (h *Handlers) postMessage(c *gin.Context, bookingID uint, text string) {
	m, err := h.chat.Post(c.Request.Context(), actor(c), bookingID, text)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, messageView(m))
}
