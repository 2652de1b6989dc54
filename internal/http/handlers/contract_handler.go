package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SignContractRequest names the party signing.
type SignContractRequest struct {
	Role string `json:"role" example:"client" enums:"client,creative"`
}

// SignContractResponse confirms a signature and returns the contract.
type SignContractResponse struct {
	Message  string       `json:"message" example:"Contract signed successfully"`
	Contract ContractView `json:"contract"`
}

// GetContract godoc
// @ID          getContract
// @Summary     Get or create a booking's contract
// @Description The contract is rendered from the booking on first access and never regenerated.
// @Tags        Contracts
// @Produce     json
// @Security    BearerAuth
// @Param       booking_id  path      int  true  "Booking ID"
// @Success     200         {object}  handlers.ContractView
// @Failure     403         {object}  handlers.ErrorResponse  "Not a party to the booking"
// @Failure     404         {object}  handlers.ErrorResponse  "Booking not found"
// @Router      /contract/booking/{booking_id} [get]
func (h *Handlers) GetContract(c *gin.Context) {
	bookingID, found := pathID(c, "booking_id")
	if !found {
		return
	}
	ct, err := h.contracts.ForBooking(c.Request.Context(), actor(c), bookingID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, contractView(ct))
}

// SignContract godoc
// @ID          signContract
// @Summary     Sign a contract
// @Description The client signs as "client", the booked creative as "creative".
// @Tags        Contracts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       contract_id  path      int                           true  "Contract ID"
// @Param       body         body      handlers.SignContractRequest  true  "Signing party"
// @Success     200          {object}  handlers.SignContractResponse
// @Failure     400          {object}  handlers.ErrorResponse  "Unknown role"
// @Failure     403          {object}  handlers.ErrorResponse  "Cannot sign for that party"
// @Failure     404          {object}  handlers.ErrorResponse  "Contract not found"
// @Router      /contract/sign/{contract_id} [post]
func (h *Handlers) SignContract(c *gin.Context) {
	contractID, found := pathID(c, "contract_id")
	if !found {
		return
	}
	var req SignContractRequest
	if !bindJSON(c, &req) {
		return
	}
	ct, err := h.contracts.Sign(c.Request.Context(), actor(c), contractID, req.Role)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SignContractResponse{Message: "Contract signed successfully", Contract: contractView(ct)})
}
