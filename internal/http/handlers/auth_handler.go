// Account HTTP handlers.
//
// This file exposes the unauthenticated account endpoints:
//   - POST /register      (create account, email an OTP)
//   - POST /login         (credentials → session token)
//   - POST /verify-email  (confirm the emailed OTP)
//   - POST /resend-otp    (issue and email a fresh OTP)
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-creative-marketplace/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Username    string  `json:"username"     example:"alice"`
	Password    string  `json:"password"     example:"s3cret-pass"`
	Email       string  `json:"email"        example:"alice@example.com"`
	FirstName   string  `json:"first_name"   example:"Alice"`
	LastName    string  `json:"last_name"    example:"Smith"`
	Role        string  `json:"role"         example:"client" enums:"client,creative"`
	PhoneNumber *string `json:"phone_number" example:"+15550100"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"s3cret-pass"`
}

// VerifyEmailRequest is the JSON payload for confirming an OTP.
// Both fields may be sent as JSON strings or numbers.
type VerifyEmailRequest struct {
	UserID idValue   `json:"user_id" swaggertype:"integer" example:"7"`
	OTP    codeValue `json:"otp"     swaggertype:"string"  example:"482913"`
}

// ResendOTPRequest is the JSON payload for requesting a fresh OTP.
type ResendOTPRequest struct {
	UserID idValue `json:"user_id" swaggertype:"integer" example:"7"`
}

// codeValue decodes a JSON string or number into its text form.
type codeValue string

func (v *codeValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = codeValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = codeValue(n.String())
	return nil
}

// idValue decodes a positive id sent as a JSON number or numeric string.
type idValue uint

func (v *idValue) UnmarshalJSON(b []byte) error {
	var raw codeValue
	if err := raw.UnmarshalJSON(b); err != nil {
		return err
	}
	if raw == "" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 0)
	if err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	*v = idValue(n)
	return nil
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Register an account
// @Description Creates a client or creative account and emails a six-digit verification code.
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Account"
// @Success     201   {object}  handlers.AccountView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     409   {object}  handlers.ErrorResponse  "Username taken"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Phone:     req.PhoneNumber,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, accountView(u))
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns the user's role with a bearer token.
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.LoginResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     429   {object}  handlers.ErrorResponse  "Too many attempts"
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials")
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LoginResponse{
		ID:        res.User.ID,
		Username:  res.User.Username,
		Role:      res.User.Role,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	})
}

// VerifyEmail godoc
// @ID          verifyEmail
// @Summary     Verify an email address
// @Description Confirms the OTP sent at registration. Verifying twice succeeds.
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.VerifyEmailRequest  true  "User and code"
// @Success     200   {object}  handlers.MessageResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Expired or invalid code"
// @Failure     404   {object}  handlers.ErrorResponse  "OTP not found"
// @Router      /verify-email [post]
func (h *Handlers) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == 0 {
		failErr(c, &services.ValidationError{Fields: map[string]string{"user_id": "This field is required."}})
		return
	}
	already, err := h.accounts.VerifyEmail(c.Request.Context(), uint(req.UserID), string(req.OTP))
	switch {
	case errors.Is(err, services.ErrOTPNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "OTP not found")
	case err != nil:
		failErr(c, err)
	case already:
		ok(c, http.StatusOK, MessageResponse{Message: "Email already verified"})
	default:
		ok(c, http.StatusOK, MessageResponse{Message: "Email verified"})
	}
}

// ResendOTP godoc
// @ID          resendOTP
// @Summary     Resend the verification code
// @Description Generates a fresh OTP with a fresh timestamp and emails it.
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.ResendOTPRequest  true  "User"
// @Success     200   {object}  handlers.MessageResponse
// @Failure     404   {object}  handlers.ErrorResponse  "User OTP not found"
// @Router      /resend-otp [post]
func (h *Handlers) ResendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == 0 {
		failErr(c, &services.ValidationError{Fields: map[string]string{"user_id": "This field is required."}})
		return
	}
	err := h.accounts.ResendOTP(c.Request.Context(), uint(req.UserID))
	switch {
	case errors.Is(err, services.ErrOTPNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "User OTP not found")
	case err != nil:
		failErr(c, err)
	default:
		ok(c, http.StatusOK, MessageResponse{Message: "OTP resent"})
	}
}
