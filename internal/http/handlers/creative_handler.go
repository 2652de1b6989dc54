// Creative HTTP handlers.
//
// This file exposes the creative-facing endpoints:
//   - GET  /creatives, /creatives/recommended      (discovery)
//   - POST /save-interests                         (interest replacement)
//   - POST /create-profile, GET /creative-profile  (profiles)
//   - GET, POST /service-packages                  (packages)
//   - GET  /admin/pending-creatives, POST /admin/manage-creative/{id}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-creative-marketplace/internal/services"
)

//
// DTOs
//

// SaveInterestsRequest replaces a user's interests.
type SaveInterestsRequest struct {
	UserID         uint   `json:"user_id"         example:"7"`
	SubCategoryIDs []uint `json:"subcategory_ids" example:"1,4"`
}

// SaveInterestsResponse reports the interests now stored.
type SaveInterestsResponse struct {
	Message        string `json:"message"         example:"Interests saved successfully"`
	SubCategoryIDs []uint `json:"subcategory_ids" example:"1,4"`
}

// CreateProfileRequest creates a creative profile. User defaults to the
// caller.
type CreateProfileRequest struct {
	User          uint             `json:"user"            example:"7"`
	SubCategoryID uint             `json:"sub_category_id" example:"4"`
	Bio           string           `json:"bio"             example:"Portraits and weddings"`
	HourlyRate    *decimal.Decimal `json:"hourly_rate"     swaggertype:"string" example:"80.00"`
	Rating        *decimal.Decimal `json:"rating"          swaggertype:"string" example:"5.00"`
	PortfolioURL  *string          `json:"portfolio_url"   example:"https://alice.example.com"`
	ProfileImage  string           `json:"profile_image"   example:"profiles/alice.jpg"`
}

// ProfileExistsResponse is returned when the user already has a profile.
type ProfileExistsResponse struct {
	Message string `json:"message" example:"Profile already exists"`
	Status  string `json:"status"  example:"exists"`
}

// CreatePackageRequest adds a service package to a profile.
type CreatePackageRequest struct {
	Creative     uint             `json:"creative"      example:"2"`
	Title        string           `json:"title"         example:"Wedding shoot"`
	Description  string           `json:"description"   example:"Full day coverage"`
	Price        *decimal.Decimal `json:"price"         swaggertype:"string" example:"450.00"`
	DeliveryTime string           `json:"delivery_time" example:"2 weeks"`
}

// ModerateRequest carries an admin decision on a pending profile.
type ModerateRequest struct {
	Action string `json:"action" example:"approve" enums:"approve,decline"`
}

//
// Handlers
//

// ListCreatives godoc
// @ID          listCreatives
// @Summary     List verified creatives
// @Tags        Creatives
// @Produce     json
// @Param       subcategory_id  query     int     false  "Sub category filter"
// @Param       search          query     string  false  "Username, names, bio or role"
// @Success     200             {array}   handlers.ProfileView
// @Failure     400             {object}  handlers.ErrorResponse  "Bad filter"
// @Router      /creatives [get]
func (h *Handlers) ListCreatives(c *gin.Context) {
	subID, valid := queryID(c, "subcategory_id")
	if !valid {
		return
	}
	items, err := h.creatives.ListVerified(c.Request.Context(), subID, c.Query("search"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, profileViews(h.mediaBaseURL(c), items))
}

// RecommendedCreatives godoc
// @ID          recommendedCreatives
// @Summary     Recommend creatives from a user's interests
// @Description Profiles in the user's interest sub categories, excluding the user's own. Without user_id the caller is used; anonymous callers get an empty list.
// @Tags        Creatives
// @Produce     json
// @Param       user_id  query     int  false  "User"
// @Success     200      {array}   handlers.ProfileView
// @Router      /creatives/recommended [get]
func (h *Handlers) RecommendedCreatives(c *gin.Context) {
	userID, valid := queryID(c, "user_id")
	if !valid {
		return
	}
	if userID == 0 {
		userID = actor(c).UserID
	}
	items, err := h.creatives.Recommend(c.Request.Context(), userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, profileViews(h.mediaBaseURL(c), items))
}

// SaveInterests godoc
// @ID          saveInterests
// @Summary     Replace a user's interests
// @Tags        Creatives
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.SaveInterestsRequest  true  "Interests"
// @Success     200   {object}  handlers.SaveInterestsResponse
// @Failure     400   {object}  handlers.ErrorResponse  "User ID required"
// @Failure     403   {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     500   {object}  handlers.ErrorResponse  "Unhandled"
// @Router      /save-interests [post]
func (h *Handlers) SaveInterests(c *gin.Context) {
	var req SaveInterestsRequest
	if !bindJSON(c, &req) {
		return
	}
	stored, err := h.interests.Replace(c.Request.Context(), actor(c), req.UserID, req.SubCategoryIDs)
	if err != nil {
		failErr(c, err)
		return
	}
	if stored == nil {
		stored = []uint{}
	}
	ok(c, http.StatusOK, SaveInterestsResponse{Message: "Interests saved successfully", SubCategoryIDs: stored})
}

// CreateProfile godoc
// @ID          createProfile
// @Summary     Create a creative profile
// @Description Idempotent: when the user already has a profile, 200 with status "exists" is returned and nothing changes.
// @Tags        Creatives
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreateProfileRequest  true  "Profile"
// @Success     201   {object}  handlers.ProfileView
// @Success     200   {object}  handlers.ProfileExistsResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403   {object}  handlers.ErrorResponse  "Forbidden"
// @Router      /create-profile [post]
func (h *Handlers) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	a := actor(c)
	if req.User == 0 {
		req.User = a.UserID
	}
	p, created, err := h.creatives.CreateProfile(c.Request.Context(), a, services.ProfileInput{
		UserID:        req.User,
		SubCategoryID: req.SubCategoryID,
		Bio:           req.Bio,
		HourlyRate:    req.HourlyRate,
		Rating:        req.Rating,
		PortfolioURL:  req.PortfolioURL,
		ProfileImage:  req.ProfileImage,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	if !created {
		ok(c, http.StatusOK, ProfileExistsResponse{Message: "Profile already exists", Status: "exists"})
		return
	}
	ok(c, http.StatusCreated, profileView(h.mediaBaseURL(c), p))
}

// GetCreativeProfile godoc
// @ID          getCreativeProfile
// @Summary     Get a user's creative profile
// @Tags        Creatives
// @Produce     json
// @Param       user_id  query     int  false  "User (defaults to the caller)"
// @Success     200      {object}  handlers.ProfileView
// @Failure     400      {object}  handlers.ErrorResponse  "Missing user"
// @Failure     404      {object}  handlers.ErrorResponse  "Profile not found"
// @Router      /creative-profile [get]
func (h *Handlers) GetCreativeProfile(c *gin.Context) {
	userID, valid := queryID(c, "user_id")
	if !valid {
		return
	}
	if userID == 0 {
		userID = actor(c).UserID
	}
	if userID == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id is required")
		return
	}
	p, err := h.creatives.GetByUser(c.Request.Context(), userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, profileView(h.mediaBaseURL(c), p))
}

// ListServicePackages godoc
// @ID          listServicePackages
// @Summary     List service packages
// @Tags        Creatives
// @Produce     json
// @Param       creative_id  query     int  false  "Profile filter"
// @Success     200          {array}   handlers.PackageView
// @Failure     400          {object}  handlers.ErrorResponse  "Bad filter"
// @Router      /service-packages [get]
func (h *Handlers) ListServicePackages(c *gin.Context) {
	creativeID, valid := queryID(c, "creative_id")
	if !valid {
		return
	}
	items, err := h.creatives.Packages(c.Request.Context(), creativeID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, packageViews(items))
}

// CreateServicePackage godoc
// @ID          createServicePackage
// @Summary     Publish a service package
// @Tags        Creatives
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreatePackageRequest  true  "Package"
// @Success     201   {object}  handlers.PackageView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403   {object}  handlers.ErrorResponse  "Not the profile owner"
// @Router      /service-packages [post]
func (h *Handlers) CreateServicePackage(c *gin.Context) {
	var req CreatePackageRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Price == nil {
		failErr(c, &services.ValidationError{Fields: map[string]string{"price": "This field is required."}})
		return
	}
	p, err := h.creatives.CreatePackage(c.Request.Context(), actor(c), services.PackageInput{
		CreativeID:   req.Creative,
		Title:        req.Title,
		Description:  req.Description,
		Price:        *req.Price,
		DeliveryTime: req.DeliveryTime,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, packageView(p))
}

// PendingCreatives godoc
// @ID          pendingCreatives
// @Summary     List profiles awaiting moderation
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   handlers.ProfileView
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Not an admin"
// @Router      /admin/pending-creatives [get]
func (h *Handlers) PendingCreatives(c *gin.Context) {
	items, err := h.creatives.ListPending(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, profileViews(h.mediaBaseURL(c), items))
}

// ManageCreative godoc
// @ID          manageCreative
// @Summary     Approve or decline a profile
// @Description approve verifies the profile; decline deletes it with everything depending on it.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                             true  "Profile ID"
// @Param       body  body      handlers.ModerateRequest  true  "Decision"
// @Success     200   {object}  handlers.MessageResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid action"
// @Failure     404   {object}  handlers.ErrorResponse  "Profile not found"
// @Router      /admin/manage-creative/{id} [post]
func (h *Handlers) ManageCreative(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}
	var req ModerateRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.creatives.Moderate(c.Request.Context(), id, req.Action); err != nil {
		failErr(c, err)
		return
	}
	msg := "Profile approved successfully"
	if req.Action == services.ActionDecline {
		msg = "Profile declined and removed"
	}
	ok(c, http.StatusOK, MessageResponse{Message: msg})
}
