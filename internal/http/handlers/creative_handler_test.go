package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

func TestCatalog_ListAndFilters(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodGet, "/industries?search=photo", nil, nil)
	wantStatus(t, w, http.StatusOK)
	inds := decode[[]domain.IndustryCategory](t, w)
	if len(inds) != 1 || inds[0].Name != "Media" || inds[0].IconCode != "camera" {
		t.Fatalf("industries = %+v", inds)
	}

	w = a.do(http.MethodGet, "/industries?search=nothing-like-this", nil, nil)
	if w.Body.String() != "[]" {
		t.Fatalf("empty list must render as [], got %s", w.Body.String())
	}

	w = a.do(http.MethodGet, fmt.Sprintf("/subcategories?industry_id=%d", inds[0].ID), nil, nil)
	subs := decode[[]domain.SubCategory](t, w)
	if len(subs) != 1 || subs[0].ID != a.sub.ID {
		t.Fatalf("subcategories = %+v", subs)
	}

	w = a.do(http.MethodGet, "/subcategories?industry_id=abc", nil, nil)
	wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestListCreatives_View(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodGet, fmt.Sprintf("/creatives?subcategory_id=%d", a.sub.ID), nil, nil)
	wantStatus(t, w, http.StatusOK)
	items := decode[[]ProfileView](t, w)
	if len(items) != 1 {
		t.Fatalf("creatives = %+v", items)
	}
	p := items[0]
	if p.User.Username != "bob" || p.RoleName != "Photographer" || p.IndustryName != "Media" {
		t.Fatalf("names: %+v", p)
	}
	if p.HourlyRate != "75.50" || p.Rating != "5.00" || !p.IsVerified {
		t.Fatalf("money/verified: %+v", p)
	}
	if p.ProfileImageURL != testMediaBase+"/media/profiles/bob.jpg" {
		t.Fatalf("profile_image_url = %q", p.ProfileImageURL)
	}
	if p.Packages == nil || p.Products == nil {
		t.Fatalf("nested lists must render as arrays: %+v", p)
	}
}

func TestCreateProfile_IdempotentAndOwned(t *testing.T) {
	a := newTestAPI(t)
	body := gin.H{"sub_category_id": a.sub.ID, "bio": "Weddings", "hourly_rate": "40"}

	w := a.do(http.MethodPost, "/create-profile", body, a.other)
	wantStatus(t, w, http.StatusCreated)
	p := decode[ProfileView](t, w)
	if p.User.ID != a.other.ID || p.HourlyRate != "40.00" || p.Rating != "5.00" || p.IsVerified {
		t.Fatalf("created = %+v", p)
	}

	w = a.do(http.MethodPost, "/create-profile", body, a.other)
	wantStatus(t, w, http.StatusOK)
	if ex := decode[ProfileExistsResponse](t, w); ex.Status != "exists" || ex.Message != "Profile already exists" {
		t.Fatalf("exists = %+v", ex)
	}

	// Someone else's profile.
	body["user"] = a.client.ID
	w = a.do(http.MethodPost, "/create-profile", body, a.other)
	wantError(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = a.do(http.MethodPost, "/create-profile", gin.H{"bio": ""}, a.client)
	er := wantError(t, w, http.StatusBadRequest, ErrCodeValidation)
	if er.Fields["bio"] == "" || er.Fields["sub_category_id"] == "" {
		t.Fatalf("fields = %+v", er.Fields)
	}

	w = a.do(http.MethodPost, "/create-profile", body, nil)
	wantError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestGetCreativeProfile(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodGet, fmt.Sprintf("/creative-profile?user_id=%d", a.creative.ID), nil, nil)
	wantStatus(t, w, http.StatusOK)
	if p := decode[ProfileView](t, w); p.ID != a.profile.ID {
		t.Fatalf("profile = %+v", p)
	}

	// Defaults to the caller.
	w = a.do(http.MethodGet, "/creative-profile", nil, a.creative)
	wantStatus(t, w, http.StatusOK)

	w = a.do(http.MethodGet, "/creative-profile", nil, nil)
	wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = a.do(http.MethodGet, fmt.Sprintf("/creative-profile?user_id=%d", a.client.ID), nil, nil)
	wantError(t, w, http.StatusNotFound, ErrCodeNotFound)
}

func TestInterestsAndRecommendations(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/save-interests", gin.H{"user_id": a.client.ID, "subcategory_ids": []uint{a.sub.ID, 9999}}, a.client)
	wantStatus(t, w, http.StatusOK)
	res := decode[SaveInterestsResponse](t, w)
	if res.Message != "Interests saved successfully" || len(res.SubCategoryIDs) != 1 || res.SubCategoryIDs[0] != a.sub.ID {
		t.Fatalf("save = %+v", res)
	}

	w = a.do(http.MethodPost, "/save-interests", gin.H{"subcategory_ids": []uint{a.sub.ID}}, a.client)
	wantError(t, w, http.StatusBadRequest, ErrCodeValidation)

	w = a.do(http.MethodPost, "/save-interests", gin.H{"user_id": a.client.ID, "subcategory_ids": []uint{}}, a.other)
	wantError(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = a.do(http.MethodGet, fmt.Sprintf("/creatives/recommended?user_id=%d", a.client.ID), nil, nil)
	wantStatus(t, w, http.StatusOK)
	if recs := decode[[]ProfileView](t, w); len(recs) != 1 || recs[0].ID != a.profile.ID {
		t.Fatalf("recommended = %+v", recs)
	}

	// Caller by default; anonymous gets nothing.
	w = a.do(http.MethodGet, "/creatives/recommended", nil, a.client)
	if recs := decode[[]ProfileView](t, w); len(recs) != 1 {
		t.Fatalf("caller recommendations = %+v", recs)
	}
	w = a.do(http.MethodGet, "/creatives/recommended", nil, nil)
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("anonymous recommendations: %d %s", w.Code, w.Body.String())
	}
}

func TestServicePackages(t *testing.T) {
	a := newTestAPI(t)
	body := gin.H{
		"creative":      a.profile.ID,
		"title":         "Wedding shoot",
		"description":   "Full day",
		"price":         "450",
		"delivery_time": "2 weeks",
	}

	w := a.do(http.MethodPost, "/service-packages", body, a.creative)
	wantStatus(t, w, http.StatusCreated)
	pk := decode[PackageView](t, w)
	if pk.Price != "450.00" || pk.Creative != a.profile.ID {
		t.Fatalf("package = %+v", pk)
	}

	w = a.do(http.MethodPost, "/service-packages", body, a.other)
	wantError(t, w, http.StatusForbidden, ErrCodeForbidden)

	delete(body, "price")
	w = a.do(http.MethodPost, "/service-packages", body, a.creative)
	if er := wantError(t, w, http.StatusBadRequest, ErrCodeValidation); er.Fields["price"] == "" {
		t.Fatalf("fields = %+v", er.Fields)
	}

	w = a.do(http.MethodGet, fmt.Sprintf("/service-packages?creative_id=%d", a.profile.ID), nil, nil)
	if list := decode[[]PackageView](t, w); len(list) != 1 || list[0].ID != pk.ID {
		t.Fatalf("packages = %+v", list)
	}
}

func TestAdminModeration(t *testing.T) {
	a := newTestAPI(t)
	pending := &domain.CreativeProfile{
		UserID:        a.other.ID,
		SubCategoryID: a.sub.ID,
		Bio:           "New here",
		HourlyRate:    a.profile.HourlyRate,
		Rating:        a.profile.Rating,
	}
	if err := a.db.Create(pending).Error; err != nil {
		t.Fatalf("create pending: %v", err)
	}

	w := a.do(http.MethodGet, "/admin/pending-creatives", nil, a.client)
	wantError(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = a.do(http.MethodGet, "/admin/pending-creatives", nil, a.admin)
	wantStatus(t, w, http.StatusOK)
	if list := decode[[]ProfileView](t, w); len(list) != 1 || list[0].ID != pending.ID {
		t.Fatalf("pending = %+v", list)
	}

	path := fmt.Sprintf("/admin/manage-creative/%d", pending.ID)
	w = a.do(http.MethodPost, path, gin.H{"action": "promote"}, a.admin)
	wantError(t, w, http.StatusBadRequest, ErrCodeValidation)

	w = a.do(http.MethodPost, path, gin.H{"action": "approve"}, a.admin)
	wantStatus(t, w, http.StatusOK)
	if m := decode[MessageResponse](t, w); m.Message != "Profile approved successfully" {
		t.Fatalf("message = %q", m.Message)
	}

	w = a.do(http.MethodPost, path, gin.H{"action": "decline"}, a.admin)
	if m := decode[MessageResponse](t, w); w.Code != http.StatusOK || m.Message != "Profile declined and removed" {
		t.Fatalf("decline: %d %q", w.Code, m.Message)
	}

	w = a.do(http.MethodPost, path, gin.H{"action": "approve"}, a.admin)
	wantError(t, w, http.StatusNotFound, ErrCodeNotFound)
}
