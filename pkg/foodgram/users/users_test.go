package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/auth"
	"github.com/impactys/foodgram/pkg/foodgram/config"
	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/pagination"
	"github.com/impactys/foodgram/pkg/foodgram/projection"
	"github.com/impactys/foodgram/pkg/foodgram/testutil"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

type errorBody struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors"`
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	paginator := pagination.New(config.PaginationConfig{DefaultLimit: 6, MaxLimit: 100}, "")
	handler := NewHandler(db, zap.NewNop(), projection.NewRenderer(db, nil), paginator)

	api := r.Group("/api")
	api.Use(auth.OptionalAuthMiddleware())
	handler.RegisterRoutes(api)
	return r
}

func doRequest(router *gin.Engine, method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", testutil.AuthHeader(*user))
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode %s: %v", resp.Body.String(), err)
	}
}

func TestRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := setupTestRouter(db)

	body := RegisterRequest{
		Email:     "cook@example.com",
		Username:  "cook",
		FirstName: "Julia",
		LastName:  "Child",
		Password:  "supersecret",
	}
	resp := doRequest(router, "POST", "/api/users", body, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created RegisterResponse
	decode(t, resp, &created)
	if created.ID == 0 || created.Username != "cook" || created.FirstName != "Julia" {
		t.Errorf("Unexpected response %+v", created)
	}

	var user models.User
	db.First(&user, created.ID)
	if !auth.CheckPassword("supersecret", user.PasswordHash) {
		t.Error("Stored password hash does not match")
	}
}

func TestRegisterCyrillicUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := setupTestRouter(db)

	body := RegisterRequest{
		Email:     "povar@example.com",
		Username:  "повар.иван",
		FirstName: "Иван",
		LastName:  "Петров",
		Password:  "supersecret",
	}
	resp := doRequest(router, "POST", "/api/users", body, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created RegisterResponse
	decode(t, resp, &created)
	if created.Username != "повар.иван" {
		t.Errorf("Expected username %q, got %q", "повар.иван", created.Username)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := setupTestRouter(db)
	testutil.CreateUser(t, db, "taken")

	valid := func() RegisterRequest {
		return RegisterRequest{
			Email:     "new@example.com",
			Username:  "newcomer",
			FirstName: "New",
			LastName:  "Comer",
			Password:  "supersecret",
		}
	}

	tests := []struct {
		name      string
		mutate    func(*RegisterRequest)
		wantField string
	}{
		{"duplicate email", func(r *RegisterRequest) { r.Email = "taken@example.com" }, "email"},
		{"duplicate username", func(r *RegisterRequest) { r.Username = "taken" }, "username"},
		{"reserved username", func(r *RegisterRequest) { r.Username = "me" }, "username"},
		{"bad username characters", func(r *RegisterRequest) { r.Username = "no spaces" }, "username"},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }, "email"},
		{"missing first name", func(r *RegisterRequest) { r.FirstName = "" }, "first_name"},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := valid()
			tt.mutate(&body)
			resp := doRequest(router, "POST", "/api/users", body, nil)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d: %s", resp.Code, resp.Body.String())
			}
			var errs errorBody
			decode(t, resp, &errs)
			if len(errs.Errors[tt.wantField]) == 0 {
				t.Errorf("Expected error on %s, got %v", tt.wantField, errs.Errors)
			}
		})
	}
}

func TestListUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := setupTestRouter(db)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	testutil.CreateUser(t, db, "carol")
	db.Create(&models.Subscription{UserID: alice.ID, AuthorID: bob.ID})

	resp := doRequest(router, "GET", "/api/users?limit=2", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	var page pagination.Page[projection.UserResponse]
	decode(t, resp, &page)
	if page.Count != 3 || len(page.Results) != 2 || page.Next == nil || page.Previous != nil {
		t.Fatalf("Unexpected page %+v", page)
	}
	if page.Results[0].Username != "alice" || page.Results[1].IsSubscribed {
		t.Errorf("Unexpected anonymous results %+v", page.Results)
	}

	resp = doRequest(router, "GET", "/api/users?limit=2", nil, &alice)
	decode(t, resp, &page)
	if !page.Results[1].IsSubscribed {
		t.Errorf("Expected alice to see bob as subscribed, got %+v", page.Results[1])
	}
}

func TestGetUserAndMe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := setupTestRouter(db)
	alice := testutil.CreateUser(t, db, "alice")

	resp := doRequest(router, "GET", fmt.Sprintf("/api/users/%d", alice.ID), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	var got projection.UserResponse
	decode(t, resp, &got)
	if got.Email != "alice@example.com" || got.IsSubscribed {
		t.Errorf("Unexpected user %+v", got)
	}

	if resp := doRequest(router, "GET", "/api/users/999", nil, nil); resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}

	if resp := doRequest(router, "GET", "/api/users/me", nil, nil); resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for anonymous me, got %d", resp.Code)
	}

	resp = doRequest(router, "GET", "/api/users/me", nil, &alice)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	decode(t, resp, &got)
	if got.ID != alice.ID {
		t.Errorf("Expected me to be alice, got %+v", got)
	}
}

func TestSetPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := setupTestRouter(db)
	alice := testutil.CreateUser(t, db, "alice")

	resp := doRequest(router, "POST", "/api/users/set_password",
		SetPasswordRequest{NewPassword: "brandnewpass", CurrentPassword: "wrongpass"}, &alice)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.Code)
	}
	var errs errorBody
	decode(t, resp, &errs)
	if len(errs.Errors["current_password"]) != 1 {
		t.Errorf("Expected current_password error, got %v", errs.Errors)
	}

	resp = doRequest(router, "POST", "/api/users/set_password",
		SetPasswordRequest{NewPassword: "brandnewpass", CurrentPassword: "password123"}, &alice)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}

	var user models.User
	db.First(&user, alice.ID)
	if !auth.CheckPassword("brandnewpass", user.PasswordHash) {
		t.Error("Expected new password to be stored")
	}
}

func TestSubscribe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := setupTestRouter(db)
	reader := testutil.CreateUser(t, db, "reader")
	author := testutil.CreateUser(t, db, "author")
	testutil.CreateRecipe(t, db, author, "Soup", nil)
	testutil.CreateRecipe(t, db, author, "Salad", nil)
	path := fmt.Sprintf("/api/users/%d/subscribe", author.ID)

	resp := doRequest(router, "POST", path+"?recipes_limit=1", nil, &reader)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var sub projection.SubscriptionResponse
	decode(t, resp, &sub)
	if !sub.IsSubscribed || sub.RecipesCount != 2 || len(sub.Recipes) != 1 {
		t.Errorf("Unexpected subscription body %+v", sub)
	}

	tests := []struct {
		name       string
		path       string
		user       *models.User
		wantStatus int
		wantMsg    string
	}{
		{"twice", path, &reader, http.StatusBadRequest, validation.MsgSubscribeTwice},
		{"self", fmt.Sprintf("/api/users/%d/subscribe", reader.ID), &reader, http.StatusBadRequest, validation.MsgSubscribeSelf},
		{"unknown author", "/api/users/999/subscribe", &reader, http.StatusNotFound, ""},
		{"anonymous", path, nil, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(router, "POST", tt.path, nil, tt.user)
			if resp.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, resp.Code, resp.Body.String())
			}
			if tt.wantMsg == "" {
				return
			}
			var errs errorBody
			decode(t, resp, &errs)
			msgs := errs.Errors[validation.NonFieldErrors]
			if len(msgs) != 1 || msgs[0] != tt.wantMsg {
				t.Errorf("Expected %q, got %v", tt.wantMsg, errs.Errors)
			}
		})
	}

	var count int64
	db.Model(&models.Subscription{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly one subscription, got %d", count)
	}
}

func TestUnsubscribe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := setupTestRouter(db)
	reader := testutil.CreateUser(t, db, "reader")
	author := testutil.CreateUser(t, db, "author")
	db.Create(&models.Subscription{UserID: reader.ID, AuthorID: author.ID})
	path := fmt.Sprintf("/api/users/%d/subscribe", author.ID)

	if resp := doRequest(router, "DELETE", path, nil, &reader); resp.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}

	resp := doRequest(router, "DELETE", path, nil, &reader)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.Code)
	}
	var errs errorBody
	decode(t, resp, &errs)
	if msgs := errs.Errors[validation.NonFieldErrors]; len(msgs) != 1 || msgs[0] != MsgNotSubscribed {
		t.Errorf("Unexpected errors %v", errs.Errors)
	}
}

func TestSubscriptionsList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := setupTestRouter(db)
	reader := testutil.CreateUser(t, db, "reader")
	zed := testutil.CreateUser(t, db, "zed")
	amy := testutil.CreateUser(t, db, "amy")
	testutil.CreateUser(t, db, "stranger")
	for _, name := range []string{"A", "B", "C"} {
		testutil.CreateRecipe(t, db, amy, name, nil)
	}
	db.Create(&models.Subscription{UserID: reader.ID, AuthorID: zed.ID})
	db.Create(&models.Subscription{UserID: reader.ID, AuthorID: amy.ID})

	if resp := doRequest(router, "GET", "/api/users/subscriptions", nil, nil); resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for anonymous, got %d", resp.Code)
	}

	resp := doRequest(router, "GET", "/api/users/subscriptions?recipes_limit=2", nil, &reader)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var page pagination.Page[projection.SubscriptionResponse]
	decode(t, resp, &page)
	if page.Count != 2 || len(page.Results) != 2 {
		t.Fatalf("Expected 2 subscriptions, got %+v", page)
	}
	first := page.Results[0]
	if first.Username != "amy" || first.RecipesCount != 3 || len(first.Recipes) != 2 || !first.IsSubscribed {
		t.Errorf("Unexpected first subscription %+v", first)
	}
	if page.Results[1].Username != "zed" || len(page.Results[1].Recipes) != 0 {
		t.Errorf("Unexpected second subscription %+v", page.Results[1])
	}

	if resp := doRequest(router, "GET", "/api/users/subscriptions?recipes_limit=x", nil, &reader); resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad recipes_limit, got %d", resp.Code)
	}
}
