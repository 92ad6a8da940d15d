package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db, zap.NewNop())
	handler.RegisterRoutes(r.Group("/api/auth"))

	r.GET("/optional", OptionalAuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetViewer(c).UserID})
	})
	r.GET("/required", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetViewer(c).UserID})
	})
	r.GET("/mixed", OptionalAuthMiddleware(), RequireUser(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func createTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	hash, _ := HashPassword("password123")
	user := models.User{
		Email:        email,
		Username:     "tester",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func TestPasswordHashing(t *testing.T) {
	password := "testpassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == password {
		t.Error("Hash should not equal plain password")
	}

	if !CheckPassword(password, hash) {
		t.Error("CheckPassword should return true for correct password")
	}

	if CheckPassword("wrongpassword", hash) {
		t.Error("CheckPassword should return false for incorrect password")
	}
}

func TestJWTToken(t *testing.T) {
	token, err := GenerateToken(1, "test@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("Expected UserID 1, got %d", claims.UserID)
	}

	if claims.Email != "test@example.com" {
		t.Errorf("Expected email test@example.com, got %s", claims.Email)
	}

	if claims.Issuer != "foodgram" {
		t.Errorf("Expected issuer foodgram, got %s", claims.Issuer)
	}
}

func TestInvalidToken(t *testing.T) {
	_, err := ValidateToken("invalid-token")
	if err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenSignedWithOtherSecret(t *testing.T) {
	t.Cleanup(func() { Configure("", 0) })

	Configure("first-secret", time.Hour)
	token, err := GenerateToken(1, "test@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	Configure("second-secret", time.Hour)
	if _, err := ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	t.Cleanup(func() { Configure("", 0) })
	Configure("expiry-secret", time.Hour)

	claims := &Claims{UserID: 1, Email: "test@example.com"}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("expiry-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	if _, err := ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")

	jsonBody, _ := json.Marshal(LoginRequest{Email: "test@example.com", Password: "password123"})
	req, _ := http.NewRequest("POST", "/api/auth/token/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response TokenResponse
	json.Unmarshal(resp.Body.Bytes(), &response)

	claims, err := ValidateToken(response.AuthToken)
	if err != nil {
		t.Fatalf("Issued token does not validate: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("Expected token for user %d, got %d", user.ID, claims.UserID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestUser(t, db, "test@example.com")

	tests := []struct {
		name string
		body LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "test@example.com", Password: "wrongpassword"}},
		{"unknown email", LoginRequest{Email: "nobody@example.com", Password: "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonBody, _ := json.Marshal(tt.body)
			req, _ := http.NewRequest("POST", "/api/auth/token/login", bytes.NewBuffer(jsonBody))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", resp.Code)
			}

			var response struct {
				Errors map[string][]string `json:"errors"`
			}
			json.Unmarshal(resp.Body.Bytes(), &response)
			if len(response.Errors["non_field_errors"]) != 1 {
				t.Errorf("Expected one non_field_errors message, got %v", response.Errors)
			}
		})
	}
}

func TestLoginMissingFields(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	req, _ := http.NewRequest("POST", "/api/auth/token/login", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.Code)
	}

	var response struct {
		Errors map[string][]string `json:"errors"`
	}
	json.Unmarshal(resp.Body.Bytes(), &response)
	if _, ok := response.Errors["email"]; !ok {
		t.Errorf("Expected an email error, got %v", response.Errors)
	}
	if _, ok := response.Errors["password"]; !ok {
		t.Errorf("Expected a password error, got %v", response.Errors)
	}
}

func TestLogout(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")
	token, _ := GenerateToken(user.ID, user.Email)

	req, _ := http.NewRequest("POST", "/api/auth/token/logout", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %d", resp.Code)
	}

	req, _ = http.NewRequest("POST", "/api/auth/token/logout", nil)
	req.Header.Set("Authorization", "Token "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", resp.Code)
	}
}

func TestMiddleware(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	token, _ := GenerateToken(7, "viewer@example.com")

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantUserID float64
	}{
		{"optional anonymous", "/optional", "", http.StatusOK, 0},
		{"optional bearer", "/optional", "Bearer " + token, http.StatusOK, 7},
		{"optional token scheme", "/optional", "Token " + token, http.StatusOK, 7},
		{"optional invalid token", "/optional", "Bearer nope", http.StatusUnauthorized, 0},
		{"optional bad scheme", "/optional", "Basic abc", http.StatusUnauthorized, 0},
		{"required anonymous", "/required", "", http.StatusUnauthorized, 0},
		{"required bearer", "/required", "Bearer " + token, http.StatusOK, 7},
		{"require user anonymous", "/mixed", "", http.StatusUnauthorized, 0},
		{"require user authenticated", "/mixed", "Bearer " + token, http.StatusOK, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, resp.Code, resp.Body.String())
			}
			if tt.wantStatus != http.StatusOK || tt.path == "/mixed" {
				return
			}
			var body map[string]float64
			json.Unmarshal(resp.Body.Bytes(), &body)
			if body["user_id"] != tt.wantUserID {
				t.Errorf("Expected user_id %v, got %v", tt.wantUserID, body["user_id"])
			}
		})
	}
}
