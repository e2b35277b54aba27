package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func setupRedis() *redis.Client {
	// Dummy client; login only writes the session best-effort, so the
	// handler tests never depend on a live Redis.
	return redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
}

func TestRegisterHandler_InvalidPhone(t *testing.T) {
	setupAPIDB(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", RegisterHandler())
	payload := RegisterRequest{Name: "x", Phone: "12345", Password: "pw"}
	b, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 Bad Request for bad phone, got %d: %s", w.Code, w.Body.String())
	}
	if !contains(w.Body.String(), "phone") {
		t.Errorf("expected error to name the phone field, got: %s", w.Body.String())
	}
}

func TestRegisterHandler_DuplicatePhone(t *testing.T) {
	setupAPIDB(t)
	seedAPIUser(t, "9876543210")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", RegisterHandler())
	// +91 prefix normalizes to the seeded number
	payload := RegisterRequest{Name: "dupe", Phone: "+919876543210", Password: "pw"}
	b, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 Conflict for duplicate phone, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRegisterHandler_Success(t *testing.T) {
	setupAPIDB(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", RegisterHandler())
	payload := RegisterRequest{Name: "Ravi", Phone: "9123456780", Password: "pw", Age: 28, HeightCm: 178}
	b, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}
	if !contains(w.Body.String(), "9123456780") {
		t.Errorf("expected response to contain phone, got: %s", w.Body.String())
	}
}

func TestLoginHandler_InvalidUser(t *testing.T) {
	setupAPIDB(t)
	seedAPIUser(t, "9876543210")
	cfg := testConfig()
	rdb := setupRedis()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", LoginHandler(cfg, rdb))
	payload := map[string]string{"phone": "9000000000", "password": "wrongpw"}
	b, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized for unknown phone, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginHandler_InvalidPassword(t *testing.T) {
	setupAPIDB(t)
	u := seedAPIUser(t, "9876543210")
	cfg := testConfig()
	rdb := setupRedis()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", LoginHandler(cfg, rdb))
	payload := map[string]string{"phone": u.Phone, "password": "wrongpw"}
	b, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized for bad password, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginHandler_Success(t *testing.T) {
	setupAPIDB(t)
	u := seedAPIUser(t, "9876543210")
	cfg := testConfig()
	rdb := setupRedis()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", LoginHandler(cfg, rdb))
	payload := map[string]string{"phone": "+91" + u.Phone, "password": "testpw"}
	b, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK for valid login, got %d: %s", w.Code, w.Body.String())
	}
	if !contains(w.Body.String(), "token") {
		t.Errorf("expected response to contain a token, got: %s", w.Body.String())
	}
}

func TestLogoutHandler_Unauthorized(t *testing.T) {
	rdb := setupRedis()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/logout", LogoutHandler(rdb))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized for logout, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMeHandler_Success(t *testing.T) {
	setupAPIDB(t)
	u := seedAPIUser(t, "9876543210")
	r := authedRouter(u.ID)
	r.GET("/auth/me", MeHandler())
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/auth/me", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if !contains(w.Body.String(), u.Phone) {
		t.Errorf("expected response to contain phone, got: %s", w.Body.String())
	}
}
