package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/oopsinfosolutions/feed-sub001/config"
	"github.com/oopsinfosolutions/feed-sub001/internal/api/handler"
	"github.com/oopsinfosolutions/feed-sub001/internal/model"
	"github.com/oopsinfosolutions/feed-sub001/internal/repository"
	"github.com/oopsinfosolutions/feed-sub001/internal/service"
	"github.com/oopsinfosolutions/feed-sub001/pkg/database"
	"github.com/oopsinfosolutions/feed-sub001/pkg/jwt"
	"github.com/oopsinfosolutions/feed-sub001/pkg/storage"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 64)...)

// newTestServer wires the real stack over in-memory sqlite and a temp image dir
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()

	cfg := &config.Config{
		Server:   config.ServerConfig{BodyLimit: 1 << 20},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		Auth: config.AuthConfig{
			JWTSecret:      "router-test-secret-key",
			AccessTokenTTL: time.Hour,
			BcryptCost:     bcrypt.MinCost,
		},
		Storage: config.StorageConfig{ImageDir: t.TempDir(), MaxImageBytes: 1 << 16},
		IDGen:   config.IDGenConfig{MaxAttempts: 100},
	}

	db, err := database.NewDB(&cfg.Database, "silent", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db, "sqlite", logger, model.All()...))

	images, err := storage.NewLocalStore(cfg.Storage.ImageDir, logger)
	require.NoError(t, err)

	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(cfg, repository.NewRepository(db), jwtMgr, nil, images, nil, logger)
	h := handler.NewHandler(cfg, svc, images)

	r := Setup(cfg, h, jwtMgr, nil, logger)
	gin.SetMode(gin.TestMode)
	return r
}

func do(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func signupAndLogin(t *testing.T, r *gin.Engine, signup *http.Request, email string) (string, string) {
	t.Helper()
	w := do(r, signup)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	userID := decode(t, w)["user_id"].(string)

	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"email":"`+email+`","password":"s3cret-pass"}`))
	req.Header.Set("Content-Type", "application/json")
	w = do(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return userID, decode(t, w)["access_token"].(string)
}

func shipmentForm(t *testing.T, fields map[string]string, files map[string][]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for k, b := range files {
		fw, err := mw.CreateFormFile(k, k+".png")
		require.NoError(t, err)
		_, _ = fw.Write(b)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func authed(method, path, token string, body io.Reader, contentType string) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func TestHealth(t *testing.T) {
	r := newTestServer(t)

	w := do(r, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestServer(t)

	for _, path := range []string{"/shipment", "/user_id?user_id=1000", "/me"} {
		w := do(r, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestShipmentLifecycle(t *testing.T) {
	r := newTestServer(t)

	req := httptest.NewRequest("POST", "/signup", strings.NewReader(
		`{"name":"Asha","email":"asha@example.com","password":"s3cret-pass","phone":"900","type":"customer"}`))
	req.Header.Set("Content-Type", "application/json")
	userID, token := signupAndLogin(t, r, req, "asha@example.com")

	// create with one image; client total_price is ignored
	body, ct := shipmentForm(t, map[string]string{
		"material_Name":  "Steel Rods",
		"detail":         "Grade A",
		"quantity":       "10",
		"price_per_unit": "250.00",
		"total_price":    "1",
		"c_id":           userID,
	}, map[string][]byte{"image1": pngBytes})
	w := do(r, authed("POST", "/add_shipment", token, body, ct))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total_price":2500.00`)
	id := decode(t, w)["id"].(string)
	assert.Regexp(t, `^SHP\d{6}$`, id)

	// list by customer
	w = do(r, authed("GET", "/shipment?c_id="+userID, token, nil, ""))
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "pending", list[0]["status"])
	imageKey, _ := list[0]["image1"].(string)
	require.NotEmpty(t, imageKey)

	// stored image is served back
	w = do(r, authed("GET", "/images/"+imageKey, token, nil, ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngBytes, w.Body.Bytes())

	// partial update recomputes the total and keeps image1
	w = do(r, authed("PUT", "/update-shipment/"+id, token, strings.NewReader("quantity=20"), "application/x-www-form-urlencoded"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total_price":5000.00`)

	w = do(r, authed("GET", "/shipment/"+id, token, nil, ""))
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, float64(20), got["quantity"])
	assert.Equal(t, imageKey, got["image1"])

	// delete, then everything is 404 {message}
	w = do(r, authed("DELETE", "/delete-shipment/"+id, token, nil, ""))
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, authed("DELETE", "/delete-shipment/"+id, token, nil, ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Shipment not found", decode(t, w)["message"])

	w = do(r, authed("GET", "/images/"+imageKey, token, nil, ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccountFlow(t *testing.T) {
	r := newTestServer(t)

	signup := `{"name":"Ravi","email":"ravi@example.com","password":"s3cret-pass","phone":"901","type":"dealer"}`
	req := httptest.NewRequest("POST", "/signup", strings.NewReader(signup))
	req.Header.Set("Content-Type", "application/json")
	userID, token := signupAndLogin(t, r, req, "ravi@example.com")

	// same email again
	req = httptest.NewRequest("POST", "/signup", strings.NewReader(signup))
	req.Header.Set("Content-Type", "application/json")
	w := do(r, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	// wrong password and unknown email look the same
	bad := func(body string) map[string]interface{} {
		req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := do(r, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		return decode(t, w)
	}
	assert.Equal(t,
		bad(`{"email":"ravi@example.com","password":"wrong"}`),
		bad(`{"email":"nobody@example.com","password":"s3cret-pass"}`))

	// lookup by user_id
	w = do(r, authed("GET", "/user_id?user_id="+userID, token, nil, ""))
	require.Equal(t, http.StatusOK, w.Code)
	row := decode(t, w)
	assert.Equal(t, "ravi@example.com", row["email"])
	assert.NotContains(t, w.Body.String(), "password")

	w = do(r, authed("GET", "/user_id?user_id=0000", token, nil, ""))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// export is admin only
	w = do(r, authed("GET", "/export/shipments", token, nil, ""))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestShipmentWritesAreNotOwnerScoped(t *testing.T) {
	r := newTestServer(t)

	req := httptest.NewRequest("POST", "/signup", strings.NewReader(
		`{"name":"Asha","email":"asha@example.com","password":"s3cret-pass","phone":"900","type":"customer"}`))
	req.Header.Set("Content-Type", "application/json")
	ownerID, ownerToken := signupAndLogin(t, r, req, "asha@example.com")

	req = httptest.NewRequest("POST", "/signup", strings.NewReader(
		`{"name":"Ravi","email":"ravi@example.com","password":"s3cret-pass","phone":"901","type":"dealer"}`))
	req.Header.Set("Content-Type", "application/json")
	_, otherToken := signupAndLogin(t, r, req, "ravi@example.com")

	body, ct := shipmentForm(t, map[string]string{
		"material_Name":  "Steel Rods",
		"detail":         "Grade A",
		"quantity":       "10",
		"price_per_unit": "250.00",
		"c_id":           ownerID,
	}, nil)
	w := do(r, authed("POST", "/add_shipment", ownerToken, body, ct))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	// another account can change and remove it
	w = do(r, authed("PUT", "/update-shipment/"+id, otherToken, strings.NewReader("status=confirmed"), "application/x-www-form-urlencoded"))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, authed("DELETE", "/delete-shipment/"+id, otherToken, nil, ""))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShipmentNumericBounds(t *testing.T) {
	r := newTestServer(t)

	req := httptest.NewRequest("POST", "/signup", strings.NewReader(
		`{"name":"Asha","email":"asha@example.com","password":"s3cret-pass","phone":"900","type":"customer"}`))
	req.Header.Set("Content-Type", "application/json")
	userID, token := signupAndLogin(t, r, req, "asha@example.com")

	create := func(quantity, price string) *httptest.ResponseRecorder {
		body, ct := shipmentForm(t, map[string]string{
			"material_Name":  "Steel Rods",
			"detail":         "Grade A",
			"quantity":       quantity,
			"price_per_unit": price,
			"c_id":           userID,
		}, nil)
		return do(r, authed("POST", "/add_shipment", token, body, ct))
	}

	assert.Equal(t, http.StatusBadRequest, create("10", "250.005").Code)
	assert.Equal(t, http.StatusBadRequest, create("3000000000", "0").Code)

	w := create("10", "250.50")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total_price":2505.00`)
}

func TestSignupPasswordByteLimit(t *testing.T) {
	r := newTestServer(t)

	body := `{"name":"Asha","email":"asha@example.com","password":"` + strings.Repeat("é", 40) +
		`","phone":"900","type":"customer"}`
	req := httptest.NewRequest("POST", "/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := do(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}
