package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"feedback-board/internal/auth"
	"feedback-board/internal/repository/sqlite"
	"feedback-board/internal/service"
	"feedback-board/internal/session"
	"feedback-board/internal/storage"
)

type memoryStorage struct {
	objects map[string]string
}

func (m *memoryStorage) PutObject(_ context.Context, bucket, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[storage.Location(bucket, key)] = string(data)
	return nil
}

func (m *memoryStorage) DeletePrefix(_ context.Context, bucket, prefix string) error {
	for k := range m.objects {
		if strings.HasPrefix(k, storage.Location(bucket, prefix)) {
			delete(m.objects, k)
		}
	}
	return nil
}

func (m *memoryStorage) PresignGetURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + bucket + "/" + key, nil
}

func newTestRouter(t *testing.T, store storage.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repos, err := sqlite.NewStore(context.Background(), db)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sessions, err := session.NewManager(session.Config{Secret: []byte("test-secret"), Logger: logger}, repos.Sessions, repos.Users)
	require.NoError(t, err)

	users := service.NewUserService(repos.Users, auth.NewBcryptHasher(bcrypt.MinCost), logger)
	feedback := service.NewFeedbackService(repos.Feedback)
	exports := service.NewExportService(service.ExportConfig{Bucket: "exports", KeyPrefix: "fb"}, store, users, feedback, logger)

	router := gin.New()
	NewHandler(users, feedback, service.NewGuard(sessions, feedback), sessions, exports, session.CookieOptions{}, logger).
		RegisterRoutes(router)
	return router
}

// browser replays cookies between requests like a user agent.
type browser struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, router *gin.Engine) *browser {
	return &browser{t: t, router: router, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) postJSON(target string, payload any) *httptest.ResponseRecorder {
	b.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(b.t, err)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func registration(username, email string) url.Values {
	return url.Values{
		"username":   {username},
		"password":   {"secret1"},
		"email":      {email},
		"first_name": {"Alice"},
		"last_name":  {"Lee"},
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestFeedbackFlow(t *testing.T) {
	router := newTestRouter(t, nil)
	alice := newBrowser(t, router)

	rec := alice.do(http.MethodPost, "/register", registration("alice", "a@x.com"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users/alice", rec.Header().Get("Location"))

	rec = alice.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = alice.do(http.MethodGet, "/users/alice", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = alice.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"wrong1"}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), invalidCredentialsMessage)

	rec = alice.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users/alice", rec.Header().Get("Location"))

	rec = alice.do(http.MethodPost, "/users/alice/feedback", url.Values{"title": {"Hi"}, "content": {"body"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = alice.do(http.MethodGet, "/users/alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[ProfileResponse](t, rec)
	assert.Equal(t, "Alice Lee", profile.User.FullName)
	require.Len(t, profile.Feedback, 1)
	assert.Equal(t, "Hi", profile.Feedback[0].Title)
	feedbackPath := "/feedback/" + strconv.FormatInt(profile.Feedback[0].ID, 10)

	bob := newBrowser(t, router)
	rec = bob.do(http.MethodPost, "/register", registration("bobby", "b@x.com"))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = bob.do(http.MethodPost, feedbackPath+"/update", url.Values{"title": {"pwned"}, "content": {"x"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = bob.do(http.MethodPost, feedbackPath+"/delete", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = bob.do(http.MethodGet, "/users/alice", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = alice.do(http.MethodGet, feedbackPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hi", decode[FeedbackResponse](t, rec).Title)

	rec = alice.do(http.MethodPost, feedbackPath+"/update", url.Values{"title": {"Hello"}, "content": {"edited"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users/alice", rec.Header().Get("Location"))

	rec = alice.do(http.MethodPost, feedbackPath+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = alice.do(http.MethodGet, feedbackPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegister_Errors(t *testing.T) {
	router := newTestRouter(t, nil)

	first := newBrowser(t, router)
	require.Equal(t, http.StatusSeeOther, first.do(http.MethodPost, "/register", registration("alice", "a@x.com")).Code)

	other := newBrowser(t, router)
	rec := other.do(http.MethodPost, "/register", registration("alice", "other@x.com"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username already exists.")

	rec = other.do(http.MethodPost, "/register", registration("alicia", "a@x.com"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already exists.")
	assert.Empty(t, other.cookies)

	rec = other.postJSON("/register", map[string]string{"username": "abc", "password": "1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Errors map[string]string `json:"errors"`
	}](t, rec)
	assert.Contains(t, body.Errors, "username")
	assert.Contains(t, body.Errors, "password")
	assert.Contains(t, body.Errors, "email")
}

func TestSignedInUserIsRedirected(t *testing.T) {
	router := newTestRouter(t, nil)
	alice := newBrowser(t, router)
	require.Equal(t, http.StatusSeeOther, alice.do(http.MethodPost, "/register", registration("alice", "a@x.com")).Code)

	rec := alice.do(http.MethodPost, "/register", registration("other", "o@x.com"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users/alice", rec.Header().Get("Location"))

	rec = alice.do(http.MethodPost, "/login", url.Values{"username": {"whoever"}, "password": {"whatever"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users/alice", rec.Header().Get("Location"))

	rec = alice.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register", rec.Header().Get("Location"))
}

func TestDeleteUser_CascadesAndSignsOut(t *testing.T) {
	store := &memoryStorage{objects: map[string]string{}}
	router := newTestRouter(t, store)
	alice := newBrowser(t, router)
	require.Equal(t, http.StatusSeeOther, alice.do(http.MethodPost, "/register", registration("alice", "a@x.com")).Code)
	require.Equal(t, http.StatusSeeOther, alice.do(http.MethodPost, "/users/alice/feedback", url.Values{"title": {"t"}, "content": {"c"}}).Code)

	rec := alice.do(http.MethodPost, "/users/alice/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	export := decode[ExportResponse](t, rec)
	assert.True(t, strings.HasPrefix(export.Location, "s3://exports/fb/alice/"))
	assert.NotEmpty(t, export.URL)
	require.Len(t, store.objects, 1)

	stolen := make(map[string]*http.Cookie, len(alice.cookies))
	for k, v := range alice.cookies {
		stolen[k] = v
	}

	rec = alice.do(http.MethodPost, "/users/alice/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, alice.cookies)
	assert.Empty(t, store.objects)

	replay := newBrowser(t, router)
	replay.cookies = stolen
	assert.Equal(t, http.StatusUnauthorized, replay.do(http.MethodGet, "/users/alice", nil).Code)

	rec = alice.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// the username is free again and starts with no feedback
	require.Equal(t, http.StatusSeeOther, alice.do(http.MethodPost, "/register", registration("alice", "a@x.com")).Code)
	rec = alice.do(http.MethodGet, "/users/alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[ProfileResponse](t, rec).Feedback)
}

func TestExport_DisabledWithoutStorage(t *testing.T) {
	router := newTestRouter(t, nil)
	alice := newBrowser(t, router)
	require.Equal(t, http.StatusSeeOther, alice.do(http.MethodPost, "/register", registration("alice", "a@x.com")).Code)

	rec := alice.do(http.MethodPost, "/users/alice/export", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFeedbackRoutes_NotFoundAndBadID(t *testing.T) {
	router := newTestRouter(t, nil)
	anon := newBrowser(t, router)

	assert.Equal(t, http.StatusNotFound, anon.do(http.MethodGet, "/feedback/999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, anon.do(http.MethodGet, "/feedback/abc", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, "/users/alice/feedback", url.Values{"title": {"t"}, "content": {"c"}}).Code)
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/health", nil).Code)
}

func TestLogout_InvalidatesCopiedCookie(t *testing.T) {
	router := newTestRouter(t, nil)
	alice := newBrowser(t, router)
	require.Equal(t, http.StatusSeeOther, alice.do(http.MethodPost, "/register", registration("alice", "a@x.com")).Code)

	copied := newBrowser(t, router)
	for k, v := range alice.cookies {
		copied.cookies[k] = v
	}
	require.Equal(t, http.StatusOK, copied.do(http.MethodGet, "/users/alice", nil).Code)

	require.Equal(t, http.StatusSeeOther, alice.do(http.MethodPost, "/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, copied.do(http.MethodGet, "/users/alice", nil).Code)
}
