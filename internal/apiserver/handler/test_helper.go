package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/internal/apiserver/middleware"
	"github.com/recommerce-labs/console/internal/apiserver/upsell"
	"github.com/recommerce-labs/console/internal/auth/jwt"
	"github.com/recommerce-labs/console/internal/common/config"
	"github.com/recommerce-labs/console/pkg/metrics"

	"github.com/gin-gonic/gin"
	openaisdk "github.com/openai/openai-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// stubAI returns a canned completion or a canned error
type stubAI struct {
	content string
	err     error
}

func (s *stubAI) ChatCompletion(ctx context.Context, messages []openaisdk.ChatCompletionMessageParamUnion) (*openaisdk.ChatCompletion, error) {
	return s.ChatCompletionJSON(ctx, messages)
}

func (s *stubAI) ChatCompletionJSON(ctx context.Context, messages []openaisdk.ChatCompletionMessageParamUnion) (*openaisdk.ChatCompletion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &openaisdk.ChatCompletion{
		Choices: []openaisdk.ChatCompletionChoice{
			{Message: openaisdk.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

type testEnv struct {
	router *gin.Engine
	db     database.Database
	jwt    *jwt.Service
	ai     *stubAI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(&config.DatabaseConfig{
		Type:   "sqlite",
		DBName: filepath.Join(t.TempDir(), "handler.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.InitModuleCatalog(context.Background(), db))

	jwtSvc, err := jwt.NewService(jwt.Config{
		SecretKey: "0123456789abcdef0123456789abcdef",
		Duration:  time.Hour,
	})
	require.NoError(t, err)

	ai := &stubAI{content: `{"recommendations":[]}`}
	upsellSvc := upsell.NewService(db, ai, zap.NewNop(), time.Second)

	m := metrics.New(config.MetricsConfig{Namespace: "test"})
	h := NewHandler(db, jwtSvc, upsellSvc, m, zap.NewNop())
	r := gin.New()
	h.RegisterRoutes(r, middleware.JWTAuthMiddleware(jwtSvc))

	return &testEnv{router: r, db: db, jwt: jwtSvc, ai: ai}
}

// seedUser inserts a user with a bcrypt password of "password123"
func (e *testEnv) seedUser(t *testing.T, id, email string, level database.UserLevel, parentID *string) *database.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &database.User{
		ID:       id,
		Email:    email,
		Name:     id,
		Password: string(hashed),
		Level:    level,
		Status:   database.StatusActive,
		ParentID: parentID,
	}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

// seedHierarchy builds master -> super -> reseller -> company
func (e *testEnv) seedHierarchy(t *testing.T) (master, super, reseller, company *database.User) {
	t.Helper()
	master = e.seedUser(t, "master", "master@example.com", database.LevelMaster, nil)
	super = e.seedUser(t, "super", "super@example.com", database.LevelSuper, &master.ID)
	reseller = e.seedUser(t, "reseller", "reseller@example.com", database.LevelReseller, &super.ID)
	company = e.seedUser(t, "company", "company@example.com", database.LevelCompany, &reseller.ID)
	return
}

func (e *testEnv) token(t *testing.T, u *database.User) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken(u.ID, u.Email, string(u.Level))
	require.NoError(t, err)
	return tok
}

// do performs a request as the given user (nil for anonymous)
func (e *testEnv) do(t *testing.T, method, path string, as *database.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, as))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}
