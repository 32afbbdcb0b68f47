package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stylefold/wardrobe/internal/config"
	entitlementdomain "github.com/stylefold/wardrobe/internal/entitlement/domain"
	"github.com/stylefold/wardrobe/internal/observability"
	"github.com/stylefold/wardrobe/internal/promptcache"
	"github.com/stylefold/wardrobe/internal/quota"
	"github.com/stylefold/wardrobe/internal/reconcile"
	"github.com/stylefold/wardrobe/internal/stylist"
	"github.com/stylefold/wardrobe/internal/stylist/fal"
	userrecorddomain "github.com/stylefold/wardrobe/internal/userrecord/domain"
	userrepository "github.com/stylefold/wardrobe/internal/userrecord/repository"
	userservice "github.com/stylefold/wardrobe/internal/userrecord/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mapResolver serves canned profiles by user id; unknown users get
// ErrProfileNotFound, like the real platform.
type mapResolver struct {
	profiles map[string]*entitlementdomain.Profile
}

func (r *mapResolver) FetchProfile(ctx context.Context, userID string) (*entitlementdomain.Profile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, entitlementdomain.ErrProfileNotFound
	}
	return profile, nil
}

type testEnv struct {
	server   *Server
	users    userrecorddomain.Service
	resolver *mapResolver
	falMux   *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&userrecorddomain.UserRecord{}))

	resolver := &mapResolver{profiles: make(map[string]*entitlementdomain.Profile)}
	users := userservice.New(userservice.Params{
		DB:       db,
		Log:      log,
		Repo:     userrepository.Provide(),
		Resolver: resolver,
	})

	falMux := http.NewServeMux()
	falSrv := httptest.NewServer(falMux)
	t.Cleanup(falSrv.Close)

	holder, err := config.NewPromptConfigHolder()
	require.NoError(t, err)

	cache := promptcache.New(promptcache.FetcherFunc(
		func(ctx context.Context) (map[string]string, error) {
			return map[string]string{}, nil
		},
	), log)

	stylistSvc := stylist.New(stylist.Params{
		Log:     log,
		Guard:   quota.New(quota.Params{Log: log, Users: users}),
		Fal:     fal.New(config.Config{FalBaseURL: falSrv.URL, FalKey: "test-key"}, log),
		Prompts: cache,
		Holder:  holder,
		Picker:  func(n int) int { return 0 },
	})

	reconciler := reconcile.New(reconcile.Params{
		Log:      log,
		Resolver: resolver,
		Users:    users,
	})

	engine := NewEngine(observability.Config{Environment: "test"})
	srv := NewServer(Params{
		Engine:     engine,
		Cfg:        config.Config{},
		Log:        log,
		Stylist:    stylistSvc,
		Users:      users,
		Reconciler: reconciler,
		Metrics:    NewOperationMetrics(),
	})
	srv.RegisterRoutes()

	return &testEnv{server: srv, users: users, resolver: resolver, falMux: falMux}
}

func (e *testEnv) addProfile(userID, productID string) {
	e.resolver.profiles[userID] = &entitlementdomain.Profile{
		ProfileID:      "adapty-" + userID,
		CustomerUserID: userID,
		Subscriptions: map[string]entitlementdomain.Subscription{
			productID: {StoreProductID: productID},
		},
	}
}

func (e *testEnv) seedRecord(t *testing.T, userID string, tryOns, suggestions, analysis int) {
	t.Helper()
	_, err := e.users.ApplyAllotment(context.Background(), userID, entitlementdomain.Allotment{
		Tier:          entitlementdomain.TierPremium,
		TryOns:        tryOns,
		Suggestions:   suggestions,
		ClothAnalysis: analysis,
	})
	require.NoError(t, err)
}

func (e *testEnv) stubFal(path string, response any) {
	e.falMux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})
}

func (e *testEnv) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	return parsed
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", rec.Body.String())
	code, _ := errObj["code"].(string)
	return code
}

func TestAnalyze_DebitsUntilExhausted(t *testing.T) {
	env := newTestEnv(t)
	env.seedRecord(t, "user-1", 0, 0, 1)
	env.stubFal("/fal-ai/birefnet/v2", map[string]any{
		"image": map[string]any{"url": "https://cdn.example/cutout.png"},
	})
	env.stubFal("/fal-ai/llava-next", map[string]any{
		"output": `{"category": "Shirt", "description": "A shirt.", "name": "White Shirt"}`,
	})

	payload := map[string]any{"uuid": "user-1", "image_base_64": "aW1hZ2U="}

	rec := env.do(t, http.MethodPost, "/v1/analyze", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Shirt", body["category"])
	assert.EqualValues(t, 0, body["new_quota"])

	rec = env.do(t, http.MethodPost, "/v1/analyze", payload)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeResourceExhausted, errorCode(t, rec))
}

func TestAnalyze_UnknownUserIsPermissionDenied(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/analyze", map[string]any{
		"uuid":          "ghost",
		"image_base_64": "aW1hZ2U=",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodePermissionDenied, errorCode(t, rec))
}

func TestAnalyze_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/analyze", map[string]any{"uuid": "user-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, CodeInvalidArgument, errObj["code"])
	assert.Contains(t, errObj["message"], "image_base_64")
}

func TestAnalyze_AcceptsCallableWrapper(t *testing.T) {
	env := newTestEnv(t)
	env.seedRecord(t, "user-1", 0, 0, 5)
	env.stubFal("/fal-ai/birefnet/v2", map[string]any{
		"image": map[string]any{"url": "https://cdn.example/cutout.png"},
	})
	env.stubFal("/fal-ai/llava-next", map[string]any{
		"output": `{"category": "Shirt", "description": "A shirt.", "name": "White Shirt"}`,
	})

	rec := env.do(t, http.MethodPost, "/v1/analyze", map[string]any{
		"data": map[string]any{"uuid": "user-1", "image_base_64": "aW1hZ2U="},
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func tryOnPayload(garments int) map[string]any {
	items := make([]map[string]any, garments)
	for i := range items {
		items[i] = map[string]any{"base64": "Z2FybWVudA==", "name": "Garment"}
	}
	return map[string]any{
		"uuid":               "user-1",
		"pose_image_base_64": "cG9zZQ==",
		"clothing_items":     items,
	}
}

func TestTryOn_CostExceedsQuota(t *testing.T) {
	env := newTestEnv(t)
	env.seedRecord(t, "user-1", 2, 0, 0)

	rec := env.do(t, http.MethodPost, "/v1/tryon", tryOnPayload(3))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeResourceExhausted, errorCode(t, rec))
}

func TestTryOn_ThreeGarmentsWithinQuota(t *testing.T) {
	env := newTestEnv(t)
	env.seedRecord(t, "user-1", 3, 0, 0)
	env.stubFal("/fal-ai/nano-banana-pro/edit", map[string]any{
		"image": map[string]any{"url": "https://cdn.example/result.png"},
	})

	rec := env.do(t, http.MethodPost, "/v1/tryon", tryOnPayload(3))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "https://cdn.example/result.png", body["result_image_url"])
	assert.EqualValues(t, 0, body["new_quota"])
}

func TestTryOn_EmptyGarmentList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/tryon", map[string]any{
		"uuid":               "user-1",
		"pose_image_base_64": "cG9zZQ==",
		"clothing_items":     []any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidArgument, errorCode(t, rec))
}

func TestSuggestion_RequiresExactlyOneIntent(t *testing.T) {
	env := newTestEnv(t)

	for name, payload := range map[string]map[string]any{
		"neither": {"uuid": "user-1"},
		"both":    {"uuid": "user-1", "user_request": "a", "scenario": "b"},
	} {
		rec := env.do(t, http.MethodPost, "/v1/suggestion", payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Equal(t, CodeInvalidArgument, errorCode(t, rec), name)
	}
}

func TestSuggestion_Success(t *testing.T) {
	env := newTestEnv(t)
	env.seedRecord(t, "user-1", 0, 2, 0)
	env.stubFal("/fal-ai/any-llm/enterprise", map[string]any{
		"output": `{"recommendation": ["ID_1"], "description": "A look."}`,
	})

	rec := env.do(t, http.MethodPost, "/v1/suggestion", map[string]any{
		"uuid":         "user-1",
		"user_request": "rainy day outfit",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, []any{"ID_1"}, body["recommendation"])
	assert.EqualValues(t, 1, body["new_quota"])
}

func TestUserSync_OverwritesFromPlatform(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile("user-1", "com.stylefold.monthly")
	// Pre-existing spent record; sync restores the full allotment.
	env.seedRecord(t, "user-1", 10, 10, 10)

	rec := env.do(t, http.MethodPost, "/v1/users/sync", map[string]any{"uuid": "user-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "premium", body["tier"])
	assert.EqualValues(t, 100, body["remainingTryOns"])
	assert.EqualValues(t, 100, body["remainingSuggestions"])
	assert.EqualValues(t, 100, body["remainingClothAnalysis"])
	assert.Contains(t, body, "lastSyncedWithAdapty")
}

func TestUserSync_UnknownProfile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/users/sync", map[string]any{"uuid": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, errorCode(t, rec))
}

func TestUserInfo_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/users/info", map[string]any{"uuid": "nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, errorCode(t, rec))
}

func TestUserInfo_ReturnsRecord(t *testing.T) {
	env := newTestEnv(t)
	env.seedRecord(t, "user-1", 7, 8, 9)

	rec := env.do(t, http.MethodPost, "/v1/users/info", map[string]any{"uuid": "user-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "user-1", body["uuid"])
	assert.EqualValues(t, 7, body["remainingTryOns"])
	assert.EqualValues(t, 8, body["remainingSuggestions"])
	assert.EqualValues(t, 9, body["remainingClothAnalysis"])
}

func TestUserInitialize_FreemiumFallback(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/users/initialize", map[string]any{"uuid": "new-user"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "freemium", user["tier"])
	assert.EqualValues(t, 20, user["remainingTryOns"])
}

func TestWebhook_RelevantEventSyncs(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile("user-1", "com.stylefold.ultra")

	rec := env.do(t, http.MethodPost, "/webhooks/adapty", map[string]any{
		"event_type": "subscription_started",
		"profile_id": "user-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "ultra_premium", body["tier"])

	record, err := env.users.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 500, record.RemainingTryOns)
}

func TestWebhook_UnrecognizedEventLeavesQuotaUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.seedRecord(t, "user-1", 42, 42, 42)

	rec := env.do(t, http.MethodPost, "/webhooks/adapty", map[string]any{
		"event_type": "access_level_updated",
		"profile_id": "user-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored", decodeBody(t, rec)["status"])

	record, err := env.users.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 42, record.RemainingTryOns)
}

func TestWebhook_UnknownProfileAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/webhooks/adapty", map[string]any{
		"event_type": "subscription_renewed",
		"profile_id": "ghost",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "profile_not_found", body["status"])
	assert.Equal(t, "ghost", body["profile_id"])
}

func TestWebhook_MissingProfileIDAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/webhooks/adapty", map[string]any{
		"event_type": "subscription_started",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored", decodeBody(t, rec)["status"])
}

func TestWebhook_GetIsMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/webhooks/adapty", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestInvalidJSONBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	env.server.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidArgument, errorCode(t, rec))
}
