package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/connectorhub/registry/internal/iconstore"
	"github.com/connectorhub/registry/internal/identity"
	"github.com/connectorhub/registry/internal/metrics"
	"github.com/connectorhub/registry/internal/middleware"
	"github.com/connectorhub/registry/internal/registry/domain/vendor"
	"github.com/connectorhub/registry/internal/registry/services"
	"github.com/connectorhub/registry/internal/registry/storage/memory"
	"github.com/connectorhub/registry/pkg/logger"
)

type testAPI struct {
	router      *mux.Router
	vendorToken string
	adminToken  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()

	store := memory.New("connection.example.com")
	if err := store.CreateVendor(ctx, vendor.Vendor{ID: "v", Name: "Vendor", Email: "v@example.com"}); err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}

	provider := identity.NewMemoryProvider()
	issuer := identity.NewTokenIssuer("test-secret", time.Hour)
	log := logger.Nop()
	m := metrics.New("test")

	apps := services.NewApps(store, store, store, &iconstore.FakeStore{BaseURL: "https://uploads.test"}, m, log)
	vendors := services.NewVendors(store, log)
	auth := services.NewAuth(provider, issuer, store, []string{"admin@example.com"}, log)

	handler := New(apps, vendors, auth, middleware.NewAuthMiddleware(issuer, log), m, log)

	api := &testAPI{router: handler.Router()}

	for _, email := range []string{"dev@example.com", "admin@example.com"} {
		if err := auth.SignUp(ctx, identity.User{Email: email, Name: "Dev", Vendor: "v"}, "hunter2hunter2"); err != nil {
			t.Fatalf("SignUp %s: %v", email, err)
		}
		if err := auth.Confirm(ctx, email, provider.ValidCode); err != nil {
			t.Fatalf("Confirm %s: %v", email, err)
		}
		if err := auth.SetUserEnabled(ctx, email, true); err != nil {
			t.Fatalf("SetUserEnabled %s: %v", email, err)
		}
	}

	var login struct {
		Token string `json:"token"`
	}
	rec := api.do(t, http.MethodPost, "/auth/login", "", `{"email":"dev@example.com","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &login)
	api.vendorToken = login.Token

	rec = api.do(t, http.MethodPost, "/auth/login", "", `{"email":"admin@example.com","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login: %d %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &login)
	api.adminToken = login.Token

	return api
}

func (api *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

type appBody struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URI       string `json:"uri"`
	Version   int    `json:"version"`
	IsPublic  bool   `json:"isPublic"`
	Icon32    string `json:"icon32"`
	CreatedBy string `json:"createdBy"`
	Short     string `json:"shortDescription"`
}

func TestAppLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	// Create: version 1, id prefixed with the session's vendor.
	rec := api.do(t, http.MethodPost, "/vendor/apps", api.vendorToken,
		`{"id":"a1","name":"App One","type":"extractor"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created appBody
	decodeBody(t, rec, &created)
	if created.ID != "v.a1" || created.Version != 1 {
		t.Fatalf("created = %+v", created)
	}
	if created.URI != "docker/v.a1" {
		t.Fatalf("uri = %s", created.URI)
	}
	if created.CreatedBy != "dev@example.com" {
		t.Fatalf("createdBy = %s", created.CreatedBy)
	}

	// Hidden from the public surface until approved, visible to admins.
	if rec := api.do(t, http.MethodGet, "/apps/v.a1", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("public get before approval: %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/admin/apps/v.a1", api.adminToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("admin get: %d", rec.Code)
	}

	// Update: version 2.
	rec = api.do(t, http.MethodPatch, "/vendor/apps/v.a1", api.vendorToken,
		`{"shortDescription":"Extracts things"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	var updated appBody
	decodeBody(t, rec, &updated)
	if updated.Version != 2 || updated.Short != "Extracts things" {
		t.Fatalf("updated = %+v", updated)
	}

	// Icon upload: version 3, targets point at the stamped paths.
	rec = api.do(t, http.MethodPost, "/vendor/apps/v.a1/icon", api.vendorToken, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("icon: %d %s", rec.Code, rec.Body.String())
	}
	var icon struct {
		Version int `json:"version"`
		Links   struct {
			Icon32 struct {
				URL string `json:"url"`
			} `json:"32"`
		} `json:"links"`
	}
	decodeBody(t, rec, &icon)
	if icon.Version != 3 {
		t.Fatalf("icon version = %d", icon.Version)
	}
	if !strings.Contains(icon.Links.Icon32.URL, "v.a1/32/3.png") {
		t.Fatalf("icon target = %s", icon.Links.Icon32.URL)
	}

	// Approve: version 4, now on the public surface.
	rec = api.do(t, http.MethodPost, "/admin/apps/v.a1/approve", api.adminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", rec.Code, rec.Body.String())
	}
	rec = api.do(t, http.MethodGet, "/apps/v.a1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("public get after approval: %d", rec.Code)
	}
	var public map[string]any
	decodeBody(t, rec, &public)
	if _, leaked := public["createdBy"]; leaked {
		t.Fatal("audit field leaked into the public projection")
	}

	// Version history is complete and readable.
	rec = api.do(t, http.MethodGet, "/vendor/apps/v.a1/versions", api.vendorToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("versions: %d", rec.Code)
	}
	var versions []appBody
	decodeBody(t, rec, &versions)
	if len(versions) != 4 {
		t.Fatalf("versions = %d, want 4", len(versions))
	}
	rec = api.do(t, http.MethodGet, "/vendor/apps/v.a1/versions/1", api.vendorToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("version 1: %d", rec.Code)
	}
	var v1 appBody
	decodeBody(t, rec, &v1)
	if v1.Short != "" {
		t.Fatalf("version 1 short description = %q", v1.Short)
	}
}

func TestVendorPayloadRejectsForbiddenFields(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/vendor/apps", api.vendorToken,
		`{"id":"a1","name":"App","type":"extractor"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	cases := []string{
		`{"isPublic":true}`,
		`{"version":7}`,
		`{"createdBy":"someone@else.com"}`,
		`{"vendor":"other"}`,
		`{"requiredMemory":"512m"}`,
		`{"unknownField":1}`,
	}
	for _, body := range cases {
		rec := api.do(t, http.MethodPatch, "/vendor/apps/v.a1", api.vendorToken, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("payload %s: status %d, want 400", body, rec.Code)
		}
	}

	// The app is untouched.
	rec = api.do(t, http.MethodGet, "/vendor/apps/v.a1", api.vendorToken, "")
	var a appBody
	decodeBody(t, rec, &a)
	if a.Version != 1 || a.IsPublic {
		t.Fatalf("app mutated by rejected payloads: %+v", a)
	}
}

func TestAdminPayloadAllowsRuntimeFields(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/vendor/apps", api.vendorToken,
		`{"id":"a1","name":"App","type":"extractor"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}

	rec = api.do(t, http.MethodPatch, "/admin/apps/v.a1", api.adminToken,
		`{"requiredMemory":"512m","processTimeout":3600}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin update: %d %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["requiredMemory"] != "512m" {
		t.Fatalf("requiredMemory = %v", body["requiredMemory"])
	}
}

func TestAuthorizationBoundaries(t *testing.T) {
	api := newTestAPI(t)

	if rec := api.do(t, http.MethodGet, "/vendor/apps", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated vendor route: %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/admin/apps", api.vendorToken, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("vendor token on admin route: %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/admin/apps", api.adminToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("admin token on admin route: %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/apps", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("public route: %d", rec.Code)
	}
}

func TestVendorCannotTouchForeignApp(t *testing.T) {
	api := newTestAPI(t)

	// Second vendor with its own app and account.
	rec := api.do(t, http.MethodPost, "/admin/vendors", api.adminToken,
		`{"id":"other","name":"Other","address":"2 Side St","email":"o@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create vendor: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPost, "/vendor/apps", api.vendorToken,
		`{"id":"a1","name":"Mine","type":"extractor"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create app: %d", rec.Code)
	}

	// Ids under the other vendor's namespace read as missing.
	rec = api.do(t, http.MethodGet, "/vendor/apps/other.a1", api.vendorToken, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign app read: %d, want 404", rec.Code)
	}
}

func TestSignupFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/auth/signup", "",
		`{"email":"new@example.com","name":"New Dev","vendor":"v","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", rec.Code, rec.Body.String())
	}

	// Login before confirmation refuses.
	rec = api.do(t, http.MethodPost, "/auth/login", "",
		`{"email":"new@example.com","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login before confirm: %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/auth/confirm", "",
		`{"email":"new@example.com","code":"123456"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", rec.Code, rec.Body.String())
	}

	// Resend after confirmation refuses.
	rec = api.do(t, http.MethodPost, "/auth/resend", "", `{"email":"new@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("resend after confirm: %d", rec.Code)
	}

	// Confirmed accounts stay locked until an admin enables them.
	rec = api.do(t, http.MethodPost, "/auth/login", "",
		`{"email":"new@example.com","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login before approval: %d", rec.Code)
	}
	rec = api.do(t, http.MethodPost, "/admin/users/new@example.com/enable", api.adminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("enable: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPost, "/auth/login", "",
		`{"email":"new@example.com","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}

	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &login)
	rec = api.do(t, http.MethodGet, "/auth/profile", login.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: %d %s", rec.Code, rec.Body.String())
	}
	var profile identity.User
	decodeBody(t, rec, &profile)
	if profile.Vendor != "v" || !profile.IsConfirmed {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestSignupUnknownVendorOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/auth/signup", "",
		`{"email":"x@example.com","name":"X","vendor":"ghost","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("signup with unknown vendor: %d", rec.Code)
	}
}
