package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/jrsteele09/go-marathon-server/auth"
	"github.com/jrsteele09/go-marathon-server/internal/config"
	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/mail"
	"github.com/jrsteele09/go-marathon-server/render"
	"github.com/jrsteele09/go-marathon-server/server"
	"github.com/jrsteele09/go-marathon-server/sessions"
	"github.com/jrsteele09/go-marathon-server/static"
	"github.com/jrsteele09/go-marathon-server/storage/inmemory"
	"github.com/jrsteele09/go-marathon-server/tokens"
	"github.com/jrsteele09/go-marathon-server/users"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail = "runner@example.com"
	testWebRoot   = "http://localhost:8025"
)

var testSite = fstest.MapFS{
	"_template.html":  {Data: []byte(`<html><title>#{website_host}</title><body>#{CONTENT}</body></html>`)},
	"index.html":      {Data: []byte(`<p>#{logged_in ? "Hello " + h(user.name) : "Please log in"}</p>`)},
	"about.html":      {Data: []byte(`<p>About #{path}</p>`)},
	"broken.html":     {Data: []byte(`<p>#{no_such_variable}</p>`)},
	"unbalanced.html": {Data: []byte(`<p>#{1 + {2}</p>`)},
	"css/site.css":    {Data: []byte(`p { color: red; }`)},
	"rules.pdf":       {Data: []byte(`%PDF-1.4`)},
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// failingSessions answers every session lookup with a store failure.
type failingSessions struct {
	*inmemory.Store
}

func (failingSessions) FindSession(context.Context, string) (*sessions.Session, error) {
	return nil, apperrors.Upstream(errors.New("store down"), "finding session")
}

type panickingFiles struct{}

func (panickingFiles) ReadFile(context.Context, string) ([]byte, error) {
	panic("disk on fire")
}

// testFixture holds all test dependencies
type testFixture struct {
	store  *inmemory.Store
	mailer *recordingMailer
	server *server.Server
}

func setupTestFixture(t *testing.T, values map[string]string, files static.Store) *testFixture {
	t.Helper()

	cfgValues := map[string]string{
		"ENV":             "DEV",
		"WEB_ROOT":        testWebRoot,
		"WEBSITE_HOST":    "marathon.example.com",
		"ALLOWED_ORIGINS": "https://app.example.com",
		"MAX_BODY_LENGTH": "128",
	}
	for k, v := range values {
		cfgValues[k] = v
	}
	cfg := config.FromValues(cfgValues)

	f := &testFixture{store: inmemory.New(), mailer: &recordingMailer{}}
	require.NoError(t, f.store.Upsert(context.Background(), &users.User{Email: testUserEmail, Name: "Ada <Runner>"}))

	authService, err := auth.NewService(
		auth.Repos{Users: f.store, Sessions: f.store},
		f.mailer,
		tokens.NewCodeGenerator(cfg.GetFixedLoginCode()),
		auth.Settings{SiteName: cfg.GetAppName(), WebRoot: cfg.GetWebRoot(), MailFrom: cfg.GetSmtpFrom()},
	)
	require.NoError(t, err)

	if files == nil {
		files = static.NewFSStore(testSite)
	}
	f.server, err = server.New(cfg, server.Deps{
		Auth:     authService,
		Users:    f.store,
		Files:    files,
		Expander: render.NewExpander(),
		Health:   f.store,
	})
	require.NoError(t, err)
	return f
}

func (f *testFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) requestLogin(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, server.RouteRequestLogin, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return f.do(req)
}

func (f *testFixture) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return f.do(req)
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

func (f *testFixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := f.requestLogin(t, `{"email":"`+testUserEmail+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = f.get("/l/" + resp["tag"] + "/" + tokens.FixedCode)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	return cookie
}

func TestRequestLogin(t *testing.T) {
	f := setupTestFixture(t, nil, nil)

	rec := f.requestLogin(t, `{"email":"Runner@Example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "yay", resp["ok"])
	require.Len(t, resp["tag"], 12)

	require.Len(t, f.mailer.sent, 1)
	require.Equal(t, testUserEmail, f.mailer.sent[0].To)
	require.Contains(t, f.mailer.sent[0].HTML, "123456")
}

func TestRequestLoginRejectsBadInput(t *testing.T) {
	f := setupTestFixture(t, nil, nil)

	tests := map[string]string{
		"not json":     `email=runner@example.com`,
		"missing key":  `{"mail":"runner@example.com"}`,
		"array":        `["runner@example.com"]`,
		"body too big": `{"email":"` + strings.Repeat("a", 200) + `@example.com"}`,
		"wrong type":   `{"email":42}`,
	}
	for name, body := range tests {
		rec := f.requestLogin(t, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
	require.Empty(t, f.mailer.sent)
}

func TestRequestLoginStringLimit(t *testing.T) {
	f := setupTestFixture(t, map[string]string{"MAX_BODY_LENGTH": "512", "MAX_STRING_LENGTH": "16"}, nil)
	rec := f.requestLogin(t, `{"email":"`+testUserEmail+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestLoginUnknownUser(t *testing.T) {
	f := setupTestFixture(t, nil, nil)
	rec := f.requestLogin(t, `{"email":"nobody@example.com"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "nobody")
}

func TestLoginLink(t *testing.T) {
	f := setupTestFixture(t, nil, nil)

	rec := f.requestLogin(t, `{"email":"`+testUserEmail+`"}`)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = f.get("/l/" + resp["tag"] + "/" + tokens.FixedCode)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, testWebRoot+"/", rec.Header().Get("Location"))

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	require.Len(t, cookie.Value, 24)
	require.True(t, cookie.HttpOnly)
	require.False(t, cookie.Secure, "development cookies are not Secure")
	require.Equal(t, "/", cookie.Path)

	rec = f.get("/", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Hello Ada &lt;Runner&gt;")

	rec = f.get("/l/" + resp["tag"] + "/" + tokens.FixedCode)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Nil(t, sessionCookie(rec), "a login link works once")
}

func TestLoginLinkTrailingSlash(t *testing.T) {
	f := setupTestFixture(t, nil, nil)

	rec := f.requestLogin(t, `{"email":"`+testUserEmail+`"}`)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = f.get("/l/" + resp["tag"] + "/" + tokens.FixedCode + "/")
	require.Equal(t, http.StatusFound, rec.Code)
	require.NotNil(t, sessionCookie(rec))
}

func TestLoginLinkSecureCookieInProduction(t *testing.T) {
	f := setupTestFixture(t, map[string]string{"ENV": "PROD", "FIXED_LOGIN_CODE": "true"}, nil)
	cookie := f.login(t)
	require.True(t, cookie.Secure)
}

func TestLoginLinkWrongCode(t *testing.T) {
	f := setupTestFixture(t, nil, nil)

	rec := f.requestLogin(t, `{"email":"`+testUserEmail+`"}`)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	for _, path := range []string{
		"/l/" + resp["tag"] + "/000000",
		"/l/" + resp["tag"],
		"/l/" + resp["tag"] + "/123456/extra",
		"/l/bad-tag/123456",
	} {
		rec = f.get(path)
		require.Equal(t, http.StatusFound, rec.Code, path)
		require.Equal(t, testWebRoot+"/", rec.Header().Get("Location"), path)
		require.Nil(t, sessionCookie(rec), path)
	}
	require.Equal(t, 0, f.store.SessionCount())
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, server.RouteLogout, nil)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":"yeah"}`, rec.Body.String())

	cookie := f.login(t)
	require.Equal(t, 1, f.store.SessionCount())

	req = httptest.NewRequest(http.MethodPost, server.RouteLogout, nil)
	req.AddCookie(cookie)
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, f.store.SessionCount())

	rec = f.get("/", cookie)
	require.Contains(t, rec.Body.String(), "Please log in")
}

func TestMalformedCookieIsAnonymous(t *testing.T) {
	f := setupTestFixture(t, nil, nil)
	for _, value := range []string{",abc", "abc-def", "unknown"} {
		rec := f.get("/", &http.Cookie{Name: auth.SessionCookieName, Value: value})
		require.Equal(t, http.StatusOK, rec.Code, value)
		require.Contains(t, rec.Body.String(), "Please log in", value)
	}
}

func TestPages(t *testing.T) {
	f := setupTestFixture(t, nil, nil)

	rec := f.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "<html><title>marathon.example.com</title><body><p>Please log in</p></body></html>", rec.Body.String())
	require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = f.get("/about")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "About /about")

	rec = f.get("/css/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/css; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "p { color: red; }", rec.Body.String())

	rec = f.get("/rules.pdf")
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = f.get("/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBundledSite(t *testing.T) {
	f := setupTestFixture(t, nil, static.NewDirStore("../site"))

	rec := f.get("/login")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, testWebRoot+"/api/request_login")
	require.Contains(t, body, "'"+testWebRoot+"/l/' + encodeURIComponent(loginTag)")
	require.NotContains(t, body, "#{")

	cookie := f.login(t)
	rec = f.get("/", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Hello Ada &lt;Runner&gt;.")
	require.Contains(t, rec.Body.String(), testUserEmail)

	rec = f.get("/css/site.css")
	require.Equal(t, "text/css; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestPageRenderErrors(t *testing.T) {
	f := setupTestFixture(t, nil, nil)

	require.Equal(t, http.StatusInternalServerError, f.get("/broken").Code)
	require.Equal(t, http.StatusInternalServerError, f.get("/unbalanced").Code)
	require.Equal(t, http.StatusOK, f.get("/about").Code, "a failed render only affects its own request")
}

func TestRecoverMiddleware(t *testing.T) {
	f := setupTestFixture(t, nil, panickingFiles{})
	rec := f.get("/")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	f := setupTestFixture(t, nil, nil)
	rec := f.get(server.RouteHealth)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":"yes"}`, rec.Body.String())
}

func TestHealthStoreDown(t *testing.T) {
	cfg := config.FromValues(map[string]string{"ENV": "DEV"})
	store := inmemory.New()
	authService, err := auth.NewService(auth.Repos{Users: store, Sessions: store}, &recordingMailer{}, tokens.NewCodeGenerator(true), auth.Settings{})
	require.NoError(t, err)
	s, err := server.New(cfg, server.Deps{Auth: authService, Users: store, Files: static.NewFSStore(testSite), Health: fakePinger{err: errors.New("down")}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.RouteHealth, nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSessionStoreFailureIsAnonymous(t *testing.T) {
	cfg := config.FromValues(map[string]string{"ENV": "DEV", "WEB_ROOT": testWebRoot})
	store := inmemory.New()
	require.NoError(t, store.Upsert(context.Background(), &users.User{Email: testUserEmail}))
	authService, err := auth.NewService(auth.Repos{Users: store, Sessions: failingSessions{store}}, &recordingMailer{}, tokens.NewCodeGenerator(true), auth.Settings{})
	require.NoError(t, err)
	s, err := server.New(cfg, server.Deps{Auth: authService, Users: store, Files: static.NewFSStore(testSite)})
	require.NoError(t, err)

	cookie := &http.Cookie{Name: auth.SessionCookieName, Value: "abcdefghijklmnopqrstvwxy"}

	req := httptest.NewRequest(http.MethodPost, server.RouteLogout, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":"yeah"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/l/bcdfghjklmnp/000000", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, testWebRoot+"/", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Please log in")
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, server.RouteRequestLogin, nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	require.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodPost, server.RouteLogout, nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestInitialiseSystem(t *testing.T) {
	f := setupTestFixture(t, map[string]string{"ADMIN_USERS": "Admin@Example.com, second@example.com"}, nil)
	require.NoError(t, f.server.InitialiseSystem(context.Background()))

	for _, email := range []string{"admin@example.com", "second@example.com"} {
		_, err := f.store.Find(context.Background(), email)
		require.NoError(t, err, email)
	}

	u, err := f.store.Find(context.Background(), testUserEmail)
	require.NoError(t, err)
	require.Equal(t, "Ada <Runner>", u.Name)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := server.New(config.FromValues(nil), server.Deps{})
	require.Error(t, err)
}
