package echoweb

import (
	"bytes"
	"io"
	"io/ioutil"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/auth"
	backendsvc "github.com/trezcool/gradebook/services/backend"
	logsvc "github.com/trezcool/gradebook/services/logger"
)

const cookieName = "gradebook_sid"

func testConfig() *core.Config {
	return &core.Config{
		Env:      "TEST",
		TestMode: true,
		Session: core.SessionConfig{
			Driver:       core.SessionDriverMemory,
			CookieName:   cookieName,
			CookieMaxAge: time.Hour,
		},
	}
}

func newTestServer(t *testing.T, backendURL string, tokens core.TokenStore) *Server {
	conf := testConfig()
	validate, translator := core.NewValidator()
	srv, err := NewServer(Deps{
		Conf:       conf,
		Logger:     logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf),
		Backend:    backendsvc.New(backendURL, backendsvc.WithTimeout(5*time.Second)),
		Tokens:     tokens,
		Validate:   validate,
		Translator: translator,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func signedToken(t *testing.T, claims auth.Claims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

// browser replays the session cookie the server hands out, like a browser would.
type browser struct {
	t      *testing.T
	srv    http.Handler
	cookie *http.Cookie
}

func newBrowser(t *testing.T, srv http.Handler) *browser {
	return &browser{t: t, srv: srv}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.srv.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			b.cookie = c
		}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postMultipart(path string, fields map[string]string, fileName, content string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(b.t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(b.t, err)
		_, err = io.Copy(fw, strings.NewReader(content))
		require.NoError(b.t, err)
	}
	require.NoError(b.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.do(req)
}

func (b *browser) login(username, password string) *httptest.ResponseRecorder {
	return b.postForm("/login", url.Values{"username": {username}, "password": {password}})
}
