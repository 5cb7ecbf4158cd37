package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/lendauth/internal/app"
	"github.com/you/lendauth/internal/logging"
	"github.com/you/lendauth/internal/mocks"
	testconfig "github.com/you/lendauth/internal/tests/config"
)

// TestServer runs the full application over SQLite and miniredis with
// recording delivery channels
type TestServer struct {
	Server    *httptest.Server
	Container *app.Container
	Redis     *miniredis.Miniredis
	Email     *mocks.MockEmailSender
	Phone     *mocks.MockPhoneVerifier
}

// NewTestServer creates a started test server for e2e testing
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testconfig.LoadTestConfig(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ts := &TestServer{
		Redis: mr,
		Email: mocks.NewMockEmailSender(),
		Phone: mocks.NewMockPhoneVerifier(),
	}
	ts.Container, err = app.NewContainerWith(cfg, logging.Discard(), db, rdb,
		app.WithEmailSender(ts.Email),
		app.WithPhoneVerifier(ts.Phone),
	)
	if err != nil {
		t.Fatalf("Failed to build container: %v", err)
	}

	ts.Server = httptest.NewServer(ts.Container.Router)
	t.Cleanup(func() {
		ts.Server.Close()
		ts.Container.Close()
	})
	return ts
}

// Browser is an HTTP client with its own cookie jar, standing in for one device
type Browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

// NewBrowser creates a client with an empty cookie jar
func (ts *TestServer) NewBrowser(t *testing.T) *Browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &Browser{
		t:      t,
		base:   ts.Server.URL,
		client: &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
}

// Response is a decoded API response
type Response struct {
	Status  int
	Body    map[string]interface{}
	Cookies []*http.Cookie
}

// Data returns the "data" object of the response
func (r *Response) Data() map[string]interface{} {
	data, _ := r.Body["data"].(map[string]interface{})
	return data
}

// Error returns the "error" message of the response
func (r *Response) Error() string {
	msg, _ := r.Body["error"].(string)
	return msg
}

// Do sends a JSON request and decodes the JSON response
func (b *Browser) Do(method, path string, body interface{}) *Response {
	b.t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			b.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, b.base+path, reader)
	if err != nil {
		b.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "e2e-browser")

	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := &Response{Status: resp.StatusCode, Cookies: resp.Cookies()}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out.Body)
	}
	return out
}

// Cookie returns the cookie the jar would send to the server
func (b *Browser) Cookie(name string) *http.Cookie {
	req, _ := http.NewRequest(http.MethodGet, b.base, nil)
	for _, c := range b.client.Jar.Cookies(req.URL) {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// CopyCookies gives other the same cookies as b, like a replayed request
func (b *Browser) CopyCookies(other *Browser) {
	req, _ := http.NewRequest(http.MethodGet, b.base, nil)
	other.client.Jar.SetCookies(req.URL, b.client.Jar.Cookies(req.URL))
}
