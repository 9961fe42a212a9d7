package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/naydelinzavala7/back-login-mongo/internal/account"
	"github.com/naydelinzavala7/back-login-mongo/internal/auth"
	"github.com/naydelinzavala7/back-login-mongo/internal/config"
	httpx "github.com/naydelinzavala7/back-login-mongo/internal/http"
	"github.com/naydelinzavala7/back-login-mongo/internal/observability"
	"github.com/naydelinzavala7/back-login-mongo/internal/repo/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	return newTestServerWith(t, config.Config{
		Env:           "test",
		RateLimitAuth: 100,
		RateLimitUser: 100,
		MaxBodyBytes:  1 << 20,
	})
}

func newTestServerWith(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()

	tokens := auth.NewManager("router-test-secret", time.Hour, auth.NewMemoryRevocations(), time.Hour)

	router := httpx.NewRouter(httpx.Deps{
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:       cfg,
		Accounts:     account.NewService(memory.NewUsersRepo(), tokens),
		Tokens:       tokens,
		Prom:         observability.NewProm(observability.NewRegistry()),
		ShuttingDown: func() bool { return false },
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type apiResponse struct {
	status int
	header http.Header
	body   map[string]any
}

func call(t *testing.T, srv *httptest.Server, method, path, body string, header map[string]string) apiResponse {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}

	req, err := http.NewRequest(method, srv.URL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)

	out := apiResponse{status: res.StatusCode, header: res.Header}
	if len(raw) > 0 && strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &out.body); err != nil {
			t.Fatalf("decode %s %s: %v body=%s", method, path, err, raw)
		}
	}
	return out
}

func TestRouter_Index(t *testing.T) {
	srv := newTestServer(t)

	res := call(t, srv, http.MethodGet, "/", "", nil)

	if res.status != http.StatusOK || res.body["estado"] != true || res.body["mensaje"] != "funciona bien" {
		t.Fatalf("unexpected index response: %d %v", res.status, res.body)
	}
	if res.header.Get("X-Request-Id") == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestRouter_AccountLifecycle(t *testing.T) {
	srv := newTestServer(t)

	reg := call(t, srv, http.MethodPost, "/api/user/register",
		`{"name":"A","paternalSurname":"B","maternalSurname":"C","email":"a@x.com","password":"secret1"}`, nil)
	if reg.status != http.StatusOK {
		t.Fatalf("register: got %d %v", reg.status, reg.body)
	}
	created := reg.body["data"].(map[string]any)
	if created["email"] != "a@x.com" || created["passwordHash"] == "secret1" {
		t.Fatalf("register: unexpected user %v", created)
	}
	id := created["id"].(string)

	dup := call(t, srv, http.MethodPost, "/api/user/register",
		`{"name":"Z","paternalSurname":"B","maternalSurname":"C","email":"a@x.com","password":"secret1"}`, nil)
	if dup.status != http.StatusConflict {
		t.Fatalf("duplicate register: got %d", dup.status)
	}

	wrong := call(t, srv, http.MethodPost, "/api/user/login", `{"email":"a@x.com","password":"secret2"}`, nil)
	if wrong.status != http.StatusUnauthorized || wrong.header.Get("auth-token") != "" {
		t.Fatalf("wrong password: got %d", wrong.status)
	}

	login := call(t, srv, http.MethodPost, "/api/user/login", `{"email":"a@x.com","password":"secret1"}`, nil)
	if login.status != http.StatusOK {
		t.Fatalf("login: got %d %v", login.status, login.body)
	}
	token := login.header.Get("auth-token")
	if token == "" || login.body["data"].(map[string]any)["token"] != token {
		t.Fatalf("login: header and body token disagree")
	}

	me := call(t, srv, http.MethodGet, "/api/user/me", "", map[string]string{"auth-token": token})
	if me.status != http.StatusOK || me.body["data"].(map[string]any)["id"] != id {
		t.Fatalf("me: got %d %v", me.status, me.body)
	}

	upd := call(t, srv, http.MethodPost, "/api/user/updateuser",
		`{"id":"`+id+`","name":"N","paternalSurname":"P","maternalSurname":"M","password":"secret9"}`, nil)
	if upd.status != http.StatusOK || upd.body["data"].(map[string]any)["email"] != "a@x.com" {
		t.Fatalf("update: got %d %v", upd.status, upd.body)
	}

	relogin := call(t, srv, http.MethodPost, "/api/user/login", `{"email":"a@x.com","password":"secret9"}`, nil)
	if relogin.status != http.StatusOK {
		t.Fatalf("login with new password: got %d", relogin.status)
	}

	logout := call(t, srv, http.MethodPost, "/api/user/logout", "", map[string]string{"Authorization": "Bearer " + token})
	if logout.status != http.StatusOK {
		t.Fatalf("logout: got %d %v", logout.status, logout.body)
	}

	after := call(t, srv, http.MethodGet, "/api/user/me", "", map[string]string{"auth-token": token})
	if after.status != http.StatusUnauthorized {
		t.Fatalf("revoked token: got %d", after.status)
	}

	list := call(t, srv, http.MethodGet, "/api/user/getallusers", "", nil)
	if users := list.body["data"].([]any); list.status != http.StatusOK || len(users) != 1 {
		t.Fatalf("list: got %d %v", list.status, list.body)
	}

	del := call(t, srv, http.MethodPost, "/api/user/deleteuser", `{"id":"`+id+`"}`, nil)
	if del.status != http.StatusOK || del.body["data"] != "deleted" {
		t.Fatalf("delete: got %d %v", del.status, del.body)
	}

	again := call(t, srv, http.MethodPost, "/api/user/deleteuser", `{"id":"`+id+`"}`, nil)
	if again.status != http.StatusNotFound {
		t.Fatalf("second delete: got %d", again.status)
	}

	empty := call(t, srv, http.MethodGet, "/api/user/getallusers", "", nil)
	if users, ok := empty.body["data"].([]any); !ok || len(users) != 0 {
		t.Fatalf("empty list: got %v", empty.body)
	}
}

func TestRouter_MeRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	res := call(t, srv, http.MethodGet, "/api/user/me", "", nil)
	if res.status != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", res.status)
	}
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t)

	call(t, srv, http.MethodPost, "/api/user/login", `{"email":"nobody@x.com","password":"secret1"}`, nil)

	res, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	body := string(raw)

	if res.StatusCode != http.StatusOK {
		t.Fatalf("metrics: got %d", res.StatusCode)
	}
	if !strings.Contains(body, `accounts_auth_results_total{op="login",result="not_found"} 1`) {
		t.Fatalf("missing login outcome in metrics output")
	}
	if !strings.Contains(body, "accounts_http_requests_total") {
		t.Fatalf("missing request counter in metrics output")
	}
}

func TestRouter_LongPasswords(t *testing.T) {
	srv := newTestServer(t)

	for i, length := range []int{73, 100, 1024} {
		t.Run(fmt.Sprintf("len_%d", length), func(t *testing.T) {
			email := fmt.Sprintf("long%d@x.com", i)
			password := strings.Repeat("p", length)

			reg := call(t, srv, http.MethodPost, "/api/user/register",
				`{"name":"A","paternalSurname":"B","maternalSurname":"C","email":"`+email+`","password":"`+password+`"}`, nil)
			if reg.status != http.StatusOK {
				t.Fatalf("register: got %d %v", reg.status, reg.body)
			}
			id := reg.body["data"].(map[string]any)["id"].(string)

			login := call(t, srv, http.MethodPost, "/api/user/login",
				`{"email":"`+email+`","password":"`+password+`"}`, nil)
			if login.status != http.StatusOK {
				t.Fatalf("login: got %d %v", login.status, login.body)
			}

			upd := call(t, srv, http.MethodPost, "/api/user/updateuser",
				`{"id":"`+id+`","name":"N","paternalSurname":"P","maternalSurname":"M","password":"`+strings.Repeat("q", length)+`"}`, nil)
			if upd.status != http.StatusOK {
				t.Fatalf("update: got %d %v", upd.status, upd.body)
			}
		})
	}
}

func TestRouter_PerUserRateLimit(t *testing.T) {
	srv := newTestServerWith(t, config.Config{
		Env:           "test",
		RateLimitAuth: 100,
		RateLimitUser: 2,
		MaxBodyBytes:  1 << 20,
	})

	tokenFor := func(email string) string {
		call(t, srv, http.MethodPost, "/api/user/register",
			`{"name":"A","paternalSurname":"B","maternalSurname":"C","email":"`+email+`","password":"secret1"}`, nil)
		login := call(t, srv, http.MethodPost, "/api/user/login", `{"email":"`+email+`","password":"secret1"}`, nil)
		if login.status != http.StatusOK {
			t.Fatalf("login %s: got %d", email, login.status)
		}
		return login.header.Get("auth-token")
	}

	first := tokenFor("one@x.com")
	second := tokenFor("two@x.com")

	for i := 0; i < 2; i++ {
		if res := call(t, srv, http.MethodGet, "/api/user/me", "", map[string]string{"auth-token": first}); res.status != http.StatusOK {
			t.Fatalf("me #%d: got %d", i+1, res.status)
		}
	}

	limited := call(t, srv, http.MethodGet, "/api/user/me", "", map[string]string{"auth-token": first})
	if limited.status != http.StatusTooManyRequests {
		t.Fatalf("third me: got %d, want 429", limited.status)
	}

	// the limit is per user, not per client address
	if res := call(t, srv, http.MethodGet, "/api/user/me", "", map[string]string{"auth-token": second}); res.status != http.StatusOK {
		t.Fatalf("other user: got %d", res.status)
	}
}
