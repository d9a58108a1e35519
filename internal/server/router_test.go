package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizadmin/quiz-admin-server/internal/middleware"
	"github.com/quizadmin/quiz-admin-server/internal/repository"
	"github.com/quizadmin/quiz-admin-server/internal/service"
	"github.com/quizadmin/quiz-admin-server/internal/testutil"
	"github.com/quizadmin/quiz-admin-server/internal/util"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "correct horse battery staple"
	testSecret   = "router-test-secret"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	tokens  *service.TokenService
}

type testOption func(*Deps)

func newTestServer(t *testing.T, opts ...testOption) *testServer {
	t.Helper()

	db := testutil.SetupTestDB(t)
	tokens := service.NewTokenService(testSecret, time.Hour)
	hasher := util.NewPasswordHasher(util.Argon2Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 32, SaltLen: 16})
	adminService := service.NewAdminService(repository.NewAdminRepository(db.DB), hasher, tokens, true)

	_, err := adminService.EnsureBootstrapAdmin(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	deps := Deps{
		DB:           db,
		AdminService: adminService,
		QuizService:  service.NewQuizService(repository.NewQuizRepository(db.DB)),
		TokenService: tokens,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testServer{t: t, handler: NewRouter(deps), tokens: tokens}
}

func (s *testServer) do(method, path string, body any, cookie *http.Cookie) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

func (s *testServer) login() *http.Cookie {
	s.t.Helper()

	rec, env := s.do(http.MethodPost, "/admin/login", map[string]string{
		"email": testEmail, "password": testPassword,
	}, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, "login: %s", env.Message)

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	s.t.Fatal("login did not set the session cookie")
	return nil
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type themeJSON struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type answerJSON struct {
	Title     string `json:"title"`
	IsCorrect bool   `json:"is_correct"`
}

type questionJSON struct {
	ID      int64        `json:"id"`
	Title   string       `json:"title"`
	ThemeID int64        `json:"theme_id"`
	Answers []answerJSON `json:"answers"`
}

func TestLogin(t *testing.T) {
	t.Run("sets session cookie and returns admin", func(t *testing.T) {
		s := newTestServer(t)

		rec, env := s.do(http.MethodPost, "/admin/login", map[string]string{
			"email": testEmail, "password": testPassword,
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", env.Status)

		admin := decodeData[map[string]any](t, env)
		assert.Equal(t, testEmail, admin["email"])
		assert.NotContains(t, admin, "password_hash")

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == middleware.SessionCookieName {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, 3600, cookie.MaxAge)

		adminID, err := s.tokens.Validate(cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, int64(1), adminID)
	})

	t.Run("unknown email is forbidden", func(t *testing.T) {
		s := newTestServer(t)

		rec, env := s.do(http.MethodPost, "/admin/login", map[string]string{
			"email": "other@example.com", "password": testPassword,
		}, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "error", env.Status)
		assert.Equal(t, "Invalid credentials", env.Message)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("wrong password is forbidden", func(t *testing.T) {
		s := newTestServer(t)

		rec, _ := s.do(http.MethodPost, "/admin/login", map[string]string{
			"email": testEmail, "password": "nope",
		}, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("malformed body is bad request", func(t *testing.T) {
		s := newTestServer(t)

		rec, env := s.do(http.MethodPost, "/admin/login", map[string]string{"email": "not-an-email"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		details := decodeData[map[string]string](t, env)
		assert.Equal(t, "email", details["email"])
	})

	t.Run("sixth attempt within a minute is rate limited", func(t *testing.T) {
		s := newTestServer(t)

		for i := 0; i < 5; i++ {
			rec, _ := s.do(http.MethodPost, "/admin/login", map[string]string{
				"email": testEmail, "password": "nope",
			}, nil)
			require.Equal(t, http.StatusForbidden, rec.Code)
		}

		rec, env := s.do(http.MethodPost, "/admin/login", map[string]string{
			"email": testEmail, "password": testPassword,
		}, nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "RATE_LIMIT_EXCEEDED", env.Code)
	})
}

func TestCurrentAdmin(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login()

	t.Run("returns the logged in admin", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, "/admin/current", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		admin := decodeData[map[string]any](t, env)
		assert.Equal(t, testEmail, admin["email"])
		assert.EqualValues(t, 1, admin["id"])
	})

	t.Run("no cookie is unauthorized", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, "/admin/current", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "No cookie provided", env.Message)
	})

	t.Run("tampered token is forbidden", func(t *testing.T) {
		bad := *cookie
		bad.Value = cookie.Value[:len(cookie.Value)-2] + "xx"
		if bad.Value == cookie.Value {
			bad.Value = cookie.Value[:len(cookie.Value)-2] + "yy"
		}

		rec, env := s.do(http.MethodGet, "/admin/current", nil, &bad)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "INVALID_TOKEN", env.Code)
	})

	t.Run("token for deleted admin is forbidden", func(t *testing.T) {
		ghost, err := s.tokens.Issue(999)
		require.NoError(t, err)

		rec, env := s.do(http.MethodGet, "/admin/current", nil, &http.Cookie{Name: middleware.SessionCookieName, Value: ghost})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Admin not found", env.Message)
	})
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodPost, "/admin/logout", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", env.Status)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestQuizFlow(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login()

	rec, env := s.do(http.MethodPost, "/themes", map[string]string{"title": "History"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	theme := decodeData[themeJSON](t, env)
	assert.Equal(t, "History", theme.Title)

	rec, env = s.do(http.MethodPost, "/questions", map[string]any{
		"title":    "Capital of France",
		"theme_id": theme.ID,
		"answers": []map[string]any{
			{"title": "Paris", "is_correct": true},
			{"title": "Berlin", "is_correct": false},
		},
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	question := decodeData[questionJSON](t, env)
	assert.Equal(t, "Capital of France", question.Title)
	assert.Equal(t, theme.ID, question.ThemeID)
	assert.Equal(t, []answerJSON{{"Paris", true}, {"Berlin", false}}, question.Answers)

	t.Run("list themes", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, "/themes", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeData[struct {
			Themes []themeJSON `json:"themes"`
		}](t, env)
		assert.Equal(t, []themeJSON{theme}, data.Themes)
	})

	t.Run("list questions by theme", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, "/questions?theme_id="+itoa(theme.ID), nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeData[struct {
			Questions []questionJSON `json:"questions"`
		}](t, env)
		require.Len(t, data.Questions, 1)
		assert.Equal(t, question, data.Questions[0])
	})

	t.Run("get question by title", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, "/questions/by-title?title=Capital%20of%20France", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, question, decodeData[questionJSON](t, env))
	})

	t.Run("duplicate theme is a conflict", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/themes", map[string]string{"title": "History"}, cookie)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Theme 'History' already exists", env.Message)
	})

	t.Run("duplicate question is a conflict", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/questions", map[string]any{
			"title":    "Capital of France",
			"theme_id": theme.ID,
			"answers": []map[string]any{
				{"title": "Lyon", "is_correct": false},
				{"title": "Paris", "is_correct": true},
			},
		}, cookie)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Question 'Capital of France' already exists", env.Message)
	})

	t.Run("question for unknown theme is not found", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/questions", map[string]any{
			"title":    "Orphan",
			"theme_id": 999,
			"answers": []map[string]any{
				{"title": "A", "is_correct": true},
				{"title": "B", "is_correct": false},
			},
		}, cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Theme with id=999 not found", env.Message)
	})

	t.Run("two correct answers is bad request", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/questions", map[string]any{
			"title":    "Largest planet",
			"theme_id": theme.ID,
			"answers": []map[string]any{
				{"title": "Jupiter", "is_correct": true},
				{"title": "Saturn", "is_correct": true},
			},
		}, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Question must have only one correct answer", env.Message)
	})

	t.Run("answer without title is bad request", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/questions", map[string]any{
			"title":    "Largest planet",
			"theme_id": theme.ID,
			"answers": []map[string]any{
				{"title": "Jupiter", "is_correct": true},
				{"is_correct": false},
			},
		}, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		details := decodeData[map[string]string](t, env)
		assert.Equal(t, "required", details["answers[1].title"])
	})

	t.Run("malformed theme_id is bad request", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, "/questions?theme_id=abc", nil, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid theme_id format", env.Message)
	})

	t.Run("unknown theme filter is not found", func(t *testing.T) {
		rec, _ := s.do(http.MethodGet, "/questions?theme_id=999", nil, cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("quiz routes require a cookie", func(t *testing.T) {
		for _, path := range []string{"/themes", "/questions", "/questions/by-title?title=x"} {
			rec, _ := s.do(http.MethodGet, path, nil, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		}
	})
}

func TestConcurrentThemeCreation(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login()

	const workers = 2
	codes := make([]int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]string{"title": "Science"})
			req := httptest.NewRequest(http.MethodPost, "/themes", bytes.NewReader(body))
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, codes)

	rec, env := s.do(http.MethodGet, "/themes", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData[struct {
		Themes []themeJSON `json:"themes"`
	}](t, env)
	assert.Len(t, data.Themes, 1)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is down") }

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		s := newTestServer(t)
		rec, env := s.do(http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", env.Status)
	})

	t.Run("database down", func(t *testing.T) {
		s := newTestServer(t, func(d *Deps) { d.DB = failingPinger{} })
		rec, env := s.do(http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "error", env.Status)
	})
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
