package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appauth "github.com/xiebiao/library/internal/application/auth"
	appauthor "github.com/xiebiao/library/internal/application/author"
	appbook "github.com/xiebiao/library/internal/application/book"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/author"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql/mysqltest"
	"github.com/xiebiao/library/internal/infrastructure/storage"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/mq"
)

const adminEmail = "admin@example.com"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// fakeVerifier ID Token即邮箱，"bad"视为无效
type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, idToken string) (*user.Identity, error) {
	if idToken == "bad" {
		return nil, apperrors.ErrIdentityError
	}
	return &user.Identity{Email: idToken, FirstName: "Given", LastName: "Family"}, nil
}

// memSessions 内存版会话与黑名单
type memSessions struct {
	blacklist map[string]bool
}

func (m *memSessions) SaveSession(context.Context, string, map[string]interface{}, time.Duration) error {
	return nil
}

func (m *memSessions) DeleteSession(context.Context, string) error { return nil }

func (m *memSessions) AddToBlacklist(_ context.Context, token string, _ time.Duration) error {
	m.blacklist[token] = true
	return nil
}

func (m *memSessions) IsInBlacklist(_ context.Context, token string) (bool, error) {
	return m.blacklist[token], nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: gin.TestMode, CORSOrigins: []string{"*"}},
		Google:  config.GoogleConfig{AdminEmails: []string{adminEmail}},
		Upload:  config.UploadConfig{Dir: t.TempDir(), MaxSize: 1 << 20},
		Tracing: config.TracingConfig{ServiceName: "library-test"},
	}

	db := mysqltest.NewDB(t)
	userRepo := mysql.NewUserRepository(db)
	bookRepo := mysql.NewBookRepository(db)
	authorSvc := author.NewService(mysql.NewAuthorRepository(db), bookRepo)
	bookSvc := book.NewService(bookRepo, authorSvc)
	userSvc := user.NewService(userRepo)

	covers, err := storage.NewLocalStorage(cfg)
	require.NoError(t, err)
	jwtManager := jwt.NewManager("test-secret", jwt.SessionTTL)
	sessions := &memSessions{blacklist: map[string]bool{}}

	handlers := Handlers{
		Auth: handler.NewAuthHandler(
			appauth.NewLoginUseCase(fakeVerifier{}, userSvc, jwtManager, sessions, cfg),
			appauth.NewLogoutUseCase(jwtManager, sessions),
		),
		Author: handler.NewAuthorHandler(appauthor.NewAuthorUseCase(authorSvc)),
		Book: handler.NewBookHandler(
			appbook.NewCreateBookUseCase(bookSvc, authorSvc, covers),
			appbook.NewBookQueryUseCase(bookSvc, authorSvc),
			appbook.NewUpdateBookUseCase(bookSvc, authorSvc),
			appbook.NewUpdateBookImageUseCase(bookSvc, authorSvc, covers),
			appbook.NewDeleteBookUseCase(bookSvc, authorSvc, covers),
			appbook.NewLoanUseCase(bookSvc, authorSvc, mq.NoopPublisher{}),
		),
		User: handler.NewUserHandler(
			appuser.NewUserUseCase(userSvc),
			appuser.NewDeleteUserUseCase(userRepo, bookRepo, mysql.NewTxManager(db)),
		),
	}

	engine, err := New(cfg, zap.NewNop(), handlers, middleware.NewAuthenticator(jwtManager, sessions, userSvc))
	require.NoError(t, err)
	return &testServer{engine: engine}
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) json(t *testing.T, method, path, token string, payload interface{}) (int, envelope) {
	t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, path, token, body, "application/json")
}

func (s *testServer) login(t *testing.T, email string) (string, *appuser.UserResponse) {
	t.Helper()
	status, env := s.json(t, http.MethodPost, "/api/v1/login", "", gin.H{"idToken": email})
	require.Equal(t, http.StatusOK, status, env.Message)

	var resp struct {
		Token string                `json:"token"`
		User  *appuser.UserResponse `json:"user"`
	}
	decode(t, env, &resp)
	return resp.Token, resp.User
}

func (s *testServer) createBook(t *testing.T, token string, fields map[string]string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("image", "tess.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return s.do(t, http.MethodPost, "/api/v1/books", token, &buf, mw.FormDataContentType())
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func tessFields() map[string]string {
	return map[string]string{
		"title":         "Tess of the d'Urbervilles",
		"description":   "A pure woman faithfully presented",
		"authors":       `["Thomas Hardy"]`,
		"ISBN13":        "978-0-14-143951-8",
		"publisher":     "Penguin Classics",
		"publishedDate": "1891-01-01",
		"genres":        `["Classic","Literary Fiction"]`,
	}
}

func TestPingAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodGet, "/ping", "", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, env := s.do(t, http.MethodGet, "/api/v1/nope", "", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.ErrCodeEndpointNotFound, env.Code)
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t)
	adminToken, admin := s.login(t, adminEmail)
	userToken, member := s.login(t, "reader@example.com")
	assert.Equal(t, user.RoleAdmin, admin.Role)
	assert.Equal(t, user.RoleUser, member.Role)

	author := gin.H{"fullName": "Thomas Hardy"}

	t.Run("无Token", func(t *testing.T) {
		status, _ := s.json(t, http.MethodPost, "/api/v1/authors", "", author)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("角色不在允许列表", func(t *testing.T) {
		status, _ := s.json(t, http.MethodPost, "/api/v1/authors", userToken, author)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("篡改的Token", func(t *testing.T) {
		status, _ := s.json(t, http.MethodPost, "/api/v1/authors", adminToken+"x", author)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("管理员", func(t *testing.T) {
		status, env := s.json(t, http.MethodPost, "/api/v1/authors", adminToken, author)
		assert.Equal(t, http.StatusCreated, status, env.Message)
	})

	t.Run("无效的Google Token", func(t *testing.T) {
		status, _ := s.json(t, http.MethodPost, "/api/v1/login", "", gin.H{"idToken": "bad"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Bearer头登录", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/api/v1/login", "reader@example.com", http.NoBody, "")
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("角色以数据库为准", func(t *testing.T) {
		role := "ADMIN"
		status, _ := s.json(t, http.MethodPut, "/api/v1/users/"+member.ID, adminToken, gin.H{"role": role})
		require.Equal(t, http.StatusOK, status)

		// 旧Token中的快照仍是USER，但回查到的是ADMIN
		status, _ = s.json(t, http.MethodGet, "/api/v1/users", userToken, nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("登出后Token失效", func(t *testing.T) {
		status, _ := s.json(t, http.MethodPost, "/api/v1/logout", userToken, nil)
		require.Equal(t, http.StatusOK, status)

		status, env := s.json(t, http.MethodGet, "/api/v1/users/"+member.ID, userToken, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, apperrors.ErrCodeTokenRevoked, env.Code)
	})
}

func TestBookCatalog(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login(t, adminEmail)

	status, env := s.json(t, http.MethodPost, "/api/v1/authors", adminToken, gin.H{"fullName": "Thomas Hardy"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var hardy appauthor.AuthorResponse
	decode(t, env, &hardy)

	status, env = s.createBook(t, adminToken, tessFields())
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created appbook.BookResponse
	decode(t, env, &created)
	assert.True(t, created.Status)
	assert.Equal(t, "9780141439518", created.ISBN13)
	assert.True(t, strings.HasPrefix(created.Image, "/uploads/books/"))

	t.Run("作者按名字解析到已有作者", func(t *testing.T) {
		status, env := s.do(t, http.MethodGet, "/api/v1/books/"+created.ID, "", nil, "")
		require.Equal(t, http.StatusOK, status)
		var got appbook.BookResponse
		decode(t, env, &got)
		require.Len(t, got.Authors, 1)
		assert.Equal(t, "Thomas Hardy", got.Authors[0].FullName)
		assert.Equal(t, hardy.ID, got.Authors[0].ID)
	})

	t.Run("封面可通过静态路径访问", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, created.Image, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, pngBytes, w.Body.Bytes())
	})

	t.Run("搜索", func(t *testing.T) {
		search := func(field, keyword string) []appbook.BookResponse {
			q := url.Values{"field": {field}, "keyword": {keyword}}
			status, env := s.do(t, http.MethodGet, "/api/v1/books/search?"+q.Encode(), "", nil, "")
			require.Equal(t, http.StatusOK, status, env.Message)
			var books []appbook.BookResponse
			decode(t, env, &books)
			return books
		}

		assert.Len(t, search("title", "urbervill"), 1)
		assert.Len(t, search("isbn", "9780141439518"), 1)
		assert.Len(t, search("author", "hardy"), 1)
		assert.NotEmpty(t, search("all", "Tess of the d'Urbervilles"))
	})

	t.Run("搜索参数不合法", func(t *testing.T) {
		status, _ := s.do(t, http.MethodGet, "/api/v1/books/search?field=title", "", nil, "")
		assert.Equal(t, http.StatusBadRequest, status)
		status, _ = s.do(t, http.MethodGet, "/api/v1/books/search?field=genre&keyword=x", "", nil, "")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("ISBN重复", func(t *testing.T) {
		status, env := s.createBook(t, adminToken, tessFields())
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, apperrors.ErrCodeDuplicateEntry, env.Code)
	})

	t.Run("参数校验", func(t *testing.T) {
		bad := tessFields()
		bad["ISBN13"] = "978-0-14-143951-9"
		status, _ := s.createBook(t, adminToken, bad)
		assert.Equal(t, http.StatusBadRequest, status)

		bad = tessFields()
		bad["genres"] = `["Cooking"]`
		status, _ = s.createBook(t, adminToken, bad)
		assert.Equal(t, http.StatusBadRequest, status)

		bad = tessFields()
		bad["authors"] = "Thomas Hardy"
		status, _ = s.createBook(t, adminToken, bad)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("更新基本信息", func(t *testing.T) {
		status, env := s.json(t, http.MethodPut, "/api/v1/books/"+created.ID+"/basicInfo", adminToken, gin.H{
			"publisher": "Macmillan",
			"authors":   []string{"Thomas Hardy", "Anonymous Editor"},
		})
		require.Equal(t, http.StatusOK, status, env.Message)
		var got appbook.BookResponse
		decode(t, env, &got)
		assert.Equal(t, "Macmillan", got.Publisher)
		require.Len(t, got.Authors, 2)
		assert.Equal(t, "Anonymous Editor", got.Authors[1].FullName)
	})

	t.Run("无效ID", func(t *testing.T) {
		status, env := s.do(t, http.MethodGet, "/api/v1/books/not-a-uuid", "", nil, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, apperrors.ErrCodeInvalidID, env.Code)
	})

	t.Run("作者仍有图书时不能删除", func(t *testing.T) {
		status, _ := s.json(t, http.MethodDelete, "/api/v1/authors/"+hardy.ID, adminToken, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestLoanScenario(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login(t, adminEmail)
	aliceToken, alice := s.login(t, "alice@example.com")
	bobToken, _ := s.login(t, "bob@example.com")

	status, env := s.createBook(t, adminToken, tessFields())
	require.Equal(t, http.StatusCreated, status, env.Message)
	var b appbook.BookResponse
	decode(t, env, &b)
	bookPath := "/api/v1/books/" + b.ID
	dates := gin.H{"borrowDate": "2026-10-01", "returnDate": "2026-10-15"}

	borrowedBooks := func() []string {
		status, env := s.json(t, http.MethodGet, "/api/v1/users/"+alice.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, status, env.Message)
		var u appuser.UserResponse
		decode(t, env, &u)
		return u.BorrowedBooks
	}

	status, env = s.json(t, http.MethodPut, bookPath+"/borrowInfo", aliceToken, dates)
	require.Equal(t, http.StatusOK, status, env.Message)
	decode(t, env, &b)
	assert.False(t, b.Status)
	require.NotNil(t, b.BorrowerID)
	assert.Equal(t, alice.ID, *b.BorrowerID)
	assert.Equal(t, []string{b.ID}, borrowedBooks())

	t.Run("已借出不能再借", func(t *testing.T) {
		status, env := s.json(t, http.MethodPut, bookPath+"/borrowInfo", bobToken, dates)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, apperrors.ErrCodeBookUnavailable, env.Code)
	})

	t.Run("非借阅人不能归还", func(t *testing.T) {
		status, env := s.json(t, http.MethodPut, bookPath+"/returnInfo", bobToken, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, apperrors.ErrCodeNotBorrower, env.Code)
	})

	t.Run("借出中不能删除", func(t *testing.T) {
		status, _ := s.json(t, http.MethodDelete, bookPath, adminToken, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	status, env = s.json(t, http.MethodPut, bookPath+"/returnInfo", aliceToken, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var returned appbook.BookResponse
	decode(t, env, &returned)
	assert.True(t, returned.Status)
	assert.Nil(t, returned.BorrowerID)
	assert.Nil(t, returned.BorrowDate)
	assert.Nil(t, returned.ReturnDate)

	var raw map[string]json.RawMessage
	decode(t, env, &raw)
	assert.NotContains(t, raw, "borrowerID")
	assert.NotContains(t, raw, "borrowDate")
	assert.NotContains(t, raw, "returnDate")
	assert.Empty(t, borrowedBooks())

	t.Run("缺少借阅日期", func(t *testing.T) {
		status, _ := s.json(t, http.MethodPut, bookPath+"/borrowInfo", aliceToken, gin.H{"borrowDate": "2026-10-01"})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("归还后可删除", func(t *testing.T) {
		status, _ := s.json(t, http.MethodDelete, bookPath, adminToken, nil)
		require.Equal(t, http.StatusOK, status)
		status, _ = s.do(t, http.MethodGet, bookPath, "", nil, "")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestUsers(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login(t, adminEmail)
	userToken, self := s.login(t, "reader@example.com")

	status, env := s.json(t, http.MethodPost, "/api/v1/users", "", gin.H{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var ada appuser.UserResponse
	decode(t, env, &ada)
	assert.Equal(t, user.RoleUser, ada.Role)
	assert.Empty(t, ada.BorrowedBooks)

	t.Run("参数校验", func(t *testing.T) {
		status, _ := s.json(t, http.MethodPost, "/api/v1/users", "", gin.H{"firstName": "A", "lastName": "B", "email": "nope"})
		assert.Equal(t, http.StatusBadRequest, status)
		status, _ = s.json(t, http.MethodPost, "/api/v1/users", "", gin.H{"firstName": "A", "lastName": "B", "email": "a@b.com", "role": "ROOT"})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("邮箱重复", func(t *testing.T) {
		status, _ := s.json(t, http.MethodPost, "/api/v1/users", "", gin.H{"firstName": "A", "lastName": "B", "email": "ADA@example.com"})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("普通用户只能访问自己", func(t *testing.T) {
		status, _ := s.json(t, http.MethodGet, "/api/v1/users/"+self.ID, userToken, nil)
		assert.Equal(t, http.StatusOK, status)
		status, env := s.json(t, http.MethodGet, "/api/v1/users/"+ada.ID, userToken, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, apperrors.ErrCodeNotSelf, env.Code)

		status, env = s.json(t, http.MethodPut, "/api/v1/users/"+ada.ID, userToken, gin.H{"firstName": "Mallory"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, apperrors.ErrCodeNotSelf, env.Code)
		status, _ = s.json(t, http.MethodGet, "/api/v1/users", userToken, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("普通用户不能改自己的角色", func(t *testing.T) {
		status, env := s.json(t, http.MethodPut, "/api/v1/users/"+self.ID, userToken, gin.H{"role": "ADMIN"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, apperrors.ErrCodeRoleChange, env.Code)

		status, env = s.json(t, http.MethodPut, "/api/v1/users/"+self.ID, userToken, gin.H{"firstName": "Reader"})
		require.Equal(t, http.StatusOK, status)
		var got appuser.UserResponse
		decode(t, env, &got)
		assert.Equal(t, "Reader", got.FirstName)
	})

	t.Run("管理员删除用户", func(t *testing.T) {
		status, _ := s.json(t, http.MethodDelete, "/api/v1/users/"+ada.ID, adminToken, nil)
		assert.Equal(t, http.StatusNoContent, status)
		status, _ = s.json(t, http.MethodDelete, "/api/v1/users/"+ada.ID, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("用户被删除后Token失效", func(t *testing.T) {
		status, _ := s.json(t, http.MethodDelete, "/api/v1/users/"+self.ID, adminToken, nil)
		require.Equal(t, http.StatusNoContent, status)
		status, _ = s.json(t, http.MethodGet, "/api/v1/users/"+self.ID, userToken, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}
