package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/feedbackfortress/backend/internal/auth"
	"github.com/feedbackfortress/backend/internal/captcha"
	"github.com/feedbackfortress/backend/internal/config"
	"github.com/feedbackfortress/backend/internal/crypto"
	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/feedbackfortress/backend/internal/dto"
	"github.com/feedbackfortress/backend/internal/middleware"
	"github.com/feedbackfortress/backend/internal/repository"
	"github.com/feedbackfortress/backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memBlobStore is an in-process stand-in for object storage.
type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte)}
}

func (s *memBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[key] = cp
	return nil
}

func (s *memBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", key)
	}
	return data, nil
}

func (s *memBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memBlobStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memBlobStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

type testEnv struct {
	app              *fiber.App
	db               *gorm.DB
	codec            *crypto.Codec
	blobs            *memBlobStore
	jwt              *auth.JWTService
	captcha          *captcha.Service
	userRepo         *repository.UserRepository
	grievanceRepo    *repository.GrievanceRepository
	notificationRepo *repository.NotificationRepository
	inboxRepo        *repository.InboxRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Grievance{},
		&domain.Notification{},
		&domain.InboxMessage{},
	))

	codec, err := crypto.NewCodec("test-app-key")
	require.NoError(t, err)

	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: "test-jwt-secret", Expiry: time.Hour},
	}
	jwtService := auth.NewJWTService(cfg)
	captchaService := captcha.NewService(captcha.NewMemoryStore(), time.Minute)
	blobs := newMemBlobStore()

	userRepo := repository.NewUserRepository(db)
	grievanceRepo := repository.NewGrievanceRepository(db, codec)
	notificationRepo := repository.NewNotificationRepository(db)
	inboxRepo := repository.NewInboxRepository(db)

	notificationService := service.NewNotificationService(notificationRepo)
	analyticsService := service.NewAnalyticsService(grievanceRepo, userRepo)

	captchaHandler := NewCaptchaHandler(captchaService)
	authHandler := NewAuthHandler(userRepo, jwtService, captchaService)
	grievanceHandler := NewGrievanceHandler(grievanceRepo, codec, blobs)
	adminHandler := NewAdminHandler(grievanceRepo, analyticsService, notificationService)
	notificationHandler := NewNotificationHandler(notificationRepo)
	inboxHandler := NewInboxHandler(inboxRepo)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	api := app.Group("/api/v1")

	api.Get("/captcha", captchaHandler.Get)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Patch("/me", authMiddleware.Required(), authHandler.UpdateMe)
	api.Get("/dashboard", authMiddleware.Required(), grievanceHandler.Dashboard)

	grievanceRoutes := api.Group("/grievances", authMiddleware.Required())
	grievanceRoutes.Post("/", grievanceHandler.Create)
	grievanceRoutes.Get("/deleted", grievanceHandler.ListDeleted)
	grievanceRoutes.Put("/restore/:id", grievanceHandler.Restore)
	grievanceRoutes.Delete("/force-delete/:id", grievanceHandler.ForceDelete)
	grievanceRoutes.Delete("/:id", grievanceHandler.SoftDelete)

	api.Get("/grievance-attachment/:id", authMiddleware.Required(), grievanceHandler.DownloadAttachment)

	notificationRoutes := api.Group("/notifications", authMiddleware.Required())
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Get("/count", notificationHandler.Count)
	notificationRoutes.Patch("/read-all", notificationHandler.MarkAllAsRead)
	notificationRoutes.Patch("/:id/read", notificationHandler.MarkAsRead)
	notificationRoutes.Delete("/", notificationHandler.ClearAll)
	notificationRoutes.Delete("/:id", notificationHandler.Delete)

	api.Get("/inbox", authMiddleware.Required(), inboxHandler.List)

	adminRoutes := api.Group("/admin", authMiddleware.Required(), authMiddleware.AdminOnly())
	adminRoutes.Get("/grievances", adminHandler.ListGrievances)
	adminRoutes.Put("/grievances/:id", adminHandler.UpdateGrievance)
	adminRoutes.Get("/dashboard/stats", adminHandler.DashboardStats)
	adminRoutes.Get("/analytics", adminHandler.Analytics)
	adminRoutes.Get("/analytics/export", adminHandler.ExportAnalytics)

	return &testEnv{
		app:              app,
		db:               db,
		codec:            codec,
		blobs:            blobs,
		jwt:              jwtService,
		captcha:          captchaService,
		userRepo:         userRepo,
		grievanceRepo:    grievanceRepo,
		notificationRepo: notificationRepo,
		inboxRepo:        inboxRepo,
	}
}

// createUser provisions an account and returns it with a valid token.
func (e *testEnv) createUser(t *testing.T, studentID string, role domain.UserRole) (*domain.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		StudentID:    studentID,
		Email:        studentID + "@example.com",
		PasswordHash: string(hash),
		Alias:        "User " + studentID,
		Role:         role,
	}
	require.NoError(t, e.userRepo.Create(user))

	token, _, err := e.jwt.GenerateToken(user.ID, string(role), studentID)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) request(t *testing.T, method, target, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) jsonRequest(t *testing.T, method, target, token string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return e.request(t, method, target, token, body, fiber.MIMEApplicationJSON)
}

func decodeResponse(t *testing.T, resp *http.Response) dto.Response {
	t.Helper()
	defer resp.Body.Close()
	var out dto.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// errorFields collects the field names from a validation error payload.
func errorFields(t *testing.T, out dto.Response) []string {
	t.Helper()
	require.NotNil(t, out.Error)
	fields := make([]string, 0, len(out.Error.Details))
	for _, d := range out.Error.Details {
		fields = append(fields, d.Field)
	}
	return fields
}

// multipartGrievance builds a grievance submission form.
func multipartGrievance(t *testing.T, subject, grievanceType, details, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("subject", subject))
	require.NoError(t, w.WriteField("type", grievanceType))
	require.NoError(t, w.WriteField("details", details))
	if filename != "" {
		fw, err := w.CreateFormFile("attachment", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
