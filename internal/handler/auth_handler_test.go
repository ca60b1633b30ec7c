package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solveCaptcha issues a challenge out of band and returns the session
// id and code a client would submit.
func solveCaptcha(t *testing.T, env *testEnv) (string, string) {
	t.Helper()
	sessionID := "test-session"
	code, err := env.captcha.Generate(context.Background(), sessionID)
	require.NoError(t, err)
	return sessionID, code
}

func TestCaptchaEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/v1/captcha", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeResponse(t, resp)
	data := out.Data.(map[string]interface{})
	assert.NotEmpty(t, data["session_id"])
	assert.Len(t, data["code"], 6)
}

func TestRegisterSuccess(t *testing.T) {
	env := newTestEnv(t)
	sessionID, code := solveCaptcha(t, env)

	resp := env.jsonRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"student_id": "S1234567",
		"email":      "new@example.com",
		"password":   "supersecret",
		"alias":      "Newcomer",
		"session_id": sessionID,
		"captcha":    code,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decodeResponse(t, resp)
	data := out.Data.(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "Bearer", data["token_type"])

	user := data["user"].(map[string]interface{})
	assert.Equal(t, "S1234567", user["student_id"])
	assert.Equal(t, "student", user["role"])

	// The issued token works against a protected route.
	resp = env.request(t, http.MethodGet, "/api/v1/dashboard", data["token"].(string), nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.jsonRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"student_id": "",
		"email":      "not-an-email",
		"password":   "short",
		"alias":      "",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	out := decodeResponse(t, resp)
	fields := errorFields(t, out)
	assert.Contains(t, fields, "student_id")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "alias")
}

func TestRegisterBadCaptcha(t *testing.T) {
	env := newTestEnv(t)
	sessionID, _ := solveCaptcha(t, env)

	resp := env.jsonRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"student_id": "S1234567",
		"email":      "new@example.com",
		"password":   "supersecret",
		"alias":      "Newcomer",
		"session_id": sessionID,
		"captcha":    "WRONG1",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	out := decodeResponse(t, resp)
	assert.Contains(t, errorFields(t, out), "captcha")
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "S1234567", domain.RoleStudent)
	sessionID, code := solveCaptcha(t, env)

	resp := env.jsonRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"student_id": "S1234567",
		"email":      "different@example.com",
		"password":   "supersecret",
		"alias":      "Copycat",
		"session_id": sessionID,
		"captcha":    code,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "S0000001", domain.RoleStudent)
	sessionID, code := solveCaptcha(t, env)

	resp := env.jsonRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":      user.Email,
		"password":   "password123",
		"session_id": sessionID,
		"captcha":    code,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeResponse(t, resp)
	data := out.Data.(map[string]interface{})
	assert.NotEmpty(t, data["token"])
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "S0000001", domain.RoleStudent)
	sessionID, code := solveCaptcha(t, env)

	resp := env.jsonRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":      user.Email,
		"password":   "wrong-password",
		"session_id": sessionID,
		"captcha":    code,
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	out := decodeResponse(t, resp)
	require.NotNil(t, out.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", out.Error.Code)
}

func TestLoginConsumesCaptcha(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "S0000001", domain.RoleStudent)
	sessionID, code := solveCaptcha(t, env)

	payload := map[string]string{
		"email":      user.Email,
		"password":   "password123",
		"session_id": sessionID,
		"captcha":    code,
	}

	resp := env.jsonRequest(t, http.MethodPost, "/api/v1/auth/login", "", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Replaying the same challenge fails.
	resp = env.jsonRequest(t, http.MethodPost, "/api/v1/auth/login", "", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpdateProfileAlias(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "S0000001", domain.RoleStudent)
	sessionID, code := solveCaptcha(t, env)

	resp := env.jsonRequest(t, http.MethodPatch, "/api/v1/me", token, map[string]string{
		"alias":      "Fresh Alias",
		"session_id": sessionID,
		"captcha":    code,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeResponse(t, resp)
	data := out.Data.(map[string]interface{})
	assert.Equal(t, "Fresh Alias", data["alias"])
}

func TestUpdateProfileEmailResetsVerification(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "S0000001", domain.RoleStudent)

	// Mark the current email verified first.
	require.NoError(t, env.db.Model(&domain.User{}).
		Where("id = ?", user.ID).
		Update("email_verified_at", time.Now()).Error)

	sessionID, code := solveCaptcha(t, env)
	resp := env.jsonRequest(t, http.MethodPatch, "/api/v1/me", token, map[string]string{
		"email":      "changed@example.com",
		"session_id": sessionID,
		"captcha":    code,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated, err := env.userRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed@example.com", updated.Email)
	assert.Nil(t, updated.EmailVerifiedAt)
}

func TestUpdateProfileAdminSkipsCaptcha(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "ADMIN0001", domain.RoleAdmin)

	resp := env.jsonRequest(t, http.MethodPatch, "/api/v1/me", token, map[string]string{
		"alias": "Head Admin",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpdateProfileStudentNeedsCaptcha(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "S0000001", domain.RoleStudent)

	resp := env.jsonRequest(t, http.MethodPatch, "/api/v1/me", token, map[string]string{
		"alias": "No Captcha",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
