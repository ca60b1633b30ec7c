package dto

import "time"

type RegisterRequest struct {
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Alias     string `json:"alias"`
	SessionID string `json:"session_id"`
	Captcha   string `json:"captcha"`
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	SessionID string `json:"session_id"`
	Captcha   string `json:"captcha"`
}

type UpdateProfileRequest struct {
	Alias     *string `json:"alias"`
	Email     *string `json:"email"`
	SessionID string  `json:"session_id"`
	Captcha   string  `json:"captcha"`
}

type UserResponse struct {
	ID              string     `json:"id"`
	StudentID       string     `json:"student_id"`
	Email           string     `json:"email"`
	Alias           string     `json:"alias"`
	Role            string     `json:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
	User      UserResponse `json:"user"`
}

type CaptchaResponse struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}
