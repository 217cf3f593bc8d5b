package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/lws-dev/hiring/backend/internal/utils"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookie = "__lws_session"
	emailCookie   = "email"
)

var errCodeThrottled = errors.New("a code was sent moments ago")

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required,max=100"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.repository.UpsertUser(req.Email, req.Name)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	_, err = h.issueCode(user)
	if err != nil && !errors.Is(err, errCodeThrottled) {
		h.internalServerError(w, r, err)
		return
	}

	// the pending code is verified against this address
	h.setCookie(w, emailCookie, user.Email, time.Now().Add(time.Duration(h.config.Auth.SessionExpiration)*time.Second))

	if err != nil {
		h.errorResponse(w, r, "a code was sent moments ago, please check your inbox")
		return
	}

	h.successResponse(w, r, "a sign-in code has been sent to your email", nil)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"omitempty,email"`
		Code  string `json:"code" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if cookie, err := r.Cookie(emailCookie); err == nil && cookie.Value != "" {
		req.Email = cookie.Value
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Code = strings.TrimSpace(req.Code)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Email == "" {
		h.errorResponse(w, r, "please sign up first")
		return
	}
	if !utils.IsOTP(req.Code) {
		h.errorResponse(w, r, "the code must be 6 digits")
		return
	}

	user, err := h.repository.GetUserByEmail(req.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "please sign up first")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	token, err := h.repository.GetLatestPendingToken(user.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			h.internalServerError(w, r, err)
			return
		}

		if _, err := h.issueCode(user); err != nil && !errors.Is(err, errCodeThrottled) {
			h.internalServerError(w, r, err)
			return
		}
		h.errorResponse(w, r, "the code has expired, a new one has been sent to your email")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(token.CodeHash), []byte(req.Code)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.internalServerError(w, r, err)
			return
		}

		if err := h.repository.RejectAuthToken(token.Token); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		h.errorResponse(w, r, "invalid code")
		return
	}

	expiration := time.Now().Add(time.Duration(h.config.Auth.SessionExpiration) * time.Second)
	if err := h.repository.VerifyAuthToken(token.Token, expiration); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "invalid code")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	ss, err := h.signSession(token.Token, user.ID, expiration)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.cacheSession(token.Token, user.ID, expiration)
	h.setCookie(w, sessionCookie, ss, expiration)

	h.successResponse(w, r, "signed in", user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtx).(*domain.User)

	tokens, err := h.repository.ExpireSessions(user.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if len(tokens) > 0 {
		keys := make([]string, len(tokens))
		for i, token := range tokens {
			keys[i] = sessionKey(token)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
		defer cancel()

		if err := h.redisClient.Del(ctx, keys...).Err(); err != nil {
			slog.Warn("could not drop cached sessions", "userID", user.ID, "error", err)
		}
	}

	h.setCookie(w, sessionCookie, "", time.Now().Add(-time.Hour))

	h.successResponse(w, r, "signed out", nil)
}

// issueCode stores a new pending code for the user and queues the mail carrying it.
// Without redis the resend interval is not enforced.
func (h *Handler) issueCode(user *domain.User) (*domain.AuthToken, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	interval := time.Duration(h.config.Auth.ResendInterval) * time.Second
	ok, err := h.redisClient.SetNX(ctx, fmt.Sprintf("code_throttle_%s", user.Email), 1, interval).Result()
	switch {
	case err != nil:
		slog.Warn("code throttle unavailable, issuing without it", "email", user.Email, "error", err)
	case !ok:
		return nil, errCodeThrottled
	}

	otp, err := utils.GenerateRandomOTP()
	if err != nil {
		return nil, err
	}

	codeHash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	token := &domain.AuthToken{
		Token:    uuid.NewString(),
		UserID:   user.ID,
		CodeHash: string(codeHash),
		Expiry:   time.Now().Add(time.Duration(h.config.Auth.CodeExpiration) * time.Second),
		Status:   domain.AuthTokenPending,
	}
	if err := h.repository.CreateAuthToken(token); err != nil {
		return nil, err
	}

	mailMessage := &domain.MailMessage{
		Type: domain.MailTypeAuthCode,
		To:   user.Email,
		Data: domain.AuthCodeMailData{
			Name:       user.Name,
			Code:       otp,
			Expiration: h.config.Auth.CodeExpiration / 60, // the mail shows minutes
		},
	}

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.publisher.Publish(ctx, domain.EmailQueue, mailMessage); err != nil {
		return nil, err
	}

	return token, nil
}

func (h *Handler) signSession(tokenID string, userID string, expiration time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(expiration),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
	})
	return token.SignedString([]byte(h.config.JWT.Secret))
}

func sessionKey(token string) string {
	return fmt.Sprintf("session_%s", token)
}

// sessionUser resolves a session token to its user, preferring the redis copy.
// A redis outage degrades to a database lookup.
func (h *Handler) sessionUser(token string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID, err := h.redisClient.Get(ctx, sessionKey(token)).Result()
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, redis.Nil) {
		slog.Warn("session cache unavailable", "error", err)
	}

	session, err := h.repository.GetSession(token)
	if err != nil {
		return "", err
	}

	h.cacheSession(token, session.UserID, session.Expiry)

	return session.UserID, nil
}

func (h *Handler) cacheSession(token string, userID string, expiry time.Time) {
	ttl := min(time.Duration(h.config.Auth.SessionCacheTTL)*time.Second, time.Until(expiry))
	if ttl <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	if err := h.redisClient.Set(ctx, sessionKey(token), userID, ttl).Err(); err != nil {
		slog.Warn("could not cache session", "error", err)
	}
}

func (h *Handler) setCookie(w http.ResponseWriter, name string, value string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)
}
