package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"Sismik/internal/applog"
	"Sismik/internal/repo"
	"Sismik/internal/respond"
	"Sismik/internal/session"
)

var log = applog.New("auth")

const CookieName = "session_token"

var ErrUnauthorized = session.ErrUnauthorized

type Env struct {
	JWTKey   []byte
	TokenTTL time.Duration
	Users    repo.UserRepository
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type sessionResponse struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
	Token  string `json:"token"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (env *Env) IssueToken(userID int64, login string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"login":   login,
		"exp":     time.Now().Add(env.TokenTTL).Unix(),
	})
	return token.SignedString(env.JWTKey)
}

// ParseToken validates an HS256 token and returns its user.
func (env *Env) ParseToken(tokenString string) (int64, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return env.JWTKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, "", merry.Prepend(ErrUnauthorized.Here(), "parse token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrUnauthorized.Here()
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID == 0 {
		return 0, "", ErrUnauthorized.Here()
	}
	login, ok := claims["login"].(string)
	if !ok || login == "" {
		return 0, "", ErrUnauthorized.Here()
	}
	return int64(userID), login, nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Middleware accepts the session cookie or a bearer token.
func (env *Env) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			respond.Error(w, ErrUnauthorized.Here())
			return
		}
		userID, login, err := env.ParseToken(raw)
		if err != nil {
			log.Debug("rejected token", "err", err)
			respond.Error(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), userID, login)))
	})
}

func (env *Env) startSession(w http.ResponseWriter, status int, userID int64, login string) {
	tokenString, err := env.IssueToken(userID, login)
	if err != nil {
		respond.Error(w, merry.Prepend(err, "sign token"))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tokenString,
		Expires:  time.Now().Add(env.TokenTTL),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	respond.JSON(w, status, sessionResponse{UserID: userID, Login: login, Token: tokenString})
}

func (env *Env) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, respond.BadRequest(err, "Invalid request payload"))
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	req.Email = strings.TrimSpace(req.Email)
	if req.Login == "" || req.Email == "" || req.Password == "" {
		respond.Error(w, respond.BadRequest(merry.New("missing fields"), "Login, email and password required"))
		return
	}
	if len(req.Password) < 6 {
		respond.Error(w, respond.BadRequest(merry.New("short password"), "Password must be at least 6 characters"))
		return
	}
	hashed, err := HashPassword(req.Password)
	if err != nil {
		respond.Error(w, merry.Prepend(err, "hash password"))
		return
	}
	id, err := env.Users.CreateUser(r.Context(), req.Login, req.Email, hashed)
	if err != nil {
		respond.Error(w, err)
		return
	}
	log.Info("user registered", "login", req.Login)
	env.startSession(w, http.StatusCreated, id, req.Login)
}

func (env *Env) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, respond.BadRequest(err, "Invalid request payload"))
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		respond.Error(w, respond.BadRequest(merry.New("missing fields"), "Login and password required"))
		return
	}
	invalid := merry.New("invalid credentials").WithHTTPCode(http.StatusUnauthorized).WithUserMessage("Invalid login or password")
	user, err := env.Users.UserByLogin(r.Context(), req.Login)
	if merry.Is(err, repo.ErrNotFound) {
		respond.Error(w, invalid)
		return
	}
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respond.Error(w, invalid)
		return
	}
	env.startSession(w, http.StatusOK, user.ID, user.Login)
}

func (env *Env) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
