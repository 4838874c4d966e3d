// Package session carries the authenticated user through request contexts.
package session

import (
	"context"
	"net/http"

	"github.com/ansel1/merry"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	userLoginKey contextKey = "userLogin"
)

var ErrUnauthorized = merry.New("unauthorized").WithHTTPCode(http.StatusUnauthorized).WithUserMessage("Unauthorized")

// UserID returns the id of the authenticated user of the request.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id != 0
}

func UserLogin(ctx context.Context) string {
	login, _ := ctx.Value(userLoginKey).(string)
	return login
}

func WithUser(ctx context.Context, id int64, login string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, id)
	return context.WithValue(ctx, userLoginKey, login)
}

// Require returns the user id or ErrUnauthorized.
func Require(ctx context.Context) (int64, error) {
	id, ok := UserID(ctx)
	if !ok {
		return 0, ErrUnauthorized.Here()
	}
	return id, nil
}
