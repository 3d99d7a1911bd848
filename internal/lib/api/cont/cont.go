package cont

import (
	"context"

	"CaseLink/entity"
)

type ctxKey string

const (
	userKey ctxKey = "user"
	envKey  ctxKey = "env"
)

func PutUser(ctx context.Context, user *entity.UserAuth) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the authenticated caller, or nil when the request was not authenticated.
func GetUser(ctx context.Context) *entity.UserAuth {
	user, ok := ctx.Value(userKey).(*entity.UserAuth)
	if !ok {
		return nil
	}
	return user
}

func PutEnv(ctx context.Context, env string) context.Context {
	return context.WithValue(ctx, envKey, env)
}

func GetEnv(ctx context.Context) string {
	env, _ := ctx.Value(envKey).(string)
	return env
}
