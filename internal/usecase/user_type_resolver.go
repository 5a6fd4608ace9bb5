package usecase

import (
	"strings"

	"qa-orchestrator/internal/domain"
	"qa-orchestrator/internal/privacy"
)

// UserTypeResolver derives the caller category from an opaque encrypted
// token. Resolution is total: every failure mode collapses to
// UserTypeUnknown and nothing is ever raised to the caller.
type UserTypeResolver struct {
	engine *privacy.Engine
}

// NewUserTypeResolver creates a resolver bound to the deployment key.
func NewUserTypeResolver(engine *privacy.Engine) UserTypeResolver {
	return UserTypeResolver{engine: engine}
}

// Resolve decrypts and parses the token. An empty token, an undecryptable
// token (Decrypt fails open and returns the input, which then fails to
// parse) or an unknown category all yield UserTypeUnknown.
func (r UserTypeResolver) Resolve(token string) domain.UserType {
	if token == "" {
		return domain.UserTypeUnknown
	}
	plaintext := r.engine.Decrypt(token)
	return domain.ParseUserType(strings.TrimSpace(plaintext))
}
