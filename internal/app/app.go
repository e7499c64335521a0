package app

import (
	"github.com/sebastos1/auth/internal/csrf"
	"github.com/sebastos1/auth/internal/jwt"
	"github.com/sebastos1/auth/internal/security/password"
	"github.com/sebastos1/auth/internal/store/core"
)

type Container struct {
	Store     core.Repository
	Issuer    *jwt.Issuer
	Passwords password.Hasher
	CSRF      csrf.Store
}
