package middleware

import (
	"PPEGuard/internal/entity"
	jwtPkg "PPEGuard/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequireRole lets the request through only when the authenticated caller
// holds one of roles. It must run after NewTokenMiddleware.
func (m *middleware) RequireRole(roles ...entity.Role) fiber.Handler {
	allowed := make(map[entity.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(ctx *fiber.Ctx) error {
		user, err := jwtPkg.GetUserLoginData(ctx)
		if err != nil {
			return unauthorized(ctx)
		}

		if _, ok := allowed[user.Role]; !ok {
			m.log.WithFields(logrus.Fields{
				"request_id": m.GetRequestID(ctx),
				"user_id":    user.ID,
				"role":       user.Role,
				"path":       ctx.Path(),
			}).Warn("Role not permitted")
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden, insufficient role",
				"code":  "FORBIDDEN",
			})
		}

		return ctx.Next()
	}
}
