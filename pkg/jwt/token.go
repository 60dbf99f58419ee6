package jwtPkg

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"PPEGuard/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
	LocalsUser        = "user"
)

var ErrMissingClaims = errors.New("token claims are missing required fields")

func Sign(data map[string]interface{}, expiredAfter time.Duration) (string, int64, error) {
	expiredAt := time.Now().Add(expiredAfter).Unix()

	secret := os.Getenv(AccessTokenSecret)
	if secret == "" {
		return "", 0, fmt.Errorf("%s not set", AccessTokenSecret)
	}

	claims := jwt.MapClaims{}
	claims["exp"] = expiredAt
	claims["authorization"] = true

	for k, v := range data {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(secret))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return accessToken, expiredAt, nil
}

// SignUser mints an access token carrying the identity fields the token
// middleware expects.
func SignUser(user entity.UserLoginData, expiredAfter time.Duration) (string, int64, error) {
	return Sign(map[string]interface{}{
		"id":              user.ID,
		"email":           user.Email,
		"role":            string(user.Role),
		"organization_id": user.OrganizationID,
	}, expiredAfter)
}

func VerifyTokenHeader(c *fiber.Ctx, secretEnvKey string) (*jwt.Token, error) {
	log := logrus.WithField("func", "VerifyTokenHeader")

	header := c.Get("Authorization")
	if header == "" {
		return nil, errors.New("empty Authorization header")
	}

	accessToken, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return nil, errors.New("invalid Authorization format")
	}

	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, errors.New("empty token")
	}

	secret := os.Getenv(secretEnvKey)
	if secret == "" {
		log.Error("JWT secret environment variable not set")
		return nil, errors.New("JWT secret not configured")
	}

	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		log.WithError(err).Debug("Failed to parse JWT token")
		return nil, err
	}

	return token, nil
}

// UserFromClaims extracts the caller identity. Company tokens may omit
// organization_id, in which case the company id is the organization.
func UserFromClaims(claims jwt.MapClaims) (entity.UserLoginData, error) {
	id, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	orgID, _ := claims["organization_id"].(string)

	if id == "" || email == "" || !entity.IsValidRole(role) {
		return entity.UserLoginData{}, ErrMissingClaims
	}

	if orgID == "" && entity.Role(role) == entity.RoleCompany {
		orgID = id
	}
	if orgID == "" && entity.Role(role) != entity.RoleAdmin {
		return entity.UserLoginData{}, ErrMissingClaims
	}

	return entity.UserLoginData{
		ID:             id,
		Email:          email,
		Role:           entity.Role(role),
		OrganizationID: orgID,
	}, nil
}

func GetUserLoginData(c *fiber.Ctx) (entity.UserLoginData, error) {
	user, ok := c.Locals(LocalsUser).(entity.UserLoginData)
	if !ok {
		return entity.UserLoginData{}, fiber.ErrUnauthorized
	}

	return user, nil
}
