package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/utils"
)

// VaultTokenHeader carries the token returned by a successful PIN unlock.
const VaultTokenHeader = "X-Vault-Token"

// VaultGuard requires an unexpired vault token issued to the caller. Must
// run after JWTMiddleware.
func VaultGuard(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get("user_id").(string)
			tok := c.Request().Header.Get(VaultTokenHeader)
			if tok == "" {
				return apperr.JSON(c, apperr.Permission(apperr.ReasonVaultLocked, "unlock your payment methods with your PIN"))
			}
			owner, err := utils.ParseVaultToken(secret, tok)
			if err != nil || owner != userID {
				return apperr.JSON(c, apperr.Permission(apperr.ReasonVaultLocked, "vault session expired, enter your PIN again"))
			}
			return next(c)
		}
	}
}
