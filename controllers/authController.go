package controllers

import (
	"context"

	"analytics-gateway/services"
	"analytics-gateway/signature"

	"github.com/gofiber/fiber/v2"
)

// InstallFlow is the OAuth handshake as seen by the HTTP layer.
type InstallFlow interface {
	BeginInstall(ctx context.Context, shop string) (string, error)
	HandleCallback(ctx context.Context, p services.CallbackParams) (*services.InstallResult, error)
}

type AuthController struct {
	flow InstallFlow
}

func NewAuthController(flow InstallFlow) *AuthController {
	return &AuthController{flow: flow}
}

// Install redirects the merchant to the platform consent screen.
func (a *AuthController) Install(c *fiber.Ctx) error {
	url, err := a.flow.BeginInstall(c.UserContext(), c.Query("shop"))
	if err != nil {
		return err
	}
	return c.Redirect(url, fiber.StatusFound)
}

// Callback completes the install. The signature is checked against the
// raw query string exactly as the platform sent it.
func (a *AuthController) Callback(c *fiber.Ctx) error {
	result, err := a.flow.HandleCallback(c.UserContext(), services.CallbackParams{
		Shop:      c.Query("shop"),
		Code:      c.Query("code"),
		Signature: c.Query(signature.Param),
		State:     c.Query("state"),
		RawQuery:  string(c.Request().URI().QueryString()),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Installation successful",
		"shop":    result.Shop,
		"scopes":  result.Scopes,
	})
}
