package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/paiecash/wallet-api/internal/identity"
)

// Handler exposes the login redirect, the provider callback and the profile endpoint.
type Handler struct {
	svc *Service
	ids *identity.Service
}

func NewHandler(svc *Service, ids *identity.Service) *Handler {
	return &Handler{svc: svc, ids: ids}
}

// Login redirects the browser to the identity provider's authorization page.
func (h *Handler) Login(c *fiber.Ctx) error {
	url, state := h.svc.LoginURL()
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    state,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.Redirect(url, http.StatusFound)
}

// Callback completes the authorization-code flow and returns an API session.
func (h *Handler) Callback(c *fiber.Ctx) error {
	if errParam := c.Query("error"); errParam != "" {
		return fiber.NewError(http.StatusUnauthorized, errParam)
	}
	state := c.Query("state")
	if cookie := c.Cookies("oauth_state"); cookie != "" && cookie != state {
		return fiber.NewError(http.StatusUnauthorized, "state mismatch")
	}
	session, err := h.svc.Complete(c.UserContext(), c.Query("code"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCode):
			return fiber.NewError(http.StatusUnauthorized, "invalid authorization code")
		case errors.Is(err, ErrProviderUnavailable):
			return fiber.NewError(http.StatusBadGateway, "identity provider unavailable")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	c.ClearCookie("oauth_state")
	return c.Status(http.StatusOK).JSON(session)
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}
	user, err := h.ids.Get(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(user)
}
