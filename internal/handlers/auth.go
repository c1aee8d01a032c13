package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"trainboard-backend/internal/common"
	"trainboard-backend/internal/config"
	"trainboard-backend/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

type AuthHandler struct {
	common.ServerState
	SocialAuth common.SocialAuthProvider
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, jwt common.JWTIssuer, redis *redis.Client, socialAuth common.SocialAuthProvider) *AuthHandler {
	return &AuthHandler{
		ServerState: common.ServerState{
			DB:        db,
			Config:    cfg,
			JwtIssuer: jwt,
			Redis:     redis,
		},
		SocialAuth: socialAuth,
	}
}

type RealGothicProvider struct{}

func (r *RealGothicProvider) CompleteUserAuth(res http.ResponseWriter, req *http.Request) (goth.User, error) {
	return gothic.CompleteUserAuth(res, req)
}

func (h *AuthHandler) SocialLogin(c echo.Context) error {
	provider := c.Param("provider")

	req := c.Request()
	// Set the provider in the query parameters for gothic to work
	q := req.URL.Query()
	q.Set("provider", provider)
	req.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Response(), req)
	return nil
}

// SocialLoginCallback resolves the authenticated email against the two
// identity namespaces. An email that is neither a registered participant nor
// an admin is bounced at sign-in; it never receives a token.
func (h *AuthHandler) SocialLoginCallback(c echo.Context) error {
	user, err := h.SocialAuth.CompleteUserAuth(c.Response(), c.Request())
	if err != nil {
		return err
	}

	if user.Email == "" {
		c.Logger().Error("User email is empty from provider")
		return echo.NewHTTPError(http.StatusBadRequest, "Email is required but not provided by the authentication provider")
	}

	admin, err := models.GetAdminByEmail(h.DB, user.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve identity")
	}
	isAdmin := admin != nil

	participant, err := models.GetParticipantByEmail(h.DB, user.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve identity")
	}

	if participant == nil && !isAdmin {
		c.Logger().Infof("Sign-in rejected for unregistered email %s", user.Email)
		return c.Redirect(http.StatusFound, h.Config.Auth.NotRegisteredURL)
	}

	// Keep the admin's display data fresh from the provider profile.
	if isAdmin {
		updated := false
		if admin.Name == "" && user.Name != "" {
			admin.Name = user.Name
			updated = true
		}
		if admin.Avatar == "" {
			avatar := user.AvatarURL
			if avatar == "" && user.RawData != nil {
				if raw, err := json.Marshal(user.RawData); err == nil {
					if picture := gjson.Get(string(raw), "picture"); picture.Exists() {
						avatar = picture.String()
					}
				}
			}
			if avatar != "" {
				admin.Avatar = avatar
				updated = true
			}
		}
		if updated {
			if err := h.DB.Save(admin).Error; err != nil {
				c.Logger().Warnf("Failed to refresh admin profile: %v", err)
			}
		}
	}

	token, err := h.JwtIssuer.GenerateToken(user.Email, isAdmin)
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.Redirect(http.StatusFound, fmt.Sprintf("%s?token=%s", h.Config.Auth.LoginRedirectURL, token))
}

// Me returns the caller's resolved identity: the participant record when the
// email belongs to one, plus the admin flag and display data.
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := h.JwtIssuer.GetIdentity(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	resp := map[string]interface{}{
		"email":       identity.Email,
		"isAdmin":     identity.IsAdmin,
		"participant": nil,
	}

	participant, err := models.GetParticipantByEmail(h.DB, identity.Email)
	if err == nil {
		resp["participant"] = participant
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load participant")
	}

	if identity.IsAdmin {
		if admin, err := models.GetAdminByEmail(h.DB, identity.Email); err == nil {
			resp["adminName"] = admin.Name
			resp["avatar"] = admin.Avatar
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// MyTrainings lists the caller's assignments with the training loaded and the
// feedback reduced to an id stub, so the UI can tell "pending" from "done"
// without shipping answers around.
func (h *AuthHandler) MyTrainings(c echo.Context) error {
	identity, err := h.JwtIssuer.GetIdentity(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	participant, err := models.GetParticipantByEmail(h.DB, identity.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusOK, map[string]interface{}{"trainings": []interface{}{}})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load participant")
	}

	assignments, err := models.ListAssignmentsForParticipant(h.DB, participant.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load trainings")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"trainings": assignments})
}
