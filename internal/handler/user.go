package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"recipeshare/internal/config"
	"recipeshare/internal/middleware"
	"recipeshare/internal/model"
	"recipeshare/internal/queue"
	"recipeshare/internal/repository"
	queue_publisher "recipeshare/internal/service"
	"recipeshare/internal/utils"
)

// UserHandler bundles dependencies for the user endpoints.
type UserHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Tokens    *repository.TokenRepo
	Bookmarks *repository.BookmarkRepo
	Recipes   *repository.RecipeRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, b *repository.BookmarkRepo, r *repository.RecipeRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Tokens: t, Bookmarks: b, Recipes: r}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type registerResp struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}
type loginResp struct {
	User      model.PublicUser `json:"user"`
	AuthToken string           `json:"authToken"`
}

// loginFailedMsg is deliberately identical for unknown email and wrong
// password so login failures carry no account-enumeration signal.
const loginFailedMsg = "Please check login information"

// issueToken mints a session token for the user and stores its hash as a
// new live session.
func (h *UserHandler) issueToken(ctx context.Context, userID uint64) (string, error) {
	raw, err := utils.NewSessionToken(h.Cfg.JWTSecret, userID)
	if err != nil {
		return "", err
	}
	if err := h.Tokens.Store(ctx, userID, utils.HashToken(raw)); err != nil {
		return "", err
	}
	return raw, nil
}

// Register creates a user with role 'user' and returns it together with a
// first session token.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if err := utils.ValidateName(req.Name); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Email, hash)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	token, err := h.issueToken(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	go func() {
		_ = queue_publisher.PublishActivity(context.Background(), queue.ActivityEvent{
			Type:       queue.EventUserRegistered,
			UserID:     uid,
			UserName:   req.Name,
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		})
	}()

	u := model.User{ID: uid, Name: req.Name, Email: req.Email, Role: model.RoleUser}
	return c.JSON(http.StatusCreated, registerResp{User: u.Public(), Token: token})
}

// Login verifies credentials and issues a new session token.  Unknown
// email and bad password produce the same response.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = utils.NormalizeEmail(req.Email)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": loginFailedMsg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": loginFailedMsg})
	}

	token, err := h.issueToken(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	if u.Bookmarks, err = h.Bookmarks.ListIDs(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, loginResp{User: u.Public(), AuthToken: token})
}

// Logout revokes exactly the session token used on this request.
func (h *UserHandler) Logout(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, u.ID, utils.HashToken(middleware.TokenFrom(c))); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusOK)
}

// LogoutAll revokes every session of the authenticated user.
func (h *UserHandler) LogoutAll(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeAll(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusOK)
}

// Me returns the authenticated user's public projection.
func (h *UserHandler) Me(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var err error
	if u.Bookmarks, err = h.Bookmarks.ListIDs(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

// GetByID returns one user's public projection.  A non-numeric id is a
// request-level failure, not a 404.
func (h *UserHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.NoContent(http.StatusNotFound)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.Bookmarks, err = h.Bookmarks.ListIDs(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

// List returns the public projection of every user.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.GetAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]model.PublicUser, 0, len(users))
	for i := range users {
		if users[i].Bookmarks, err = h.Bookmarks.ListIDs(ctx, users[i].ID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		out = append(out, users[i].Public())
	}
	return c.JSON(http.StatusOK, out)
}

// userUpdateFields is the whitelist for PATCH /users/me.  Any other key
// rejects the whole patch.
var userUpdateFields = map[string]bool{
	"name":            true,
	"email":           true,
	"password":        true,
	"bookmarks":       true,
	"currentPassword": true,
}

// UpdateSelf patches the authenticated user's profile.  Changing name,
// email or password requires the current password; bookmarks replace the
// stored set wholesale.  Validation runs in full before anything is
// written, so a rejected patch mutates nothing.
func (h *UserHandler) UpdateSelf(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body map[string]json.RawMessage
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	for k := range body {
		if !userUpdateFields[k] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid updates"})
		}
	}

	var (
		patch     repository.UserPatch
		bookmarks *[]uint64
	)

	credChange := body["name"] != nil || body["email"] != nil || body["password"] != nil
	if credChange {
		var current string
		if body["currentPassword"] != nil {
			if err := json.Unmarshal(body["currentPassword"], &current); err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
			}
		}
		if !utils.VerifyPassword(u.PasswordHash, current) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Incorrect current password"})
		}
	}

	if raw := body["name"]; raw != nil {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		if err := utils.ValidateName(name); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		patch.Name = &name
	}
	if raw := body["email"]; raw != nil {
		var email string
		if err := json.Unmarshal(raw, &email); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		email = utils.NormalizeEmail(email)
		if err := utils.ValidateEmail(email); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		patch.Email = &email
	}
	if raw := body["password"]; raw != nil {
		var password string
		if err := json.Unmarshal(raw, &password); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		if err := utils.ValidatePassword(password); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		hash, err := utils.HashPassword(password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
		}
		patch.PasswordHash = &hash
	}
	if raw := body["bookmarks"]; raw != nil {
		var ids []uint64
		if err := json.Unmarshal(raw, &ids); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		bookmarks = &ids
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Update(ctx, u.ID, patch); err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if bookmarks != nil {
		if err := h.Bookmarks.Replace(ctx, u.ID, *bookmarks); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	fresh, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if fresh.Bookmarks, err = h.Bookmarks.ListIDs(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, fresh.Public())
}

// ListBookmarks pages through the caller's bookmarked recipes.  The same
// role-visibility rule as recipe listing applies, constrained to the
// bookmark set, with optional text search via ?q.
func (h *UserHandler) ListBookmarks(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, limit := parsePagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ids, err := h.Bookmarks.ListIDs(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	recipes, total, err := h.Recipes.List(ctx, repository.RecipeListQuery{
		Search:         c.QueryParam("q"),
		HideAdminOwned: u.Role != model.RoleAdmin,
		OnlyIDs:        ids,
		Page:           page,
		Limit:          limit,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, pagedResp(recipes, total, page, limit))
}
