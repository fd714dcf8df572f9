package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bazaar/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

type RegisterUserPayload struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type CreateUserTokenPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type RefreshTokenPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// registerUserHandler godoc
//
//	@Summary		Register a user
//	@Description	Creates a user account with a bcrypt-hashed password.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RegisterUserPayload	true	"User credentials"
//	@Success		201		{object}	store.User
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error	"Email already registered"
//	@Failure		500		{object}	error
//	@Router			/authentication/user [post]
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &store.User{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
	}

	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createTokenHandler godoc
//
//	@Summary		Login
//	@Description	Verifies credentials and issues an access/refresh token pair. Any cart lines and favorites collected anonymously under the session cookie are merged into the account's persistent cart and favorites.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateUserTokenPayload	true	"User credentials"
//	@Success		200		{object}	TokenResponse
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		500		{object}	error
//	@Router			/authentication/token [post]
func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, errors.New("invalid credentials"))
		return
	}

	// Fold whatever the visitor collected before logging in into the
	// account's persistent cart and favorites. A merge failure leaves the
	// session data in place for the next attempt and never blocks login.
	if sid := getSessionIDFromContext(r); sid != "" {
		if synced, err := app.carts.SyncOnLogin(r.Context(), sid, user.ID); err != nil {
			app.logger.Errorw("cart sync on login failed", "user_id", user.ID, "error", err)
		} else if synced > 0 {
			app.logger.Infow("cart synced on login", "user_id", user.ID, "lines", synced)
		}

		if synced, err := app.favorites.SyncOnLogin(r.Context(), sid, user.ID); err != nil {
			app.logger.Errorw("favorites sync on login failed", "user_id", user.ID, "error", err)
		} else if synced > 0 {
			app.logger.Infow("favorites synced on login", "user_id", user.ID, "products", synced)
		}
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, user.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SaveRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// refreshTokenHandler godoc
//
//	@Summary		Refresh tokens
//	@Description	Validates the refresh token against the stored copy and issues a new token pair.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RefreshTokenPayload	true	"Refresh token"
//	@Success		200		{object}	TokenResponse
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		500		{object}	error
//	@Router			/authentication/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	jwtToken, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	claims, ok := jwtToken.Claims.(jwt.MapClaims)
	if !ok {
		app.unauthorizedErrorResponse(w, r, errors.New("invalid token claims"))
		return
	}

	userID, err := strconv.ParseInt(fmt.Sprintf("%.f", claims["sub"]), 10, 64)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	stored, err := app.store.Users.GetRefreshToken(r.Context(), userID)
	if err != nil || stored != payload.RefreshToken {
		app.unauthorizedErrorResponse(w, r, errors.New("refresh token revoked"))
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, user.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SaveRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// logoutHandler godoc
//
//	@Summary		Logout
//	@Description	Revokes the stored refresh token for the authenticated user.
//	@Tags			Authentication
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		401	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.store.Users.DeleteRefreshToken(r.Context(), user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
