package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/filex"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
)

func decodeJSON(req *http.Request, v any) error {
	err := json.NewDecoder(req.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return common.Validation("Invalid JSON body")
	}
	return nil
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if err := r.parseMultipart(w, req); err != nil {
		r.logger.Warn(req.Context(), "register form rejected", "error", err)
		writeError(w, common.Validation("Invalid multipart form"))
		return
	}
	defer cleanupMultipart(req)

	avatar, err := r.stageFile(req, "avatar")
	if err != nil {
		writeError(w, r.uploadError(req, err))
		return
	}
	cover, err := r.stageFile(req, "coverImage")
	if err != nil {
		filex.RemoveQuietly(avatar)
		writeError(w, r.uploadError(req, err))
		return
	}

	acc, err := r.sessions.Register(req.Context(), services.RegisterInput{
		Username:       req.FormValue("username"),
		Email:          req.FormValue("email"),
		FullName:       req.FormValue("fullName"),
		Password:       req.FormValue("password"),
		AvatarPath:     avatar,
		CoverImagePath: cover,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, acc, "User registered Successfully")
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(req, &payload); err != nil {
		writeError(w, err)
		return
	}

	res, err := r.sessions.Login(req.Context(), services.LoginInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	r.setTokenCookies(w, res.Tokens.AccessToken, res.Tokens.RefreshToken)
	writeData(w, http.StatusOK, map[string]any{
		"user":         res.Account,
		"accessToken":  res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
	}, "User logged in Successfully")
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	var token string
	if c, err := req.Cookie(common.RefreshTokenCookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		var payload struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeJSON(req, &payload); err != nil {
			writeError(w, err)
			return
		}
		token = payload.RefreshToken
	}

	pair, err := r.sessions.Refresh(req.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	r.setTokenCookies(w, pair.AccessToken, pair.RefreshToken)
	writeData(w, http.StatusOK, pair, "Access token refreshed")
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	user, ok := currentUser(w, req)
	if !ok {
		return
	}
	if err := r.sessions.Logout(req.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}
	r.clearTokenCookies(w)
	writeData(w, http.StatusOK, map[string]any{}, "User logged out")
}

func (r *Router) handleChangePassword(w http.ResponseWriter, req *http.Request) {
	user, ok := currentUser(w, req)
	if !ok {
		return
	}
	var payload struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(req, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := r.sessions.ChangePassword(req.Context(), user.ID, payload.OldPassword, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{}, "Password changed successfully")
}

func (r *Router) handleCurrentUser(w http.ResponseWriter, req *http.Request) {
	user, ok := currentUser(w, req)
	if !ok {
		return
	}
	acc, err := r.profiles.CurrentUser(req.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, acc, "User fetched successfully")
}

func (r *Router) handleUpdateAccount(w http.ResponseWriter, req *http.Request) {
	user, ok := currentUser(w, req)
	if !ok {
		return
	}
	var payload struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := decodeJSON(req, &payload); err != nil {
		writeError(w, err)
		return
	}
	acc, err := r.profiles.UpdateAccount(req.Context(), user.ID, payload.FullName, payload.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, acc, "Account details updated successfully")
}

func (r *Router) handleUpdateAvatar(w http.ResponseWriter, req *http.Request) {
	r.handleImage(w, req, "avatar", r.profiles.UpdateAvatar, "Avatar image updated successfully")
}

func (r *Router) handleUpdateCoverImage(w http.ResponseWriter, req *http.Request) {
	r.handleImage(w, req, "coverImage", r.profiles.UpdateCoverImage, "Cover image updated successfully")
}

func (r *Router) handleImage(w http.ResponseWriter, req *http.Request, field string,
	update func(ctx context.Context, userID, localPath string) (*models.Account, error), message string) {
	user, ok := currentUser(w, req)
	if !ok {
		return
	}
	if err := r.parseMultipart(w, req); err != nil {
		r.logger.Warn(req.Context(), "image form rejected", "field", field, "error", err)
		writeError(w, common.Validation("Invalid multipart form"))
		return
	}
	defer cleanupMultipart(req)

	path, err := r.stageFile(req, field)
	if err != nil {
		writeError(w, r.uploadError(req, err))
		return
	}

	acc, err := update(req.Context(), user.ID, path)
	if err != nil {
		filex.RemoveQuietly(path)
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, acc, message)
}

func (r *Router) uploadError(req *http.Request, err error) error {
	r.logger.Error(req.Context(), "staging upload failed", "error", err)
	return common.Internal("Something went wrong while saving the upload")
}

func (r *Router) handleChannelProfile(w http.ResponseWriter, req *http.Request) {
	user, ok := currentUser(w, req)
	if !ok {
		return
	}
	profile, err := r.channels.ChannelProfile(req.Context(), req.PathValue("username"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, profile, "User channel fetched successfully")
}

func (r *Router) handleWatchHistory(w http.ResponseWriter, req *http.Request) {
	user, ok := currentUser(w, req)
	if !ok {
		return
	}
	items, err := r.channels.WatchHistory(req.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, items, "Watch history fetched successfully")
}
