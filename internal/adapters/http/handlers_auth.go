package web

import (
	"net/http"

	"formations/internal/adapters/http/middleware"
	"formations/internal/application/orchestrators"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=12"`
	DisplayName string `json:"display_name" validate:"required,max=120"`
	Role        string `json:"role" validate:"omitempty,oneof=trainer organization user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=12"`
}

// sessionResponse describes the caller. CSRFToken is sent back as X-CSRF-Token on form posts.
type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	AccountID     string `json:"account_id,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	Role          string `json:"role,omitempty"`
	CSRFToken     string `json:"csrf_token"`
}

// startSession stores a session for actor and sets the cookie.
func startSession(w http.ResponseWriter, actor orchestrators.Actor) error {
	token, err := sessions.Create(actor.AccountID, actor.DisplayName, actor.Role)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, token)
	return nil
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := startSession(w, actor); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		AccountID:     actor.AccountID,
		DisplayName:   actor.DisplayName,
		Role:          actor.Role,
		CSRFToken:     middleware.CSRFToken(r),
	})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleRegister creates a trainer, organization or plain user account and signs it in.
func handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	acct, err := orchestrators.ExecuteRegister(r.Context(), orchestrators.CreateAccountInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	}, orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore, GenerateID: generateID, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}
	actor := orchestrators.Actor{AccountID: acct.ID, DisplayName: acct.DisplayName, Role: acct.Role}
	if err := startSession(w, actor); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		Authenticated: true,
		AccountID:     acct.ID,
		DisplayName:   acct.DisplayName,
		Role:          acct.Role,
		CSRFToken:     middleware.CSRFToken(r),
	})
}

func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		Actor:           actor,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSession reports who is signed in and hands out the CSRF token.
func handleSession(w http.ResponseWriter, r *http.Request) {
	token := middleware.CSRFToken(r)
	w.Header().Set("X-CSRF-Token", token)
	resp := sessionResponse{CSRFToken: token}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		resp.Authenticated = true
		resp.AccountID = sess.AccountID
		resp.DisplayName = sess.DisplayName
		resp.Role = sess.Role
	}
	writeJSON(w, http.StatusOK, resp)
}
