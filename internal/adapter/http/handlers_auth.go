// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"

	"aqiadvisor/internal/domain"
)

const ssoCategoryCookie = "sso_category"

type checkUserRequest struct {
	Username string `json:"username" validate:"required"`
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Category string `json:"category" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleCheckUser(w http.ResponseWriter, r *http.Request) {
	var req checkUserRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgUsernameRequired)
		return
	}

	exists, err := s.auth.UserExists(r.Context(), req.Username)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": exists})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgAllFieldsRequired)
		return
	}

	if _, err := s.auth.Signup(r.Context(), req.Username, req.Password, domain.Category(req.Category)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User created successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgLoginRequired)
		return
	}

	user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"username": user.Username,
		"category": string(user.Category),
	})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		writeError(w, http.StatusNotFound, "sso disabled")
		return
	}
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
	// The category chosen before the redirect is applied when the user is
	// provisioned on first callback.
	if category := r.URL.Query().Get("category"); category != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     ssoCategoryCookie,
			Value:    url.QueryEscape(category),
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   300,
		})
	}
	http.Redirect(w, r, s.sso.OAuth2.AuthCodeURL(state), http.StatusFound)
}

// handleSSOCallback completes the code exchange and hands the verified ID
// token back to the client, which presents it as a bearer token later.
func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		writeError(w, http.StatusNotFound, "sso disabled")
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, "invalid state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	token, err := s.sso.OAuth2.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.logger.Error(r.Context(), "sso code exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to exchange token")
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeError(w, http.StatusBadGateway, "no id_token")
		return
	}

	username, err := s.sso.Identify(r.Context(), rawIDToken)
	if err != nil {
		s.logger.Warn(r.Context(), "sso token rejected", "error", err)
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	var category domain.Category
	if c, err := r.Cookie(ssoCategoryCookie); err == nil {
		if v, err := url.QueryUnescape(c.Value); err == nil {
			category = domain.Category(v)
		}
		http.SetCookie(w, &http.Cookie{Name: ssoCategoryCookie, MaxAge: -1, Path: "/"})
	}

	user, err := s.auth.EnsureSSOUser(r.Context(), username, category)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"username": user.Username,
		"category": string(user.Category),
		"id_token": rawIDToken,
	})
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
