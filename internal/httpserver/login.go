package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"taskhub/internal/auth"
)

type registerRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func registerHandler(svc *auth.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username, email and password are required")
			return
		}

		if _, err := svc.Register(r.Context(), req.Username, req.FullName, req.Email, req.Password); err != nil {
			switch {
			case errors.Is(err, auth.ErrUsernameTaken):
				writeError(w, http.StatusConflict, "username already taken")
			case errors.Is(err, auth.ErrEmailTaken):
				writeError(w, http.StatusConflict, "email already taken")
			default:
				logger.Error("register user", "err", err)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"message": "user registered"})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func loginHandler(svc *auth.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		_, token, err := svc.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			// One message for unknown users and wrong passwords.
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid username or password")
				return
			}
			logger.Error("login", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
