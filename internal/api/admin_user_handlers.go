package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/auth"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/credential"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/models"
)

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	RespondWithJSON(w, http.StatusOK, users)
}

func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
		ParentID *int64 `json:"parent_id"`
		RDToken  string `json:"rd_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.Username == "" || payload.Password == "" || (payload.Role != "admin" && payload.Role != "user") {
		RespondWithError(w, http.StatusBadRequest, "Username, password, and a valid role are required")
		return
	}

	passwordHash, err := auth.HashPassword(payload.Password)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user, err := s.store.CreateUser(payload.Username, passwordHash, payload.Role, payload.ParentID, payload.RDToken)
	if err != nil {
		// Could be a unique constraint violation or a bad parent reference
		RespondWithError(w, http.StatusConflict, "Username already exists or parent account is invalid")
		return
	}
	RespondWithJSON(w, http.StatusCreated, user)
}

func (s *Server) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	var payload struct {
		Username string `json:"username"`
		Role     string `json:"role"`
		ParentID *int64 `json:"parent_id"`
		RDToken  string `json:"rd_token"`
		Password string `json:"password,omitempty"` // Password is optional
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.ParentID != nil && *payload.ParentID == userID {
		RespondWithError(w, http.StatusBadRequest, "An account cannot be its own parent")
		return
	}

	// Update basic info
	if err := s.store.UpdateUser(userID, payload.Username, payload.Role, payload.ParentID, payload.RDToken); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	// Update password if provided
	if payload.Password != "" {
		passwordHash, err := auth.HashPassword(payload.Password)
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		if err := s.store.UpdateUserPassword(userID, passwordHash); err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to update password")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)

	// You might want to prevent an admin from deleting themselves
	currentUser := getUserFromContext(r)
	if currentUser.ID == userID {
		RespondWithError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := s.store.DeleteUser(userID); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminSetUserEnabled(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	var payload struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := s.store.SetUserEnabled(userID, payload.Enabled); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleAdminAccountStatus lists every account together with the
// validity of the credential playback would run under, so the admin
// panel can show who is about to lose access.
func (s *Server) handleAdminAccountStatus(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	validity, err := s.store.ListCredentialValidity()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve credential validity")
		return
	}

	byID := make(map[int64]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	now := time.Now()
	statuses := make([]*models.AccountStatus, 0, len(users))
	for _, u := range users {
		status := &models.AccountStatus{User: *u, HasOwnToken: u.RDToken != ""}

		token := u.RDToken
		if token == "" && u.ParentID != nil {
			if parent, ok := byID[*u.ParentID]; ok {
				token = parent.RDToken
			}
		}
		if token != "" {
			if v, ok := validity[credential.Fingerprint(token)]; ok && v.ExpiresAt != nil {
				status.CredentialExpiresAt = v.ExpiresAt
				days := int(v.ExpiresAt.Sub(now).Hours() / 24)
				status.DaysLeft = &days
			}
		}
		statuses = append(statuses, status)
	}
	RespondWithJSON(w, http.StatusOK, statuses)
}
