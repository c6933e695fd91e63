package handlers

import "net/http"

// AccountHandler exposes the caller's profile.
type AccountHandler struct {
	Accounts AccountService
}

// Me handles GET /api/v1/me and returns the caller's user document.
func (h AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := h.Accounts.GetCurrentUser(ctx)
	if user == nil {
		respondError(ctx, w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(ctx, w, http.StatusOK, user)
}

// Account handles GET /api/v1/account and returns the caller's Appwrite account.
func (h AccountHandler) Account(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account := h.Accounts.GetAccount(ctx)
	if account == nil {
		respondError(ctx, w, http.StatusNotFound, "account not found")
		return
	}
	respondJSON(ctx, w, http.StatusOK, account)
}
