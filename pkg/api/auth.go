package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fuel-client/pkg/auth"
)

type tokenRequest struct {
	Auth struct {
		TenantName          string `json:"tenantName"`
		PasswordCredentials struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"passwordCredentials"`
	} `json:"auth"`
}

type tokenResponse struct {
	Access struct {
		Token struct {
			ID      string `json:"id"`
			Expires string `json:"expires"`
			Tenant  struct {
				Name string `json:"name"`
			} `json:"tenant"`
		} `json:"token"`
		User struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	} `json:"access"`
}

// handleTokens issues a token in the shape of a keystone v2 token response.
func (c *Controller) handleTokens(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	creds := req.Auth.PasswordCredentials
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	user, ok, err := c.store.GetUser(creds.Username)
	if err != nil {
		c.internalError(w, "failed to load user", err)
		return
	}
	if !ok || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	tenant := req.Auth.TenantName
	if tenant == "" {
		tenant = user.Tenant
	}
	token, expires, err := auth.Generate(user.ID, user.Username, tenant, c.opts.TokenTTL)
	if err != nil {
		c.internalError(w, "failed to issue token", err)
		return
	}
	var resp tokenResponse
	resp.Access.Token.ID = token
	resp.Access.Token.Expires = expires.UTC().Format(time.RFC3339)
	resp.Access.Token.Tenant.Name = tenant
	resp.Access.User.ID = user.ID
	resp.Access.User.Username = user.Username
	log.Printf("issued token for %s (tenant=%s)", user.Username, tenant)
	writeJSON(w, http.StatusOK, resp)
}

// requireToken wraps next with X-Auth-Token validation when auth is enabled.
// A Bearer Authorization header is accepted as well.
func (c *Controller) requireToken(next http.HandlerFunc) http.HandlerFunc {
	if !c.opts.RequireAuth {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if _, err := auth.Parse(token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r)
	}
}
