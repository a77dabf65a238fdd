package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driving"
)

// flowCookiePrefix names the per-provider cookie holding the flow nonce.
const flowCookiePrefix = "sercha_oauth_"

// UnsupportedIntegrationResponse lists the valid integration ids.
// @Description Returned for an unknown integration id
type UnsupportedIntegrationResponse struct {
	Error     string                `json:"error" example:"unsupported integration"`
	Supported []domain.ProviderType `json:"supported"`
}

func flowCookieName(p domain.ProviderType) string {
	return flowCookiePrefix + string(p)
}

func writeUnsupported(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, UnsupportedIntegrationResponse{
		Error:     "unsupported integration",
		Supported: domain.SupportedProviders(),
	})
}

// handleConnect godoc
// @Summary      Start connecting an integration
// @Description  Returns the provider authorization URL and sets the flow cookie
// @Tags         Integrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.AuthorizeRequest  true  "Integration to connect"
// @Success      200      {object}  driving.AuthorizeResponse
// @Failure      400      {object}  UnsupportedIntegrationResponse  "Unsupported integration or configuration error"
// @Failure      401      {object}  ErrorResponse
// @Router       /integrations/connect [post]
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req driving.AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Provider.IsSupported() {
		writeUnsupported(w)
		return
	}
	req.UserID = authCtx.UserID

	resp, err := s.oauthService.Authorize(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedProvider):
			writeUnsupported(w)
		case errors.Is(err, domain.ErrConfiguration):
			writeError(w, http.StatusBadRequest, "configuration error")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("authorize failed", "provider", req.Provider, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to start authorization")
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flowCookieName(req.Provider),
		Value:    resp.Nonce,
		Path:     driving.CallbackPath(req.Provider),
		MaxAge:   int(s.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, resp)
}

// handleOAuthCallback godoc
// @Summary      OAuth callback
// @Description  Completes the flow and redirects to the frontend status page
// @Tags         Integrations
// @Param        provider           path   string  true   "Provider"
// @Param        code               query  string  false  "Authorization code"
// @Param        state              query  string  false  "Signed state"
// @Param        error              query  string  false  "Provider error code"
// @Param        error_description  query  string  false  "Provider error description"
// @Success      302
// @Router       /oauth/{provider}/callback [get]
func (s *Server) handleOAuthCallback(provider domain.ProviderType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := driving.CallbackRequest{
			Provider:         provider,
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
		}
		if c, err := r.Cookie(flowCookieName(provider)); err == nil {
			req.CookieNonce = c.Value
		}

		// The cookie is single-use whatever the outcome.
		http.SetCookie(w, &http.Cookie{
			Name:     flowCookieName(provider),
			Value:    "",
			Path:     driving.CallbackPath(provider),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})

		resp, err := s.oauthService.Callback(r.Context(), req)
		if err != nil {
			code := "server_error"
			var oauthErr *driving.OAuthError
			if errors.As(err, &oauthErr) {
				code = oauthErr.Code
			} else {
				s.logger.Error("oauth callback failed", "provider", provider, "error", err)
			}
			s.redirectToStatus(w, r, url.Values{"error": {code}, "provider": {string(provider)}})
			return
		}

		s.redirectToStatus(w, r, url.Values{
			"success":      {string(provider)},
			"user":         {resp.UserName},
			"organization": {resp.Organization},
		})
	}
}

func (s *Server) redirectToStatus(w http.ResponseWriter, r *http.Request, params url.Values) {
	http.Redirect(w, r, s.frontendURL+"/integrations?"+params.Encode(), http.StatusFound)
}

// handleListIntegrations godoc
// @Summary      List connections
// @Description  Returns the caller's connections, active or not
// @Tags         Integrations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.CredentialSummary
// @Failure      401  {object}  ErrorResponse
// @Router       /integrations [get]
func (s *Server) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conns, err := s.oauthService.ListConnections(r.Context(), authCtx.UserID)
	if err != nil {
		s.logger.Error("list connections failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list integrations")
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

// handleDisconnect godoc
// @Summary      Disconnect an integration
// @Description  Deactivates the credential and clears its tokens
// @Tags         Integrations
// @Security     BearerAuth
// @Param        provider  path  string  true  "Provider"
// @Success      204
// @Failure      400  {object}  UnsupportedIntegrationResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /integrations/{provider} [delete]
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	provider, err := domain.ParseProviderType(r.PathValue("provider"))
	if err != nil {
		writeUnsupported(w)
		return
	}

	if err := s.oauthService.Disconnect(r.Context(), authCtx.UserID, provider); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "integration not connected")
			return
		}
		s.logger.Error("disconnect failed", "provider", provider, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to disconnect")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListContainers godoc
// @Summary      List containers
// @Description  Lists channels or rooms of a connected integration
// @Tags         Integrations
// @Produce      json
// @Security     BearerAuth
// @Param        provider  path      string  true  "Provider"
// @Success      200       {array}   domain.Container
// @Failure      400       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Failure      502       {object}  ErrorResponse
// @Router       /integrations/{provider}/containers [get]
func (s *Server) handleListContainers(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	provider, err := domain.ParseProviderType(r.PathValue("provider"))
	if err != nil {
		writeUnsupported(w)
		return
	}

	containers, err := s.aggregationService.ListContainers(r.Context(), authCtx.UserID, provider)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "integration not connected")
		case errors.Is(err, domain.ErrUnsupported):
			writeError(w, http.StatusBadRequest, "provider has no containers")
		case errors.Is(err, domain.ErrProviderUnauthorized):
			writeError(w, http.StatusBadGateway, "provider rejected the credential; reconnect the integration")
		default:
			s.logger.Warn("list containers failed", "provider", provider, "error", err)
			writeError(w, http.StatusBadGateway, "provider request failed")
		}
		return
	}
	if containers == nil {
		containers = []*domain.Container{}
	}
	writeJSON(w, http.StatusOK, containers)
}

// handleListProviders godoc
// @Summary      List providers
// @Description  Returns the supported providers and whether each is configured
// @Tags         Integrations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.ProviderInfo
// @Router       /providers [get]
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := s.oauthService.ListProviders(r.Context())
	if err != nil {
		s.logger.Error("list providers failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list providers")
		return
	}
	writeJSON(w, http.StatusOK, providers)
}
