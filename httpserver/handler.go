package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/carlink/telemetry-device/auth"
	"github.com/carlink/telemetry-device/interfaces"
	"github.com/carlink/telemetry-device/metrics"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// QRCodeInfo is the connection descriptor shown in the pairing QR
// code: where to reach the device and which network to join first.
type QRCodeInfo struct {
	IP       string `json:"ip"`
	Port     string `json:"port"`
	Network  string `json:"network"`
	Password string `json:"password"`
}

// Handler processes the auth API requests. It composes the trust
// subsystem's components; all cryptographic failures are answered with
// one uniform unauthorized body so callers cannot probe which check
// failed, while the specific cause is logged server-side.
type Handler struct {
	challenges   *auth.PairingChallengeIssuer
	registration *auth.RegistrationCoordinator
	unlink       *auth.UnlinkCoordinator
	front        *auth.FrontBootstrapAuthenticator
	issuer       *auth.LocalTokenIssuer
	users        interfaces.UserStore
	qr           QRCodeInfo
	log          *slog.Logger
}

// NewHandler creates the auth API handler with its collaborators.
func NewHandler(
	challenges *auth.PairingChallengeIssuer,
	registration *auth.RegistrationCoordinator,
	unlink *auth.UnlinkCoordinator,
	front *auth.FrontBootstrapAuthenticator,
	issuer *auth.LocalTokenIssuer,
	users interfaces.UserStore,
	qr QRCodeInfo,
	log *slog.Logger,
) *Handler {
	return &Handler{
		challenges:   challenges,
		registration: registration,
		unlink:       unlink,
		front:        front,
		issuer:       issuer,
		users:        users,
		qr:           qr,
		log:          log,
	}
}

// HandlePairingToken returns a fresh pairing challenge envelope.
//
// URL format: GET /api/auth/pairing-token
// Response: {"token": "<compact JWE>"}
func (h *Handler) HandlePairingToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.challenges.Issue(r.Context())
	if err != nil {
		h.log.Error("Failed to issue pairing challenge", "err", err)
		http.Error(w, "Failed to issue pairing token", http.StatusInternalServerError)
		return
	}

	metrics.PairingChallenges.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HandleQRCode returns the connection descriptor for the pairing QR
// code.
//
// URL format: GET /api/auth/qr-code
// Response: {"qrCode": {"ip": ..., "port": ..., "network": ..., "password": ...}}
func (h *Handler) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]QRCodeInfo{"qrCode": h.qr})
}

type registerRequest struct {
	CarRefreshToken string `json:"carRefreshToken"`
	PayloadData     string `json:"payloadData"`
}

// HandleRegister completes a pairing exchange.
//
// URL format: POST /api/auth/register
// Request body: {"carRefreshToken": ..., "payloadData": ...}
// Response: {"accessToken": "<compact JWS>"}
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CarRefreshToken == "" || req.PayloadData == "" {
		http.Error(w, "Missing carRefreshToken or payloadData", http.StatusBadRequest)
		return
	}

	token, client, err := h.registration.Register(r.Context(), req.CarRefreshToken, req.PayloadData)
	if err != nil {
		h.writeError(w, "register", err)
		return
	}

	metrics.TokensIssued.WithLabelValues(string(client)).Inc()
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh exchanges a cloud-issued refresh token for a fresh
// local access token.
//
// URL format: POST /api/auth/refresh
// Request body: {"refreshToken": ...}
// Response: {"accessToken": "<compact JWS>"}
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RefreshToken == "" {
		http.Error(w, "Missing refreshToken", http.StatusBadRequest)
		return
	}

	token, client, err := h.registration.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, "refresh", err)
		return
	}

	metrics.TokensIssued.WithLabelValues(string(client)).Inc()
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

// HandleFrontAccessToken is the HMAC-gated bootstrap path for the
// trusted dashboard client. On success a 30-day token is set as an
// httpOnly strict-site cookie.
//
// URL format: POST /api/auth/front-access-token
// Required headers: x-timestamp, x-signature
// Response: {"message": "front authenticated"} plus the front-token cookie
func (h *Handler) HandleFrontAccessToken(w http.ResponseWriter, r *http.Request) {
	timestamp := r.Header.Get("x-timestamp")
	signature := r.Header.Get("x-signature")

	if !h.front.Verify(timestamp, signature) {
		h.log.Warn("Front bootstrap HMAC rejected")
		metrics.AuthFailures.WithLabelValues("front-bootstrap").Inc()
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// The front only gets its token once a user has paired.
	if _, err := h.users.FindUser(r.Context()); err != nil {
		h.log.Warn("Front bootstrap before registration", "err", err)
		metrics.AuthFailures.WithLabelValues("front-bootstrap").Inc()
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := h.issuer.Issue("front", "front", interfaces.ClientFront)
	if err != nil {
		h.log.Error("Failed to issue front token", "err", err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.FrontTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(interfaces.FrontTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	metrics.TokensIssued.WithLabelValues(string(interfaces.ClientFront)).Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "front authenticated"})
}

// HandleIsLoggedIn reports whether a user is registered.
//
// URL format: GET /api/auth/is-logged-in
func (h *Handler) HandleIsLoggedIn(w http.ResponseWriter, r *http.Request) {
	_, err := h.users.FindUser(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, true)
	case errors.Is(err, interfaces.ErrUserNotFound):
		writeJSON(w, http.StatusOK, false)
	default:
		h.log.Error("Failed to look up user", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// HandleMe returns the registered user's profile. Guarded.
//
// URL format: GET /api/auth/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.FindUser(r.Context())
	if err != nil {
		h.writeError(w, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateSettingsRequest struct {
	Settings interfaces.Settings `json:"settings"`
}

// HandleUpdateSettings replaces the user's settings object. Guarded.
//
// URL format: PATCH /api/auth/me/settings
// Request body: {"settings": {...}}
// Response: the updated settings object
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.UpdateUserSettings(r.Context(), req.Settings)
	if err != nil {
		h.writeError(w, "settings", err)
		return
	}
	writeJSON(w, http.StatusOK, user.Settings)
}

type updateDashboardRequest struct {
	Settings interfaces.DashboardSettings `json:"settings"`
}

// HandleUpdateDashboardSettings replaces only the dashboard section of
// the user's settings. Guarded.
//
// URL format: PATCH /api/auth/me/settings/dashboard
// Request body: {"settings": {...}}
// Response: the updated settings object
func (h *Handler) HandleUpdateDashboardSettings(w http.ResponseWriter, r *http.Request) {
	var req updateDashboardRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.FindUser(r.Context())
	if err != nil {
		h.writeError(w, "settings", err)
		return
	}

	settings := user.Settings
	settings.Dashboard = req.Settings

	updated, err := h.users.UpdateUserSettings(r.Context(), settings)
	if err != nil {
		h.writeError(w, "settings", err)
		return
	}
	writeJSON(w, http.StatusOK, updated.Settings)
}

// HandleUnlink removes the local user and the vehicle identity record
// as one atomic unit. Guarded.
//
// URL format: DELETE /api/auth/unlink
// Response: {"message": "device unlinked"}
func (h *Handler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	if err := h.unlink.Unlink(r.Context()); err != nil {
		h.writeError(w, "unlink", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "device unlinked"})
}

// writeError maps a failure to its HTTP response. Cryptographic and
// authorization failures collapse into one uniform unauthorized body;
// business-logic outcomes keep their own statuses.
func (h *Handler) writeError(w http.ResponseWriter, surface string, err error) {
	switch {
	case interfaces.IsAuthError(err):
		h.log.Warn("Authentication failure", "surface", surface, "err", err)
		metrics.AuthFailures.WithLabelValues(surface).Inc()
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, interfaces.ErrUserNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
	case errors.Is(err, interfaces.ErrUserExists):
		http.Error(w, "User already exists", http.StatusBadRequest)
	default:
		h.log.Error("Request failed", "surface", surface, "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
