/*
Package httpserver implements the device's local HTTP API.

It exposes the trust-establishment and token-lifecycle endpoints that
paired clients (the mobile app and the on-dashboard front) use, plus
health and diagnostic endpoints. The server refuses to start until all
key material is loaded and the identity store is open; fail-closed
startup is the caller's responsibility via construction order.

# Auth API Endpoints

  - GET    /api/auth/pairing-token      - Encrypted pairing challenge envelope
  - GET    /api/auth/qr-code            - Connection descriptor for the pairing QR
  - POST   /api/auth/register           - Complete pairing, returns first access token
  - POST   /api/auth/refresh            - Exchange refresh token for access token
  - POST   /api/auth/front-access-token - HMAC-gated front bootstrap, sets cookie
  - GET    /api/auth/is-logged-in       - Whether a user is registered
  - GET    /api/auth/me                 - User profile (guarded)
  - PATCH  /api/auth/me/settings        - Replace user settings (guarded)
  - PATCH  /api/auth/me/settings/dashboard - Replace dashboard settings (guarded)
  - DELETE /api/auth/unlink             - Remove local identity (guarded)

# Health Endpoints

  - GET /livez   - Liveness check
  - GET /readyz  - Readiness check
  - GET /drain   - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

Guarded endpoints accept the session token from the Authorization
bearer header or the front-token cookie; the header wins when both are
present. Every authentication failure is answered with the same
unauthorized body regardless of which check failed.
*/
package httpserver
