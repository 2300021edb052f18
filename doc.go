// Package session implements the client-side auth/session lifecycle for the
// ShopGlow admin backend: credential persistence, a bearer-token HTTP
// pipeline, and a session state machine with a bootstrap flow.
//
// Session lifecycle:
//   - Manager owns the session state (user, token, authenticated flag,
//     loading flag, last error) and exposes the auth operations: Register,
//     Login, Validate, Me, Logout, ForgotPassword, ResetPassword. Successful
//     validation applies the backend's sliding refresh: a replacement token is
//     persisted in place of the old one.
//   - Bootstrapper runs once per process start. It decides, based on the
//     persisted credentials and the current route, whether to validate the
//     stored token, hydrate the profile, or report a redirect to login.
//
// Unauthorized bridge:
//   - UnauthorizedBridge decouples the HTTP layer from the session layer.
//     The HTTP client publishes on it when any request comes back 401; the
//     Manager subscribes and drops to the anonymous state. Dispatch is
//     synchronous with no replay, so a publish with no subscribers is lost.
//
// Credential stores live in the store subpackage; the HTTP pipeline and the
// typed REST wrappers live in the client subpackage.
package session
