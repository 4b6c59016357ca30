// Package authclient is a client-side authentication orchestrator: it logs
// in, registers and logs out against a remote identity endpoint, keeps the
// resulting bearer token in a secure store and tells observers when the
// session changes.
//
// Collaborators:
//   - Network executes Resource descriptors and owns the header set shared by
//     every outgoing request. transport/httpexec provides a net/http version.
//   - SecureStore keeps the token under "token" and, with AutoLogin, the
//     credentials under "credentials". The store package ships memory,
//     keyring, sqlite and redis backends.
//
// Session lifecycle:
//   - Orchestrator serializes Login, Register, Logout and TryAutoLogin. Store
//     writes, header attach/detach, the cached IsAuthenticated flag and
//     observer notifications all happen while the operation holds the lock,
//     so the flag and the store agree once an operation returns.
//   - Logout clears the local session before calling the endpoint; a failed
//     remote call is reported but never restores the token.
//   - At construction a stored token is re-attached, unless it is a JWT whose
//     exp claim has passed, in which case it is dropped.
//
// Errors:
//   - Every failure is one of the package sentinels (ErrNetwork,
//     ErrUserNotFound, ...). Errors with a cause are clones carrying it as
//     Source; compare them with IsKind.
package authclient
