// Package cli provides the interactive refkeeper command-line client.
//
// It wires configuration, the HTTP API client, a local session store and a
// small REPL. A saved session is restored on start, so a user who logged in
// earlier can query referrals straight away.
//
// Commands:
//   - register / login / logout
//   - forgot (request a password reset)
//   - referrals / stats (require a login)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
