// Package config loads runtime configuration for the refkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment: SERVER_URL, REQUEST_TIMEOUT, SESSION_DB.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the server API
//	-t int      request timeout (seconds)
//	-f string   session database file
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "10s",
//	  "session_db": ".refkeeper/session.db"
//	}
package config
