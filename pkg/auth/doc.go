// Package auth stores TikTok web session cookies.
//
// A Manager tries the system keychain first, then an encrypted file in the
// user config directory, then read-only environment variables
// (TAGHARVEST_MS_TOKEN, TAGHARVEST_SESSION_ID, TAGHARVEST_USER_AGENT).
package auth
