// Package ratelimit guards passcode-protected results against brute-force
// guessing. It tracks failed attempts per (result, client) pair in a
// durable ledger and locks the pair out once the failure threshold is
// crossed within the counting window.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// ClientKey derives a stable pseudo-identity for rate limiting.
//
// An authenticated session wins: the key is "user:<id>" and survives
// address changes. Otherwise the key is "hash:<sha256 hex>" over the
// source address and user-agent, which is the best stable signal an
// anonymous visitor gives us. Same inputs always produce the same key.
func ClientKey(userID, addr, userAgent string) string {
	if userID != "" {
		return "user:" + userID
	}

	if userAgent == "" {
		userAgent = "unknown"
	}
	// Combining address and UA reduces collisions behind shared NATs
	// when user agents differ; address-based limiting is the main goal.
	raw := addr + "|" + userAgent
	sum := sha256.Sum256([]byte(raw))
	return "hash:" + hex.EncodeToString(sum[:])
}

// ClientAddr extracts the client source address from a request: the first
// hop of X-Forwarded-For when present (set by the fronting proxy), else
// the RemoteAddr host.
func ClientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
