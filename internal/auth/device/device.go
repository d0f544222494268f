// Package device derives human-readable device names and stable fingerprints
// from User-Agent strings. The display name is stored with a session so a
// user can recognize where they are signed in.
package device

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Service computes device fingerprints. Parsing display names is a pure
// function and does not require a Service.
type Service struct {
	enabled bool
}

func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ParseUserAgent renders a User-Agent as "Browser on OS" for display.
func ParseUserAgent(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "Unknown Device"
	}

	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	os := parsed.OS()

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		if parsed.Platform() != "" {
			os = parsed.Platform()
		} else {
			os = "Unknown OS"
		}
	}

	return strings.TrimSpace(fmt.Sprintf("%s on %s", browser, os))
}

// ComputeFingerprint hashes the browser name, major version, and OS into a
// stable identifier. Minor version bumps keep the same fingerprint; major
// changes rotate it. Returns empty when the service is disabled.
func (s *Service) ComputeFingerprint(ua string) string {
	if !s.enabled {
		return ""
	}

	parsed := useragent.New(ua)
	browser, version := parsed.Browser()
	major := version
	if i := strings.IndexByte(version, '.'); i >= 0 {
		major = version[:i]
	}

	sum := sha256.Sum256([]byte(browser + "/" + major + "/" + parsed.OS()))
	return hex.EncodeToString(sum[:])
}

type contextKeyUserAgent struct{}

// ContextWithUserAgent stashes the request User-Agent so the identity
// provider can name the session it creates.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, contextKeyUserAgent{}, ua)
}

// UserAgentFrom retrieves the stashed User-Agent, empty when absent.
func UserAgentFrom(ctx context.Context) string {
	ua, ok := ctx.Value(contextKeyUserAgent{}).(string)
	if !ok {
		return ""
	}
	return ua
}
