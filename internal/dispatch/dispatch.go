// Package dispatch composes and opens the outbound briefing links. The
// application never sends anything itself; it hands a wa.me or mailto URI
// to the operating system and the user finishes the send in their own
// client.
package dispatch

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"antirisk/internal/types"
)

// escape matches JS encodeURIComponent: spaces become %20, not '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// WhatsAppURI builds the wa.me deep link carrying the briefing. The phone
// number is reduced to digits; formatting characters users paste in
// ("+", spaces, dashes) are dropped.
func WhatsAppURI(phone, topic, content string) string {
	body := fmt.Sprintf("*AntiRisk Bi-Weekly Intelligence: %s*\n\n%s", topic, content)
	return fmt.Sprintf("https://wa.me/%s?text=%s", types.NormalizePhone(phone), escape(body))
}

// EmailURI builds the mailto link carrying the briefing.
func EmailURI(addr, topic, content string) string {
	subject := escape("AntiRisk Intelligence: " + topic)
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s", addr, subject, escape(content))
}

// Open hands the URI to the platform opener. Fire and forget: the spawned
// process is not waited on, and a missing opener surfaces as the returned
// error.
func Open(uri string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", uri)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", uri)
	default:
		cmd = exec.Command("xdg-open", uri)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", uri, err)
	}
	go cmd.Wait()
	return nil
}
