package dispatch

import (
	"net/url"
	"strings"
	"testing"
)

func TestWhatsAppURI_NormalizesPhoneAndEncodesBody(t *testing.T) {
	t.Parallel()
	uri := WhatsAppURI("+234 801-234 5678", "Gate Security", "Tighten night checks.")

	if !strings.HasPrefix(uri, "https://wa.me/2348012345678?text=") {
		t.Fatalf("unexpected prefix: %s", uri)
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		t.Fatalf("URI must parse: %v", err)
	}
	text := parsed.Query().Get("text")
	want := "*AntiRisk Bi-Weekly Intelligence: Gate Security*\n\nTighten night checks."
	if text != want {
		t.Errorf("decoded text = %q, want %q", text, want)
	}

	// Spaces must be %20, never '+'.
	if strings.Contains(uri, "+") {
		t.Errorf("URI must not contain raw '+': %s", uri)
	}
	if !strings.Contains(uri, "%20") {
		t.Errorf("expected %%20 space encoding: %s", uri)
	}
}

func TestEmailURI(t *testing.T) {
	t.Parallel()
	uri := EmailURI("ceo@antirisk.test", "Gate Security", "Body text here.")

	if !strings.HasPrefix(uri, "mailto:ceo@antirisk.test?subject=") {
		t.Fatalf("unexpected prefix: %s", uri)
	}
	if !strings.Contains(uri, "subject=AntiRisk%20Intelligence%3A%20Gate%20Security") {
		t.Errorf("unexpected subject encoding: %s", uri)
	}
	if !strings.Contains(uri, "&body=Body%20text%20here.") {
		t.Errorf("unexpected body encoding: %s", uri)
	}
}

func TestEscape_NewlinesAndMarkdown(t *testing.T) {
	t.Parallel()
	got := escape("*T*\n\nline two")
	if got != "%2AT%2A%0A%0Aline%20two" {
		t.Errorf("unexpected encoding %q", got)
	}
}
