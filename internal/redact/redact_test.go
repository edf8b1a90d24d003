package redact

import (
	"strings"
	"testing"
)

func TestRedactSSN(t *testing.T) {
	got := Redact("My SSN is 123-45-6789, remember it")
	if !strings.Contains(got, TokenSSN) {
		t.Errorf("expected SSN token in %q", got)
	}
	if strings.Contains(got, "123-45-6789") {
		t.Errorf("original digits leaked: %q", got)
	}
}

func TestRedactEmail(t *testing.T) {
	got := Redact("reach me at jane.doe+test@example.co.uk thanks")
	if !strings.Contains(got, TokenEmail) {
		t.Errorf("expected email token in %q", got)
	}
	if strings.Contains(got, "example.co.uk") {
		t.Errorf("original address leaked: %q", got)
	}
}

func TestRedactCard(t *testing.T) {
	got := Redact("card: 4111111111111111")
	if !strings.Contains(got, TokenCard) {
		t.Errorf("expected card token in %q", got)
	}
	if strings.Contains(got, "4111111111111111") {
		t.Errorf("original digits leaked: %q", got)
	}
}

func TestRedactCombined(t *testing.T) {
	in := "ssn 123-45-6789 email a@b.io card 1234567812345678"
	got := Redact(in)
	for _, token := range []string{TokenSSN, TokenEmail, TokenCard} {
		if !strings.Contains(got, token) {
			t.Errorf("missing %s in %q", token, got)
		}
	}
}

func TestRedactIdempotent(t *testing.T) {
	inputs := []string{
		"My SSN is 123-45-6789",
		"mail me: x@y.com and card 1234123412341234",
		"nothing sensitive here",
		"",
	}
	for _, in := range inputs {
		once := Redact(in)
		twice := Redact(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestRedactNoFalsePositives(t *testing.T) {
	inputs := []string{
		"call me at 555-1234 tomorrow",
		"order #12345 shipped on 2024-01-02",
		"a 15-digit run 123456789012345 is not a card",
		"a 17-digit run 12345678901234567 is not a card either",
		"plain sentence with no numbers",
	}
	for _, in := range inputs {
		if got := Redact(in); got != in {
			t.Errorf("unexpected change: %q -> %q", in, got)
		}
	}
}
