package identity

import "testing"

func TestResolveBinaryName(t *testing.T) {
	if got := ResolveBinaryName(nil); got != CLIName {
		t.Fatalf("expected default %q, got %q", CLIName, got)
	}
	if got := ResolveBinaryName([]string{"/usr/local/bin/cmux"}); got != CLIName {
		t.Fatalf("expected %q, got %q", CLIName, got)
	}
	if got := ResolveBinaryName([]string{"unknown"}); got != CLIName {
		t.Fatalf("expected fallback %q, got %q", CLIName, got)
	}
}

func TestIsCLICommandToken(t *testing.T) {
	cases := map[string]bool{
		"cmux":    true,
		" CMUX ":  true,
		"cmuxctl": true,
		"tmux":    false,
		"":        false,
	}
	for input, want := range cases {
		if got := IsCLICommandToken(input); got != want {
			t.Fatalf("IsCLICommandToken(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestResolveBinaryNameKeepsAlias(t *testing.T) {
	if got := ResolveBinaryName([]string{"./cmuxctl"}); got != "cmuxctl" {
		t.Fatalf("expected alias preserved, got %q", got)
	}
}
