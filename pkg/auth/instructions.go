package auth

import (
	"fmt"
	"io"
	"strings"
)

// TokenSettingsURL is where GitHub personal access tokens are created
const TokenSettingsURL = "https://github.com/settings/tokens"

// ShowTokenGuide writes step-by-step instructions for creating a token
func ShowTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "GITHUB TOKEN SETUP")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "followsync follows and unfollows accounts on your behalf, so it needs a")
	fmt.Fprintln(w, "personal access token for the account being reconciled.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "STEP 1: Open %s\n", TokenSettingsURL)
	fmt.Fprintln(w, "STEP 2: Generate a new token")
	fmt.Fprintln(w, "   • Classic token: tick the 'user:follow' scope")
	fmt.Fprintln(w, "   • Fine-grained token: grant 'Followers' read and write")
	fmt.Fprintln(w, "STEP 3: Copy the token (it starts with ghp_ or github_pat_)")
	fmt.Fprintln(w, "STEP 4: Paste it at the prompt below")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SECURITY:")
	fmt.Fprintln(w, "   • The token can change who you follow. Never share it.")
	fmt.Fprintln(w, "   • It is stored in the OS keyring, or encrypted on disk when no keyring is available.")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

// ShowQuickTokenGuide writes a one-line reminder
func ShowQuickTokenGuide(w io.Writer) {
	fmt.Fprintf(w, "Create a token with the 'user:follow' scope at %s\n", TokenSettingsURL)
}
