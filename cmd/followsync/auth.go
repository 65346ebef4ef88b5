package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"followsync/pkg/auth"
	"followsync/pkg/config"
	"followsync/pkg/github"
	"followsync/pkg/logger"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage GitHub tokens",
	Long: `Manage stored GitHub personal access tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (FOLLOWSYNC_TOKEN, TOKEN)

Never share your token or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store a GitHub token securely",
	Long: `Store a GitHub personal access token in the system keychain or an
encrypted file.

The token is checked against the API before it is stored, and the username
is taken from the token's owner when it is not given.`,
	Example: `  # Interactive login
  followsync auth login

  # Login and check the token belongs to octocat
  followsync auth login octocat`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove a stored token",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long:  `List stored accounts with their tokens masked.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	manager, err := auth.NewManager(config.ConfigDir())
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	console := newConsole()
	reader := bufio.NewReader(os.Stdin)

	auth.ShowTokenGuide(cmd.OutOrStdout())

	fmt.Print("Personal access token (hidden): ")
	token, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if err := auth.ValidateToken(token); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GitHub.Timeout)
	defer cancel()

	client := github.NewClient(github.Options{
		BaseURL:   cfg.GitHub.APIURL,
		Token:     token,
		UserAgent: cfg.GitHub.UserAgent,
		Timeout:   cfg.GitHub.Timeout,
		Logger:    logger.GetLogger(),
	})
	owner, err := client.AuthenticatedUser(ctx)
	if err != nil {
		return fmt.Errorf("token rejected by GitHub: %w", err)
	}

	username := owner.Login
	if len(args) > 0 && !strings.EqualFold(args[0], owner.Login) {
		return fmt.Errorf("token belongs to %s, not %s", owner.Login, args[0])
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("Account '%s' already exists. Replace its token? (y/N): ", username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	backend, err := manager.Store(&auth.Account{
		Username:     username,
		Token:        token,
		LastModified: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	console.Success("Token stored for %s (%s)", username, backend)
	console.Line("")
	console.Line("Run a reconciliation with:")
	console.Line("  followsync run --username %s", username)
	console.Line("")
	console.Warning("Never share your token or config files!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager(config.ConfigDir())
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	newConsole().Success("Account removed: %s", args[0])
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	manager, err := auth.NewManager(config.ConfigDir())
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	console := newConsole()
	if len(accounts) == 0 {
		console.Info("No stored accounts", "use 'followsync auth login' to add one")
		return nil
	}

	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		s := auth.SanitizeAccount(a)
		modified := "-"
		if !s.LastModified.IsZero() {
			modified = s.LastModified.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{s.Username, s.Token, modified})
	}
	console.Heading("Stored Accounts")
	console.Table([]string{"Username", "Token", "Last Modified"}, rows)
	console.Dim("Backends: %s", strings.Join(manager.Stores(), ", "))
	return nil
}

// readPassword reads a line from stdin without echo when it is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
