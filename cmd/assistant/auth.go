package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/assistant-engine/internal/credential"
	"github.com/nhle/assistant-engine/internal/provider"
)

var authKey string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage provider API keys and the mail password",
	Long: `Store credentials in the operating system keyring. Environment
variables (OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY,
ASSISTANT_MAIL_PASSWORD) take precedence over stored values.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <openai|anthropic|gemini|mail>",
	Short: "Store a credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthSet,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials are available",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove <openai|anthropic|gemini|mail>",
	Short: "Remove a stored credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthRemove,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRemoveCmd)

	authSetCmd.Flags().StringVar(&authKey, "key", "", "credential value (read from stdin if not provided)")
}

var credentialNames = []string{provider.NameOpenAI, provider.NameAnthropic, provider.NameGemini, "mail"}

// credentialKey maps a CLI name to its keyring entry.
func credentialKey(name string) (string, error) {
	switch name = strings.ToLower(name); name {
	case "mail":
		return credential.MailPasswordKey, nil
	case provider.NameOpenAI, provider.NameAnthropic, provider.NameGemini:
		return credential.APIKeyName(name), nil
	default:
		return "", fmt.Errorf("unknown credential %q (valid: %s)", name, strings.Join(credentialNames, ", "))
	}
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	key, err := credentialKey(args[0])
	if err != nil {
		return err
	}

	value := authKey
	if value == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Enter value for %s: ", args[0])
		value, err = readLine(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}
	if value == "" {
		return errors.New("credential must not be empty")
	}

	return credential.NewSystemKeyring(credential.DefaultDir()).Set(key, value)
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	resolver := credential.NewResolver(credential.NewSystemKeyring(credential.DefaultDir()))

	out := cmd.OutOrStdout()
	for _, name := range credentialNames {
		key, _ := credentialKey(name)
		status := "configured"
		if _, err := resolver.Lookup(key); errors.Is(err, credential.ErrNotFound) {
			status = "not configured"
		} else if err != nil {
			status = "unavailable: " + err.Error()
		}
		fmt.Fprintf(out, "  %-12s %s\n", name+":", status)
	}
	return nil
}

func runAuthRemove(_ *cobra.Command, args []string) error {
	key, err := credentialKey(args[0])
	if err != nil {
		return err
	}
	return credential.NewSystemKeyring(credential.DefaultDir()).Delete(key)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
