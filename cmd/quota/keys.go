package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"postplanner-hq/quota/pkg/cli"
	"postplanner-hq/quota/pkg/limits/tier"
	"postplanner-hq/quota/pkg/security/auth"
)

// apiKeyPrefix marks keys generated by `quota keys generate`.
const apiKeyPrefix = "pp_live_"

var keysFlags struct {
	user   string
	tier   string
	ttl    time.Duration
	secret string
	format string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage caller credentials",
	Long: `Generate API keys, list configured keys and issue bearer tokens.

Subcommands:
  generate - Generate a new API key and print its config entry
  list     - List the API keys in the configuration file
  token    - Issue an HS256 bearer token for testing

Examples:
  # New key for a pro user
  quota keys generate --user user-1 --tier pro

  # Token signed with the configured auth.jwt.secret
  quota keys token --user user-1 --tier starter --ttl 1h`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new API key",
	Long: `Generate a random API key and print the auth.keys entry to add to the
configuration file. Running servers pick it up on the next reload.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateKey(cmd.OutOrStdout(), keysFlags.user, keysFlags.tier)
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured API keys",
	Long:  `List the API keys in the configuration file with their values masked.`,
	Args:  cobra.NoArgs,
	RunE:  listKeys,
}

var keysTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token",
	Long: `Issue an HS256 bearer token carrying the user id and tier.

The signing secret is auth.jwt.secret from the configuration file unless
--secret is given.`,
	Args: cobra.NoArgs,
	RunE: issueToken,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd, keysListCmd, keysTokenCmd)

	for _, c := range []*cobra.Command{keysGenerateCmd, keysTokenCmd} {
		c.Flags().StringVar(&keysFlags.user, "user", "", "user id the credential belongs to")
		c.Flags().StringVar(&keysFlags.tier, "tier", string(tier.Free), "subscription tier (free, starter, pro, agency)")
		_ = c.MarkFlagRequired("user")
	}
	keysTokenCmd.Flags().DurationVar(&keysFlags.ttl, "ttl", 24*time.Hour, "token lifetime")
	keysTokenCmd.Flags().StringVar(&keysFlags.secret, "secret", "", "signing secret (overrides auth.jwt.secret)")
	keysListCmd.Flags().StringVar(&keysFlags.format, "format", "text", "output format: text, json, csv")
}

func generateKey(w io.Writer, userID, tierName string) error {
	t, err := tier.ParseTier(tierName)
	if err != nil {
		return cli.NewConfigError("tier", err.Error())
	}
	if strings.TrimSpace(userID) == "" {
		return cli.NewConfigError("user", "must not be empty")
	}

	key, err := newAPIKey()
	if err != nil {
		return cli.NewCommandError("keys generate", err)
	}

	fmt.Fprintf(w, "API Key: %s\n", key)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "⚠️  Warning: Store the key securely and never commit it to version control")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration snippet:")
	fmt.Fprintln(w, "auth:")
	fmt.Fprintln(w, "  keys:")
	fmt.Fprintf(w, "    - key: %q\n", key)
	fmt.Fprintf(w, "      user_id: %q\n", userID)
	fmt.Fprintf(w, "      tier: %s\n", t)
	return nil
}

// newAPIKey returns apiKeyPrefix followed by 32 random hex characters.
func newAPIKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// keyTable lists configured keys with masked values.
type keyTable struct {
	Keys []keyRow `json:"keys"`
}

type keyRow struct {
	Key     string `json:"key"`
	UserID  string `json:"userId"`
	Tier    string `json:"tier"`
	Enabled bool   `json:"enabled"`
}

func (t keyTable) Header() []string {
	return []string{"KEY", "USER", "TIER", "ENABLED"}
}

func (t keyTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Keys))
	for _, k := range t.Keys {
		rows = append(rows, []string{k.Key, k.UserID, k.Tier, fmt.Sprint(k.Enabled)})
	}
	return rows
}

func listKeys(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(keysFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	keys, err := apiKeys(cfg.Auth.Keys)
	if err != nil {
		return err
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), buildKeyTable(auth.NewAPIKeyValidator(keys)))
}

// buildKeyTable lists the validator's keys in key order with masked values.
func buildKeyTable(v *auth.APIKeyValidator) keyTable {
	var table keyTable
	for _, k := range v.List() {
		table.Keys = append(table.Keys, keyRow{
			Key:     maskKey(k.Key),
			UserID:  k.UserID,
			Tier:    string(k.Tier),
			Enabled: k.Enabled,
		})
	}
	return table
}

// maskKey keeps the first eight and last four characters of long keys.
func maskKey(key string) string {
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + strings.Repeat("*", len(key)-12) + key[len(key)-4:]
}

func issueToken(cmd *cobra.Command, args []string) error {
	secret, issuer, claim := keysFlags.secret, "", ""
	if secret == "" {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		secret, issuer, claim = cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.TierClaim
	}
	if secret == "" {
		return cli.NewConfigError("auth.jwt.secret", "is not set; pass --secret or configure it")
	}

	token, err := signToken(secret, issuer, claim, keysFlags.user, keysFlags.tier, keysFlags.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func signToken(secret, issuer, tierClaim, userID, tierName string, ttl time.Duration) (string, error) {
	t, err := tier.ParseTier(tierName)
	if err != nil {
		return "", cli.NewConfigError("tier", err.Error())
	}
	if ttl <= 0 {
		return "", cli.NewConfigError("ttl", "must be positive")
	}

	verifier, err := auth.NewJWTVerifier(secret, issuer, tierClaim)
	if err != nil {
		return "", cli.NewCommandError("keys token", err)
	}
	token, err := verifier.Issue(userID, t, ttl)
	if err != nil {
		return "", cli.NewCommandError("keys token", err)
	}
	return token, nil
}
