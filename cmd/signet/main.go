package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/signet-works/signet/internal/crypto"
	"github.com/signet-works/signet/internal/version"
)

// resolveServerURL returns the server URL from the flag or SIGNET_SERVER_URL
// env var. Prints a warning to stderr when falling back to the env var.
func resolveServerURL(cmd *cobra.Command, flagValue string) (string, error) {
	normalize := func(v string) string {
		for len(v) > 0 && v[len(v)-1] == '/' {
			v = v[:len(v)-1]
		}
		return v
	}
	if cmd.Flags().Changed("server") {
		return normalize(flagValue), nil
	}
	if v := os.Getenv("SIGNET_SERVER_URL"); v != "" {
		fmt.Fprintf(os.Stderr, "signet: WARNING: using server URL from SIGNET_SERVER_URL environment variable\n")
		return normalize(v), nil
	}
	return "", fmt.Errorf("server URL required: use --server flag or set SIGNET_SERVER_URL")
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "signet",
		Short:   "signet - ops tooling for the signet signing bridge",
		Version: version.Version,
	}
	rootCmd.SetVersionTemplate(version.String("signet") + "\n")

	rootCmd.AddCommand(newSaltCmd())
	rootCmd.AddCommand(newKarnetCmd())
	rootCmd.AddCommand(newSignCmd())
	rootCmd.AddCommand(newStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSaltCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "salt",
		Short: "Generate a value suitable for SIGNET_SALT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buf := make([]byte, 32)
			if _, err := rand.Read(buf); err != nil {
				return fmt.Errorf("generate salt: %w", err)
			}
			fmt.Println(hex.EncodeToString(buf))
			return nil
		},
	}
}

func newKarnetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "karnet",
		Short: "Mint a fresh karnet value for a login flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(uuid.NewString())
			return nil
		},
	}
}

func newSignCmd() *cobra.Command {
	var (
		serverURL string
		karnet    string
		verify    bool
	)

	cmd := &cobra.Command{
		Use:   "sign <message>",
		Short: "Sign a message through an active karnet session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := resolveServerURL(cmd, serverURL)
			if err != nil {
				return err
			}
			if karnet == "" {
				return fmt.Errorf("--karnet is required")
			}

			message := args[0]
			q := url.Values{}
			q.Set("karnet", karnet)
			q.Set("message", crypto.EncodeBase64([]byte(message)))

			client := &http.Client{Timeout: 30 * time.Second}
			resp, err := client.Get(base + "/sign?" + q.Encode())
			if err != nil {
				return fmt.Errorf("call sign endpoint: %w", err)
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK:
			case http.StatusForbidden:
				return fmt.Errorf("karnet unknown or expired")
			default:
				return fmt.Errorf("sign endpoint returned status %d", resp.StatusCode)
			}

			var result struct {
				Signature string `json:"signature"`
				Address   string `json:"address"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}

			if verify {
				sig, err := crypto.DecodeBase64(result.Signature)
				if err != nil {
					return fmt.Errorf("decode signature: %w", err)
				}
				if !crypto.IsSignatureValid(result.Address, sig, []byte(message)) {
					return fmt.Errorf("signature does not verify against %s", result.Address)
				}
				fmt.Fprintf(os.Stderr, "signature verified for %s\n", result.Address)
			}

			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Signet server URL")
	cmd.Flags().StringVar(&karnet, "karnet", "", "Karnet issued during login")
	cmd.Flags().BoolVar(&verify, "verify", false, "Recover the address locally and check it matches")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Fetch the server health report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := resolveServerURL(cmd, serverURL)
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Get(base + "/status.json")
			if err != nil {
				return fmt.Errorf("call status endpoint: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			fmt.Println(string(body))

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server reports unhealthy (status %d)", resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Signet server URL")
	return cmd
}
