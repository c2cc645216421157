// Package main provides the CLI entry point for mono-seedkit.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/monolythium/mono-seedkit/internal/chains"
	"github.com/monolythium/mono-seedkit/internal/hdkeys"
	"github.com/monolythium/mono-seedkit/internal/keystore"
	"github.com/monolythium/mono-seedkit/internal/provider"
	"github.com/monolythium/mono-seedkit/internal/session"
	"github.com/monolythium/mono-seedkit/internal/tui"
)

var (
	// Global flags
	jsonOutput bool
	verbose    bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "seedkit",
		Short: "Mono Seedkit - social-login seed recovery for Monolythium accounts",
		Long: `Mono Seedkit recovers a seed secret from a social-login identity
provider and derives Monolythium account keys from it at
m/44'/634'/account'/0/0.

Interactive login (devnet provider):
  seedkit login

Or work directly with a mnemonic:
  seedkit derive --account 0
  seedkit export --account 0 --out wallet.json
  seedkit networks list`,
	}

	// Login command
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Recover the seed secret from the identity provider",
		Run:   runLogin,
	}

	// Derive command
	deriveCmd = &cobra.Command{
		Use:   "derive",
		Short: "Derive an account key from a mnemonic",
		Run:   runDerive,
	}

	// Export command
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export a derived account key as an encrypted keystore v3 file",
		Run:   runExport,
	}

	// Networks command
	networksCmd = &cobra.Command{
		Use:   "networks",
		Short: "Provider network commands",
	}

	networksListCmd = &cobra.Command{
		Use:   "list",
		Short: "List supported provider networks",
		Run:   runNetworksList,
	}

	// Forget command
	forgetCmd = &cobra.Command{
		Use:   "forget",
		Short: "Log out and forget the recovered secret",
		Run:   runForget,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Login command flags
	loginCmd.Flags().String("network", string(chains.DefaultNetwork), "Provider network (sapphire_devnet, sapphire_mainnet, testnet)")
	loginCmd.Flags().String("api-key", "mono-seedkit-dev", "Provider API key")
	loginCmd.Flags().String("secret-file", "", "Devnet entropy file (default: ~/.mono-seedkit/devnet.secret)")
	loginCmd.Flags().Duration("timeout", 0, "Bound the interactive login (0 = wait indefinitely)")
	loginCmd.Flags().Bool("no-tui", false, "Plain output instead of the interactive flow")
	rootCmd.AddCommand(loginCmd)

	// Derive command flags
	deriveCmd.Flags().Uint32("account", 0, "Account index")
	deriveCmd.Flags().Bool("show-private", false, "Also print the private key (use with extreme caution)")
	rootCmd.AddCommand(deriveCmd)

	// Export command flags
	exportCmd.Flags().Uint32("account", 0, "Account index")
	exportCmd.Flags().String("out", "", "Output path (default: ./UTC--<timestamp>--<address>.json)")
	exportCmd.Flags().Bool("light", false, "Use light scrypt parameters (faster, less secure)")
	rootCmd.AddCommand(exportCmd)

	// Networks subcommands
	networksCmd.AddCommand(networksListCmd)
	rootCmd.AddCommand(networksCmd)

	// Forget command flags
	forgetCmd.Flags().String("api-key", "mono-seedkit-dev", "Provider API key")
	forgetCmd.Flags().String("secret-file", "", "Devnet entropy file (default: ~/.mono-seedkit/devnet.secret)")
	forgetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(forgetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runLogin(cmd *cobra.Command, args []string) {
	networkStr, _ := cmd.Flags().GetString("network")
	apiKey, _ := cmd.Flags().GetString("api-key")
	secretFile, _ := cmd.Flags().GetString("secret-file")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	noTUI, _ := cmd.Flags().GetBool("no-tui")

	network, err := chains.ParseProviderNetwork(networkStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger()

	client := &provider.Devnet{Path: secretFile}
	sess := session.New(func(session.Config) (session.AuthClient, error) {
		return client, nil
	})

	err = sess.Initialize(session.Config{
		APIKey:       apiKey,
		Network:      network,
		LoginTimeout: timeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("session initialized", "network", string(network))

	if !noTUI && !jsonOutput {
		if err := tui.Run(sess, network); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if _, err := sess.RecoverSecret(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("secret recovered", "elapsed", time.Since(start))

	acct, err := sess.Account(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	address, err := acct.Address()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	words, err := sess.Mnemonic()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		out := struct {
			Network string `json:"network"`
			Address string `json:"address"`
			Words   int    `json:"mnemonic_words"`
		}{string(network), address, len(strings.Fields(words))}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Secret recovered (%d-word mnemonic)\n", len(strings.Fields(words)))
	fmt.Printf("Account 0: %s\n", address)
}

func runDerive(cmd *cobra.Command, args []string) {
	account, _ := cmd.Flags().GetUint32("account")
	showPrivate, _ := cmd.Flags().GetBool("show-private")

	mnemonic, err := promptSecret("Mnemonic: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	entropy, err := hdkeys.EntropyFromMnemonic(strings.TrimSpace(mnemonic))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	acct, err := hdkeys.DeriveAccount(entropy, account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	address, err := acct.Address()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		out := struct {
			Account    uint32 `json:"account"`
			Address    string `json:"address"`
			PublicKey  string `json:"public_key"`
			PrivateKey string `json:"private_key,omitempty"`
		}{
			Account:   account,
			Address:   address,
			PublicKey: hex.EncodeToString(acct.PublicKeyBytes()),
		}
		if showPrivate {
			out.PrivateKey = hex.EncodeToString(acct.PrivateKeyBytes())
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Account:     %d\n", account)
	fmt.Printf("Address:     %s\n", address)
	fmt.Printf("Public key:  %s\n", hex.EncodeToString(acct.PublicKeyBytes()))
	if showPrivate {
		fmt.Printf("Private key: %s\n", hex.EncodeToString(acct.PrivateKeyBytes()))
	}
}

func runExport(cmd *cobra.Command, args []string) {
	account, _ := cmd.Flags().GetUint32("account")
	out, _ := cmd.Flags().GetString("out")
	light, _ := cmd.Flags().GetBool("light")

	mnemonic, err := promptSecret("Mnemonic: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	entropy, err := hdkeys.EntropyFromMnemonic(strings.TrimSpace(mnemonic))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	acct, err := hdkeys.DeriveAccount(entropy, account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	password, err := promptSecret("Keystore password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	confirm, err := promptSecret("Repeat password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if password != confirm {
		fmt.Fprintln(os.Stderr, "Error: passwords do not match")
		os.Exit(1)
	}

	params := keystore.StandardParams
	if light {
		params = keystore.LightParams
	}

	ks, err := keystore.Encrypt(acct, password, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if out == "" {
		address, err := acct.Address()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		out = filepath.Join(".", keystore.Filename(address))
	}

	if err := keystore.Save(ks, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Keystore written to %s\n", out)
}

func runNetworksList(cmd *cobra.Command, args []string) {
	networks := chains.ListProviderNetworks()

	if jsonOutput {
		type networkJSON struct {
			Network string `json:"network"`
			Chain   string `json:"chain"`
			ChainID string `json:"chain_id"`
			RPC     string `json:"rpc_endpoint"`
		}

		out := make([]networkJSON, len(networks))
		for i, n := range networks {
			cfg, _ := chains.ChainConfigFor(n)
			out[i] = networkJSON{
				Network: string(n),
				Chain:   cfg.DisplayName,
				ChainID: cfg.ChainID,
				RPC:     cfg.RPCEndpoint,
			}
		}

		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println("Supported Provider Networks:")
	fmt.Println()
	fmt.Printf("%-18s %-22s %-10s %s\n", "NETWORK", "CHAIN", "CHAIN ID", "RPC")
	fmt.Println(strings.Repeat("-", 80))
	for _, n := range networks {
		cfg, _ := chains.ChainConfigFor(n)
		fmt.Printf("%-18s %-22s %-10s %s\n", n, cfg.DisplayName, cfg.ChainID, cfg.RPCEndpoint)
	}
}

func runForget(cmd *cobra.Command, args []string) {
	apiKey, _ := cmd.Flags().GetString("api-key")
	secretFile, _ := cmd.Flags().GetString("secret-file")
	yes, _ := cmd.Flags().GetBool("yes")

	if !yes {
		fmt.Print("Forget the recovered secret and delete the devnet entropy file? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return
		}
	}

	client := &provider.Devnet{Path: secretFile}
	sess := session.New(func(session.Config) (session.AuthClient, error) {
		return client, nil
	})
	if err := sess.Initialize(session.Config{APIKey: apiKey}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sess.ForgetSecret(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := client.RemoveSecretFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Secret forgotten.")
}

// promptSecret reads a line from the terminal without echoing it.
func promptSecret(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}
