package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jmerrifield20/starnotary/internal/wallet"
	"github.com/jmerrifield20/starnotary/pkg/client"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

var (
	notaryURL  string
	cfgFile    string
	jsonOutput bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "starctl",
	Short: "Star notary CLI",
	Long: `starctl is the command-line interface for the star notary.

It requests ownership challenges, signs them with a local wallet key,
submits star claims and inspects the notary's chain.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.starctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("starctl")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if notaryURL == "" {
			notaryURL = viper.GetString("notary_url")
		}
		if notaryURL == "" {
			notaryURL = "http://localhost:8000"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.starctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&notaryURL, "notary", "", "Notary base URL (default http://localhost:8000)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print raw JSON instead of formatted output")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(starsCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() (*client.Client, error) {
	opts := []client.Option{}
	if secret := viper.GetString("admin_secret"); secret != "" {
		opts = append(opts, client.WithAdminSecret(secret))
	}
	return client.New(notaryURL, opts...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── status ───────────────────────────────────────────────────────────────────

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the chain height and tip hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ov, err := c.Overview(cmd.Context())
		if err != nil {
			return fmt.Errorf("chain overview: %w", err)
		}
		if jsonOutput {
			return printJSON(ov)
		}
		pterm.Info.Printfln("notary %s", notaryURL)
		return pterm.DefaultTable.WithData(pterm.TableData{
			{"Height", strconv.FormatInt(ov.Height, 10)},
			{"Tip", ov.Tip},
		}).Render()
	},
}

// ── validate ─────────────────────────────────────────────────────────────────

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Ask the notary to validate its whole chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := c.Validate(cmd.Context())
		if err != nil {
			return fmt.Errorf("validate chain: %w", err)
		}
		if jsonOutput {
			return printJSON(res)
		}
		if res.Valid {
			pterm.Success.Println("chain is valid")
			return nil
		}

		data := pterm.TableData{{"Height", "Hash", "Reasons"}}
		for _, v := range res.Violations {
			data = append(data, []string{
				strconv.FormatInt(v.Block.Height, 10),
				v.Block.Hash,
				fmt.Sprint(v.Reasons),
			})
		}
		pterm.Error.Printfln("chain has %d invalid block(s)", len(res.Violations))
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
		return errors.New("chain validation failed")
	},
}

// ── block ────────────────────────────────────────────────────────────────────

var (
	blockHeight int64
	blockHash   string
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Look up a block by height or hash",
	Example: `  starctl block --height 1
  starctl block --hash 3f1c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		byHeight := cmd.Flags().Changed("height")
		if byHeight == (blockHash != "") {
			return errors.New("exactly one of --height or --hash is required")
		}
		c, err := newClient()
		if err != nil {
			return err
		}

		var b *client.Block
		if byHeight {
			b, err = c.BlockByHeight(cmd.Context(), blockHeight)
		} else {
			b, err = c.BlockByHash(cmd.Context(), blockHash)
		}
		if err != nil {
			return fmt.Errorf("get block: %w", err)
		}
		if b == nil {
			return fmt.Errorf("no block at height %d", blockHeight)
		}
		if jsonOutput {
			return printJSON(b)
		}
		return renderBlock(b)
	},
}

func init() {
	blockCmd.Flags().Int64Var(&blockHeight, "height", 0, "Block height")
	blockCmd.Flags().StringVar(&blockHash, "hash", "", "Block hash")
}

func renderBlock(b *client.Block) error {
	data := pterm.TableData{
		{"Height", strconv.FormatInt(b.Height, 10)},
		{"Time", time.Unix(b.Time, 0).UTC().Format(time.RFC3339)},
		{"Previous", b.PreviousHash},
		{"Hash", b.Hash},
	}
	if b.BodyDecoded != nil {
		s := b.BodyDecoded.Star
		data = append(data,
			[]string{"Owner", b.BodyDecoded.Owner},
			[]string{"RA", s.RA},
			[]string{"Dec", s.Dec},
			[]string{"Story", s.Story},
		)
	} else {
		data = append(data, []string{"Body", b.Body})
	}
	return pterm.DefaultTable.WithData(data).Render()
}

// ── challenge ────────────────────────────────────────────────────────────────

var challengeCmd = &cobra.Command{
	Use:   "challenge <address>",
	Short: "Request the message an address must sign to claim a star",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ch, err := c.RequestChallenge(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("request challenge: %w", err)
		}
		if jsonOutput {
			return printJSON(ch)
		}
		pterm.DefaultBox.WithTitle("sign this message").Println(ch.Message)
		pterm.Info.Printfln("expires at %s (%ds window)", ch.ExpiresAt.Format(time.RFC3339), ch.ValidationWindow)
		return nil
	},
}

// ── sign ─────────────────────────────────────────────────────────────────────

var (
	signWIF     string
	signNetwork string
)

var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with a WIF private key (local, nothing is sent)",
	Long: `sign produces a Bitcoin signed-message signature for a challenge,
the same format wallets emit for "Sign Message". It is meant for testing
the claim flow without a full wallet.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wif := signWIF
		if wif == "" {
			wif = viper.GetString("wif")
		}
		if wif == "" {
			return errors.New("--wif (or STARCTL_WIF) is required")
		}
		params, err := wallet.ParamsForNetwork(signNetwork)
		if err != nil {
			return err
		}
		address, sig, err := wallet.SignMessageWIF(wif, args[0], params)
		if err != nil {
			return fmt.Errorf("sign message: %w", err)
		}
		if jsonOutput {
			return printJSON(map[string]string{"address": address, "message": args[0], "signature": sig})
		}
		return pterm.DefaultTable.WithData(pterm.TableData{
			{"Address", address},
			{"Message", args[0]},
			{"Signature", sig},
		}).Render()
	},
}

func init() {
	signCmd.Flags().StringVar(&signWIF, "wif", "", "WIF-encoded private key")
	signCmd.Flags().StringVar(&signNetwork, "network", "mainnet", "Bitcoin network: mainnet, testnet3, regtest or signet")
}

// ── claim ────────────────────────────────────────────────────────────────────

var (
	claimAddress   string
	claimMessage   string
	claimSignature string
	claimStar      client.Star
)

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Submit a signed challenge to register a star",
	Example: `  starctl claim --address 1A1z... --message "1A1z...:1700000000:starRegistry" \
      --signature H3x... --ra "16h 29m 1.0s" --dec "-26° 29' 24.9" --story "Found it"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		b, err := c.SubmitClaim(cmd.Context(), client.ClaimRequest{
			Address:   claimAddress,
			Message:   claimMessage,
			Signature: claimSignature,
			Star:      claimStar,
		})
		switch {
		case errors.Is(err, client.ErrChallengeExpired):
			return errors.New("challenge expired: request a new one with `starctl challenge`")
		case errors.Is(err, client.ErrSignatureInvalid):
			return errors.New("signature does not verify for this address and message")
		case err != nil:
			return fmt.Errorf("submit claim: %w", err)
		}
		if jsonOutput {
			return printJSON(b)
		}
		pterm.Success.Printfln("star registered at height %d", b.Height)
		return renderBlock(b)
	},
}

func init() {
	claimCmd.Flags().StringVar(&claimAddress, "address", "", "Wallet address making the claim")
	claimCmd.Flags().StringVar(&claimMessage, "message", "", "Challenge message returned by `starctl challenge`")
	claimCmd.Flags().StringVar(&claimSignature, "signature", "", "Base64 message signature")
	claimCmd.Flags().StringVar(&claimStar.RA, "ra", "", "Right ascension")
	claimCmd.Flags().StringVar(&claimStar.Dec, "dec", "", "Declination")
	claimCmd.Flags().StringVar(&claimStar.Mag, "mag", "", "Magnitude")
	claimCmd.Flags().StringVar(&claimStar.Cen, "cen", "", "Constellation")
	claimCmd.Flags().StringVar(&claimStar.Story, "story", "", "Star story (ASCII, up to 500 bytes)")

	for _, f := range []string{"address", "message", "signature", "ra", "dec", "story"} {
		_ = claimCmd.MarkFlagRequired(f)
	}
}

// ── stars ────────────────────────────────────────────────────────────────────

var starsCmd = &cobra.Command{
	Use:   "stars <address>",
	Short: "List the stars registered to an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		stars, err := c.StarsByOwner(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("list stars: %w", err)
		}
		if jsonOutput {
			return printJSON(stars)
		}
		if len(stars) == 0 {
			pterm.Info.Printfln("no stars registered to %s", args[0])
			return nil
		}
		data := pterm.TableData{{"RA", "Dec", "Mag", "Cen", "Story"}}
		for _, s := range stars {
			data = append(data, []string{s.RA, s.Dec, s.Mag, s.Cen, s.Story})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

// ── append ───────────────────────────────────────────────────────────────────

var appendCmd = &cobra.Command{
	Use:   "append <json>",
	Short: "Append an arbitrary JSON payload (requires admin_secret)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data any
		if err := json.Unmarshal([]byte(args[0]), &data); err != nil {
			return fmt.Errorf("payload is not valid JSON: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		b, err := c.AppendData(ctx, data)
		if errors.Is(err, client.ErrAdminUnauthorized) {
			return errors.New("admin secret rejected: set admin_secret in ~/.starctl/config.yaml or STARCTL_ADMIN_SECRET")
		}
		if err != nil {
			return fmt.Errorf("append block: %w", err)
		}
		if jsonOutput {
			return printJSON(b)
		}
		pterm.Success.Printfln("block appended at height %d", b.Height)
		return renderBlock(b)
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the starctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("starctl %s\n", version)
	},
}
