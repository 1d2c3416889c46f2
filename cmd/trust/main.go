package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/quantumtrust/trustcore/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL string
	cfgFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trust",
	Short: "Trust Core CLI",
	Long: `trust is the command-line interface for the Trust Core.

It manages decentralized identifiers, verifiable credentials, integrity
checked documents, and predicate proofs against a trustd server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.trust")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.trust/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "trustd server URL (default http://localhost:8080)")

	rootCmd.AddCommand(didCmd)
	rootCmd.AddCommand(credCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(proveCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() (*client.Client, error) {
	return client.New(serverURL)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── did ──────────────────────────────────────────────────────────────────────

var didCmd = &cobra.Command{
	Use:   "did",
	Short: "Manage decentralized identifiers",
}

var didCreatePrincipal string

var didCreateCmd = &cobra.Command{
	Use:   "create <method>",
	Short: "Create a DID via the given method (chain, cred, channel)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rec, err := c.CreateDID(context.Background(), didCreatePrincipal, args[0])
		if err != nil {
			return fmt.Errorf("create did: %w", err)
		}
		fmt.Printf("✓ DID created\n\n")
		fmt.Printf("  DID:    %s\n", rec.DID)
		fmt.Printf("  Status: %s\n", rec.Status)
		fmt.Printf("  Source: %s\n", rec.Source)
		return nil
	},
}

var didResolveCmd = &cobra.Command{
	Use:   "resolve <did>",
	Short: "Resolve a DID to its record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rec, err := c.ResolveDID(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("resolve did: %w", err)
		}
		return printJSON(rec)
	},
}

var didRevokeCmd = &cobra.Command{
	Use:   "revoke <did>",
	Short: "Revoke a DID (irreversible)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rec, err := c.RevokeDID(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("revoke did: %w", err)
		}
		fmt.Printf("✓ DID revoked: %s (status %s)\n", rec.DID, rec.Status)
		return nil
	},
}

func init() {
	didCreateCmd.Flags().StringVar(&didCreatePrincipal, "principal", "", "Principal UUID the DID belongs to (required)")
	_ = didCreateCmd.MarkFlagRequired("principal")

	didCmd.AddCommand(didCreateCmd)
	didCmd.AddCommand(didResolveCmd)
	didCmd.AddCommand(didRevokeCmd)
}

// ── cred ─────────────────────────────────────────────────────────────────────

var credCmd = &cobra.Command{
	Use:   "cred",
	Short: "Manage verifiable credentials",
}

var (
	credIssuer  string
	credHolder  string
	credType    string
	credClaims  string
	credExpires string
)

var credIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a verifiable credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		var claims map[string]any
		if err := json.Unmarshal([]byte(credClaims), &claims); err != nil {
			return fmt.Errorf("parse --claims JSON: %w", err)
		}

		req := client.IssueCredentialRequest{
			Issuer: credIssuer,
			Holder: credHolder,
			Type:   credType,
			Claims: claims,
		}
		if credExpires != "" {
			exp, err := time.Parse(time.RFC3339, credExpires)
			if err != nil {
				return fmt.Errorf("parse --expires: %w", err)
			}
			req.ExpiresAt = &exp
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		cred, err := c.IssueCredential(context.Background(), req)
		if err != nil {
			return fmt.Errorf("issue credential: %w", err)
		}
		fmt.Printf("✓ Credential issued\n\n")
		fmt.Printf("  ID:     %s\n", cred.ID)
		fmt.Printf("  Issuer: %s\n", cred.Issuer)
		fmt.Printf("  Holder: %s\n", cred.Holder)
		return nil
	},
}

var credVerifyCmd = &cobra.Command{
	Use:   "verify <credential-id>",
	Short: "Verify a credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		valid, err := c.VerifyCredential(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("verify credential: %w", err)
		}
		if valid {
			fmt.Println("✓ credential is valid")
		} else {
			fmt.Println("✗ credential is NOT valid")
		}
		return nil
	},
}

var credRevokeCmd = &cobra.Command{
	Use:   "revoke <credential-id>",
	Short: "Revoke a credential (irreversible)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		cred, err := c.RevokeCredential(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("revoke credential: %w", err)
		}
		fmt.Printf("✓ Credential revoked: %s (status %s)\n", cred.ID, cred.Status)
		return nil
	},
}

var credJWTCmd = &cobra.Command{
	Use:   "jwt <credential-id>",
	Short: "Export a credential as a compact signed JWT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		token, err := c.ExportCredentialJWT(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("export credential jwt: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	credIssueCmd.Flags().StringVar(&credIssuer, "issuer", "", "Issuer DID (required)")
	credIssueCmd.Flags().StringVar(&credHolder, "holder", "", "Holder DID (required)")
	credIssueCmd.Flags().StringVar(&credType, "type", "IdentityCredential", "Credential type tag")
	credIssueCmd.Flags().StringVar(&credClaims, "claims", "{}", "Claims as a JSON object")
	credIssueCmd.Flags().StringVar(&credExpires, "expires", "", "Expiration (RFC3339); empty for none")
	_ = credIssueCmd.MarkFlagRequired("issuer")
	_ = credIssueCmd.MarkFlagRequired("holder")

	credCmd.AddCommand(credIssueCmd)
	credCmd.AddCommand(credVerifyCmd)
	credCmd.AddCommand(credRevokeCmd)
	credCmd.AddCommand(credJWTCmd)
}

// ── doc ──────────────────────────────────────────────────────────────────────

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage integrity-checked documents",
}

var (
	docOwner string
	docDID   string
	docType  string
)

var docUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document into the integrity pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		doc, err := c.UploadDocument(context.Background(), client.UploadDocumentRequest{
			OwnerID: docOwner,
			DID:     docDID,
			Type:    docType,
			Content: content,
		})
		if err != nil {
			return fmt.Errorf("upload document: %w", err)
		}
		fmt.Printf("✓ Document uploaded\n\n")
		fmt.Printf("  ID:     %s\n", doc.ID)
		fmt.Printf("  Hash:   %s\n", doc.ContentHash)
		fmt.Printf("  Status: %s\n", doc.Status)
		if doc.AnchorTxID != "" {
			fmt.Printf("  Anchor: %s (%s)\n", doc.AnchorTxID, doc.AnchorSource)
		}
		fmt.Println("\nNext: trust doc verify <id> to run the verification pipeline")
		return nil
	},
}

var docVerifyCmd = &cobra.Command{
	Use:   "verify <document-id>",
	Short: "Run the verification pipeline on a pending document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		doc, err := c.VerifyDocument(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("verify document: %w", err)
		}
		fmt.Printf("✓ Document %s: %s\n", doc.ID, doc.Status)
		if doc.VerifyNote != "" {
			fmt.Printf("  Note: %s\n", doc.VerifyNote)
		}
		return nil
	},
}

func init() {
	docUploadCmd.Flags().StringVar(&docOwner, "owner", "", "Owning principal UUID (required)")
	docUploadCmd.Flags().StringVar(&docDID, "did", "", "DID the document is bound to (required)")
	docUploadCmd.Flags().StringVar(&docType, "type", "document", "Document type (e.g. passport)")
	_ = docUploadCmd.MarkFlagRequired("owner")
	_ = docUploadCmd.MarkFlagRequired("did")

	docCmd.AddCommand(docUploadCmd)
	docCmd.AddCommand(docVerifyCmd)
}

// ── prove ────────────────────────────────────────────────────────────────────

var (
	proveKind      string
	proveMinAge    int
	proveMinIncome int64
	proveRegion    string
	proveRefDate   string
)

var proveCmd = &cobra.Command{
	Use:   "prove <secret>",
	Short: "Generate a predicate proof over a secret attribute",
	Long: `Prove evaluates a predicate against a secret attribute and returns a
one-way commitment plus the satisfaction result. The secret never appears
in the output.

  trust prove 1990-06-15 --kind age --min-age 18
  trust prove 52000 --kind income --min-income 30000
  trust prove "12 Baker Street, London" --kind residency --region london`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := client.ProofParams{
			Kind:          proveKind,
			MinimumAge:    proveMinAge,
			MinimumIncome: proveMinIncome,
			Region:        proveRegion,
		}
		if proveRefDate != "" {
			ref, err := time.Parse("2006-01-02", proveRefDate)
			if err != nil {
				return fmt.Errorf("parse --reference-date: %w", err)
			}
			params.ReferenceDate = &ref
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.Prove(context.Background(), args[0], params)
		if err != nil {
			return fmt.Errorf("generate proof: %w", err)
		}
		return printJSON(p)
	},
}

func init() {
	proveCmd.Flags().StringVar(&proveKind, "kind", "", "Predicate kind: age, income, residency, credential-validity (required)")
	proveCmd.Flags().IntVar(&proveMinAge, "min-age", 0, "Minimum age in years (kind age)")
	proveCmd.Flags().Int64Var(&proveMinIncome, "min-income", 0, "Minimum income (kind income)")
	proveCmd.Flags().StringVar(&proveRegion, "region", "", "Target region (kind residency)")
	proveCmd.Flags().StringVar(&proveRefDate, "reference-date", "", "Reference date YYYY-MM-DD; empty for today")
	_ = proveCmd.MarkFlagRequired("kind")
}

// ── ledger ───────────────────────────────────────────────────────────────────

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the anchor chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := context.Background()

		overview, err := c.Ledger(ctx)
		if err != nil {
			return fmt.Errorf("ledger overview: %w", err)
		}
		valid, verr, err := c.VerifyLedger(ctx)
		if err != nil {
			return fmt.Errorf("ledger verify: %w", err)
		}

		fmt.Printf("Entries: %d\n", overview.Entries)
		fmt.Printf("Root:    %s\n", overview.Root)
		if valid {
			fmt.Println("Chain:   intact")
		} else {
			fmt.Printf("Chain:   BROKEN — %s\n", verr)
		}
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("trust %s\n", version)
	},
}
