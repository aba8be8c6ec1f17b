package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/config"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/signature"
)

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize TOKEN...",
		Short: "Show how provider status tokens are classified",
		Long: `Print the bucket and order status each raw provider token maps to under
the active catalog (CATALOG_PATH or --catalog).

Example:
  api normalize APPROVED " pending " ABONADO`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("catalog")
			catalog, err := config.LoadCatalog(path)
			if err != nil {
				return err
			}
			normalizer, err := catalog.Normalizer()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, raw := range args {
				n := normalizer.Normalize(raw)
				target := "-"
				if s, ok := n.Target(); ok {
					target = string(s)
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", n.Token, n.Bucket, target)
			}
			return nil
		},
	}

	cmd.Flags().String("catalog", os.Getenv("CATALOG_PATH"), "catalog file with extra status tokens")

	return cmd
}

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign key=value...",
		Short: "Compute a request signature for support debugging",
		Long: `Print the HMAC-SHA256 signature of the given fields, as NetGet computes it.
With --scheme nonce-seed, print a fresh GetNet tranKey, nonce and seed instead.

Example:
  api sign --secret s3cr3t merchant_id=M1 amount=275.00 order_id=ord-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			scheme, _ := cmd.Flags().GetString("scheme")
			out := cmd.OutOrStdout()

			switch signature.Scheme(scheme) {
			case signature.SchemeHMAC:
				payload, err := parseFields(args)
				if err != nil {
					return err
				}
				sig, err := signature.SignHMAC(payload, secret)
				if err != nil {
					return err
				}
				canonical, _ := signature.Canonical(payload)
				fmt.Fprintf(out, "canonical: %s\nsignature: %s\n", canonical, sig)
			case signature.SchemeNonceSeed:
				key, err := signature.NewEngine().TransactionKey(secret)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "tranKey: %s\nnonce: %s\nseed: %s\n", key.TranKey, key.Nonce, key.Seed)
			default:
				return fmt.Errorf("unknown scheme %q (want %s or %s)", scheme, signature.SchemeHMAC, signature.SchemeNonceSeed)
			}
			return nil
		},
	}

	cmd.Flags().String("secret", "", "shared secret")
	cmd.Flags().String("scheme", string(signature.SchemeHMAC), "signing scheme: hmac-sha256 or nonce-seed")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func parseFields(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one key=value field is required")
	}
	payload := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("field %q is not key=value", arg)
		}
		payload[k] = v
	}
	return payload, nil
}
