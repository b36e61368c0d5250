package commands

import (
	"fmt"
	"os"
	"path/filepath"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/spf13/cobra"
)

func newKeygenCommand() *cobra.Command {
	var (
		method string
		outDir string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Args:  cobra.NoArgs,
		Short: "Generate a PEM encoded signing key pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := auth.ParseSigningMethod(method)
			if err != nil {
				return err
			}

			privPath, pubPath, err := writeKeyPair(m, outDir, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "private key: %s\npublic key: %s\n", privPath, pubPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", string(auth.MethodRS256), "signing method, RS256 or EdDSA")
	cmd.Flags().StringVar(&outDir, "out", "keys", "output directory")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing keys")

	return cmd
}

func writeKeyPair(method auth.SigningMethod, dir string, force bool) (string, string, error) {
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	if !force {
		for _, p := range []string{privPath, pubPath} {
			if _, err := os.Stat(p); err == nil {
				return "", "", fmt.Errorf("%s already exists, use --force to overwrite", p)
			}
		}
	}

	priv, pub, err := auth.GenerateKeyPair(method)
	if err != nil {
		return "", "", err
	}
	privPEM, pubPEM, err := auth.EncodeKeyPairPEM(priv, pub)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		return "", "", err
	}
	return privPath, pubPath, nil
}
