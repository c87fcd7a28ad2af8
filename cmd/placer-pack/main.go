// Command placer-pack builds and exports the on-disk pack format
// placer's coordinator consumes: create a signed/encrypted pack, derive a
// consumer keyring from a producer keyring, or generate a fresh producer
// keyring from scratch.
package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"placer.io/keyrings"
	"placer.io/pack"
	"placer.io/plog"
)

func main() {
	plog.Register(plog.NewDevLogger(os.Stderr))

	root := &cobra.Command{
		Use:   "placer-pack",
		Short: "Builder for placer packs",
	}
	root.AddCommand(createCmd(), exportCmd(), keygenCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func createCmd() *cobra.Command {
	var base, keyringPath, output string

	cmd := &cobra.Command{
		Use:   "create FILE...",
		Short: "Create a placer pack",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kr, err := keyrings.LoadProducer(keyringPath)
			if err != nil {
				plog.Error.Printf("error parsing %s: %v", keyringPath, err)
				os.Exit(1)
			}

			id := uuid.New()

			encryptor, err := kr.Encryption.GetByLabel(keyrings.DefaultKeyLabel, id[:])
			if err != nil {
				plog.Error.Printf("error initializing encryptor: %v", err)
				os.Exit(1)
			}
			signer, err := kr.Signing.Get(keyrings.DefaultKeyLabel)
			if err != nil {
				plog.Error.Printf("error initializing signer: %v", err)
				os.Exit(1)
			}

			p, err := pack.Create(id, base, args)
			if err != nil {
				plog.Error.Printf("error creating pack: %v", err)
				os.Exit(1)
			}

			sealed, err := p.EncryptAndSign(encryptor, signer)
			if err != nil {
				plog.Error.Printf("error encrypting/signing pack: %v", err)
				os.Exit(1)
			}

			if err := os.WriteFile(output, sealed, 0644); err != nil {
				plog.Error.Printf("error writing pack: %v", err)
				os.Exit(1)
			}

			plog.Info.Printf("created pack: %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&base, "base", "C", ".", "base directory for all files")
	cmd.Flags().StringVarP(&keyringPath, "config", "c", "placer-signing-keyring.toml", "path to signing keyring")
	cmd.Flags().StringVarP(&output, "file", "f", "", "path to output file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func exportCmd() *cobra.Command {
	var keyringPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "export [OUTPUT]",
		Short: "Export a keyring suitable for a placer verifier",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := "placer-verify-keyring.toml"
			if len(args) == 1 {
				output = args[0]
			}

			if _, err := os.Stat(output); err == nil && !force {
				plog.Error.Printf("%s: already exists (use -f to overwrite)", output)
				os.Exit(1)
			}

			kr, err := keyrings.LoadProducer(keyringPath)
			if err != nil {
				plog.Error.Printf("error parsing %s: %v", keyringPath, err)
				os.Exit(1)
			}

			if err := kr.ExportVerifyKeys(output); err != nil {
				plog.Error.Printf("error exporting verify keyring: %v", err)
				os.Exit(1)
			}

			plog.Info.Printf("saved verify keyring to: %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyringPath, "config", "c", "placer-signing-keyring.toml", "path to producer keyring")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite the output file if it exists")

	return cmd
}

func keygenCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "keygen [OUTPUT]",
		Short: "Generate a random keyring for producing packs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := "placer-signing-keyring.toml"
			if len(args) == 1 {
				output = args[0]
			}

			if _, err := os.Stat(output); err == nil && !force {
				plog.Error.Printf("%s: already exists (use -f to overwrite)", output)
				os.Exit(1)
			}

			if err := keyrings.GenerateRandom(output); err != nil {
				plog.Error.Printf("error generating keys: %v", err)
				os.Exit(1)
			}

			plog.Info.Printf("new secret keys saved to: %s", output)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite the output file if it exists")

	return cmd
}
