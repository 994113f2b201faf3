// internal/app/keys_command.go
package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/keyring"
	"github.com/rovshanmuradov/solana-wallet/internal/wallet"
)

func (s *runtimeState) newKeysCommand() *cobra.Command {
	root := &cobra.Command{Use: "keys", Short: "Manage the encrypted keyring"}

	var generate bool
	add := &cobra.Command{
		Use:   "add",
		Short: "Import a base58 secret key (or generate one)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := s.passphrase()
			if err != nil {
				return err
			}
			var secret string
			if generate {
				w, err := wallet.Generate()
				if err != nil {
					return err
				}
				secret = w.ExportBase58()
			} else {
				secret, err = s.readSecret("Secret key (base58): ")
				if err != nil {
					return err
				}
				if secret == "" {
					return walleterr.Validation("keys.add", "secret key is required")
				}
			}
			id, err := s.openKeyring(pass).Save(secret)
			if err != nil {
				return walleterr.Wrap(walleterr.KindValidation, "keys.add", "save key", err)
			}
			fmt.Fprintf(s.out(), "%d\t%s\n", id.Index, id.PublicKey)
			return nil
		},
	}
	add.Flags().BoolVar(&generate, "generate", false, "Generate a new key instead of reading one")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored public keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := s.passphrase()
			if err != nil {
				return err
			}
			ids, err := s.openKeyring(pass).List()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(s.out(), "Keyring is empty")
				return nil
			}
			tw := tabwriter.NewWriter(s.out(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tPUBLIC KEY\tADDED")
			for _, id := range ids {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", id.Index, id.PublicKey, id.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the keyring file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.confirm("Delete all stored keys?"); err != nil {
				return err
			}
			if err := s.openKeyring(nil).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(s.out(), "Keyring cleared")
			return nil
		},
	}
	clearCmd.Flags().BoolVarP(&s.flags.Yes, "yes", "y", false, "Do not ask for confirmation")

	root.AddCommand(add, list, clearCmd)
	return root
}

func (s *runtimeState) openKeyring(passphrase []byte) *keyring.FileKeyring {
	return keyring.NewFileKeyring(s.cfg.Keyring.Path, passphrase, s.zlog())
}

// signer открывает ключ --key-index.
func (s *runtimeState) signer() (*wallet.Wallet, error) {
	pass, err := s.passphrase()
	if err != nil {
		return nil, err
	}
	secret, err := s.openKeyring(pass).Load(s.flags.KeyIndex)
	if err != nil {
		return nil, err
	}
	return wallet.NewWallet(secret)
}

// account возвращает адрес из флага или из хранилища ключей.
func (s *runtimeState) account(address string) (solana.PublicKey, error) {
	if address != "" {
		pk, err := solana.PublicKeyFromBase58(address)
		if err != nil {
			return solana.PublicKey{}, walleterr.Wrap(walleterr.KindValidation, "account", "invalid address", err)
		}
		return pk, nil
	}
	pass, err := s.passphrase()
	if err != nil {
		return solana.PublicKey{}, err
	}
	ids, err := s.openKeyring(pass).List()
	if err != nil {
		return solana.PublicKey{}, err
	}
	if s.flags.KeyIndex < 0 || s.flags.KeyIndex >= len(ids) {
		return solana.PublicKey{}, fmt.Errorf("%w: index %d", keyring.ErrNotFound, s.flags.KeyIndex)
	}
	return solana.MustPublicKeyFromBase58(ids[s.flags.KeyIndex].PublicKey), nil
}
