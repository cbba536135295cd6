// Package nameservice reads the wallets folder and creates a name service
// lookup so long account addresses can be shown by wallet file name.
package nameservice

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/qbitcoin/qbitcoin/foundation/wallet"
)

// NameService maintains a map of account addresses for name lookup.
type NameService struct {
	accounts map[string]string
}

// New constructs a name service from the wallet files under the root folder.
// A missing folder just yields an empty service.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[string]string),
	}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return &ns, nil
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".json" {
			return nil
		}

		w, err := wallet.Load(fileName)
		if err != nil {
			return err
		}

		ns.accounts[w.Address()] = strings.TrimSuffix(path.Base(fileName), ".json")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified account address, or the address
// itself when no wallet file matches.
func (ns *NameService) Lookup(account string) string {
	name, exists := ns.accounts[account]
	if !exists {
		return account
	}
	return name
}

// Copy returns a copy of the map of names and account addresses.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.accounts))
	for account, name := range ns.accounts {
		cpy[account] = name
	}
	return cpy
}
