// Package wallet holds the signing identities the scheduler drives.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v3"
)

// Wallet is an EVM signing identity. The private key never leaves this
// package; callers read the address and ask the wallet to sign.
type Wallet struct {
	name       string
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// New creates a wallet from a hex-encoded private key.
func New(name, hexKey string) (*Wallet, error) {
	if name == "" {
		return nil, fmt.Errorf("wallet name cannot be empty")
	}
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key for wallet %s: %w", name, err)
	}
	return &Wallet{
		name:       name,
		privateKey: pk,
		address:    crypto.PubkeyToAddress(pk.PublicKey),
	}, nil
}

// Name returns the configured wallet name.
func (w *Wallet) Name() string { return w.name }

// Address returns the wallet address.
func (w *Wallet) Address() common.Address { return w.address }

// SignTx signs a transaction with the wallet key using EIP-155.
func (w *Wallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

func (w *Wallet) String() string {
	return fmt.Sprintf("%s (%s)", w.name, w.address.Hex())
}

// walletsFile is the on-disk wallet list. A wallet entry carries either the
// key inline or the name of an environment variable holding it.
type walletsFile struct {
	Wallets []struct {
		Name          string `yaml:"name"`
		PrivateKey    string `yaml:"private_key"`
		PrivateKeyEnv string `yaml:"private_key_env"`
	} `yaml:"wallets"`
}

// LoadWallets loads wallets from a YAML file, preserving file order.
// Entries with a missing or malformed key are skipped.
func LoadWallets(path string) ([]*Wallet, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallets file: %w", err)
	}

	var file walletsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse wallets file: %w", err)
	}
	if len(file.Wallets) == 0 {
		return nil, fmt.Errorf("no wallets found in %s", cleanPath)
	}

	wallets := make([]*Wallet, 0, len(file.Wallets))
	seen := make(map[string]struct{}, len(file.Wallets))
	for _, entry := range file.Wallets {
		key := entry.PrivateKey
		if key == "" && entry.PrivateKeyEnv != "" {
			key = os.Getenv(entry.PrivateKeyEnv)
		}
		if entry.Name == "" || key == "" {
			continue
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("duplicate wallet name: %s", entry.Name)
		}
		w, err := New(entry.Name, key)
		if err != nil {
			continue
		}
		seen[entry.Name] = struct{}{}
		wallets = append(wallets, w)
	}

	if len(wallets) == 0 {
		return nil, fmt.Errorf("no valid wallets loaded from %s", cleanPath)
	}
	return wallets, nil
}

// Provider exposes lookup by wallet name.
type Provider struct {
	byName map[string]*Wallet
}

// NewProvider indexes the given wallets by name.
func NewProvider(wallets []*Wallet) *Provider {
	m := make(map[string]*Wallet, len(wallets))
	for _, w := range wallets {
		m[w.Name()] = w
	}
	return &Provider{byName: m}
}

// Get returns the named wallet, or nil if unknown.
func (p *Provider) Get(name string) *Wallet {
	return p.byName[name]
}

// Select returns the named wallets in the order the names are given. An
// empty name list selects every wallet; an unknown name is a configuration
// error.
func Select(wallets []*Wallet, names []string) ([]*Wallet, error) {
	if len(names) == 0 {
		return wallets, nil
	}
	p := NewProvider(wallets)
	selected := make([]*Wallet, 0, len(names))
	for _, name := range names {
		w := p.Get(name)
		if w == nil {
			return nil, fmt.Errorf("unknown wallet selected: %s", name)
		}
		selected = append(selected, w)
	}
	return selected, nil
}
