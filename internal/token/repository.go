package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bebbyilham/monad-ambient-cli/internal/chain"
)

// Resolver looks a token up on-chain.
type Resolver interface {
	Resolve(ctx context.Context, addr common.Address) (*Token, error)
}

// chainResolver reads symbol and decimals from the token contract itself.
type chainResolver struct {
	client chain.Client
}

// NewChainResolver returns a resolver backed by the given chain client.
func NewChainResolver(client chain.Client) Resolver {
	return &chainResolver{client: client}
}

func (cr *chainResolver) Resolve(ctx context.Context, addr common.Address) (*Token, error) {
	symbol, err := resolveSymbol(ctx, cr.client, addr)
	if err != nil {
		return nil, err
	}
	decimals, err := resolveDecimals(ctx, cr.client, addr)
	if err != nil {
		return nil, err
	}
	return &Token{Symbol: symbol, Address: addr, Decimals: decimals}, nil
}

// Repository holds resolved tokens for the configured address list. It is
// owned by the caller and refreshed explicitly; there is no lazy population.
type Repository struct {
	mu        sync.RWMutex
	resolver  Resolver
	addresses []common.Address
	tokens    map[common.Address]Token
	logger    *zap.Logger
}

// NewRepository creates a repository for the given address list. Call
// Refresh before Get/List.
func NewRepository(resolver Resolver, addresses []common.Address, logger *zap.Logger) *Repository {
	return &Repository{
		resolver:  resolver,
		addresses: addresses,
		tokens:    make(map[common.Address]Token, len(addresses)),
		logger:    logger,
	}
}

// Refresh resolves every configured address, replacing the cached set.
// Resolution runs concurrently but the swap of the cached map is atomic.
func (r *Repository) Refresh(ctx context.Context) error {
	resolved := make([]Token, len(r.addresses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, addr := range r.addresses {
		g.Go(func() error {
			t, err := r.resolver.Resolve(gctx, addr)
			if err != nil {
				return fmt.Errorf("failed to resolve token %s: %w", addr.Hex(), err)
			}
			resolved[i] = *t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fresh := make(map[common.Address]Token, len(resolved))
	for _, t := range resolved {
		fresh[t.Address] = t
		r.logger.Debug("Resolved token",
			zap.String("symbol", t.Symbol),
			zap.String("address", t.Address.Hex()),
			zap.Uint8("decimals", t.Decimals))
	}

	r.mu.Lock()
	r.tokens = fresh
	r.mu.Unlock()

	r.logger.Info("Token repository refreshed", zap.Int("count", len(fresh)))
	return nil
}

// Get returns the resolved token for addr, if present.
func (r *Repository) Get(addr common.Address) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[addr]
	return t, ok
}

// List returns the resolved tokens in configuration order.
func (r *Repository) List() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Token, 0, len(r.addresses))
	for _, addr := range r.addresses {
		if t, ok := r.tokens[addr]; ok {
			out = append(out, t)
		}
	}
	return out
}
