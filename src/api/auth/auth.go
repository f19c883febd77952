package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/stake-plus/crowdfund/src/api/apperr"
	"github.com/stake-plus/crowdfund/src/api/store"
)

var (
	ErrInvalidAddress    = apperr.InvalidArg("invalid wallet address")
	ErrNoChallenge       = apperr.NotFound("no nonce issued for this address")
	ErrSignatureMismatch = apperr.Unauthorized("signature verification failed")
)

// nonceSpace keeps the six-digit challenge format wallets already display.
var nonceSpace = big.NewInt(1_000_000)

func randomNonce() (string, error) {
	n, err := rand.Int(rand.Reader, nonceSpace)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64(), 10), nil
}

// Service runs the nonce challenge and signature login.
type Service struct {
	accounts store.Accounts
	tokens   *Issuer
	log      *zap.Logger
	now      func() time.Time
	newNonce func() (string, error)
}

func NewService(accounts store.Accounts, tokens *Issuer, log *zap.Logger) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		log:      log.Named("auth"),
		now:      time.Now,
		newNonce: randomNonce,
	}
}

// IssueNonce creates the account on first use and replaces its nonce, which
// invalidates any challenge handed out earlier.
func (s *Service) IssueNonce(ctx context.Context, address string) (string, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	nonce, err := s.newNonce()
	if err != nil {
		return "", apperr.Internal("failed to generate nonce", err)
	}
	if err := s.accounts.UpsertNonce(ctx, addr, nonce, s.now()); err != nil {
		return "", apperr.Internal("failed to store nonce", err)
	}
	return nonce, nil
}

// Verify checks the signature over the current challenge, rotates the nonce
// and returns a session token.
func (s *Service) Verify(ctx context.Context, address, signature string) (string, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	acc, err := s.accounts.GetAccount(ctx, addr)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoChallenge
	}
	if err != nil {
		return "", apperr.Internal("failed to load account", err)
	}

	if err := verifySignature(addr, signature, acc.Nonce); err != nil {
		s.log.Debug("signature rejected", zap.String("address", addr), zap.Error(err))
		return "", ErrSignatureMismatch
	}

	next, err := s.nextNonce(acc.Nonce)
	if err != nil {
		return "", apperr.Internal("failed to generate nonce", err)
	}
	err = s.accounts.RotateNonce(ctx, addr, acc.Nonce, next, s.now())
	switch {
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrNotFound):
		// Another request replaced the nonce between load and rotate.
		s.log.Info("nonce changed during verification", zap.String("address", addr))
		return "", ErrSignatureMismatch
	case err != nil:
		return "", apperr.Internal("failed to rotate nonce", err)
	}

	token, err := s.tokens.Issue(addr)
	if err != nil {
		return "", apperr.Internal("failed to issue token", err)
	}
	s.log.Info("wallet verified", zap.String("address", addr))
	return token, nil
}

func (s *Service) nextNonce(prev string) (string, error) {
	for {
		n, err := s.newNonce()
		if err != nil || n != prev {
			return n, err
		}
	}
}
