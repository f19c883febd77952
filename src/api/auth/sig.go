package auth

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

const challengeTemplate = "I am signing my one-time nonce: %s"

// ChallengeMessage is the exact text the wallet signs for a given nonce.
func ChallengeMessage(nonce string) string {
	return fmt.Sprintf(challengeTemplate, nonce)
}

// NormalizeAddress returns the EIP-55 checksum form of a 0x-prefixed hex address.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return "", ErrInvalidAddress
	}
	if !common.IsHexAddress(addr) {
		return "", ErrInvalidAddress
	}
	return common.HexToAddress(addr).Hex(), nil
}

func strip0x(s string) string {
	if len(s) > 1 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

// personalHash is keccak256 over the personal_sign envelope.
func personalHash(msg string) []byte {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return h.Sum(nil)
}

// recoverSigner returns the address whose key produced sigHex over msg.
func recoverSigner(msg, sigHex string) (common.Address, error) {
	sig, err := hex.DecodeString(strip0x(strings.TrimSpace(sigHex)))
	if err != nil {
		return common.Address{}, fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length: %d", len(sig))
	}
	// Wallets emit v as 27/28; SigToPub wants 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id: %d", sig[crypto.RecoveryIDOffset])
	}

	pub, err := crypto.SigToPub(personalHash(msg), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func verifySignature(addr, sigHex, nonce string) error {
	signer, err := recoverSigner(ChallengeMessage(nonce), sigHex)
	if err != nil {
		return err
	}
	if !strings.EqualFold(signer.Hex(), addr) {
		return fmt.Errorf("signer %s does not match %s", signer.Hex(), addr)
	}
	return nil
}
