package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var keygenSize int

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a SECRET_KEY for session cookies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := generateKey(keygenSize)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "SECRET_KEY=%s\n", key)
		return nil
	},
}

func init() {
	keygenCmd.Flags().IntVar(&keygenSize, "bytes", 32, "key size in bytes (16, 24 or 32)")
}

// generateKey returns size random bytes, hex encoded
func generateKey(size int) (string, error) {
	switch size {
	case 16, 24, 32:
	default:
		return "", fmt.Errorf("key size must be 16, 24 or 32 bytes, got %d", size)
	}

	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(key), nil
}
