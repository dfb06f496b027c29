package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rabbitresearch/satirebot/internal/types"
)

// LoadAccounts reads the account list from a line-oriented file.
// Format: identifier[,model_choice[,instruction_choice]]
// Blank lines and lines starting with # are skipped, as are lines with
// an empty identifier. Missing fields default to "default".
func LoadAccounts(path string) ([]types.AccountConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open account list: %w", err)
	}
	defer f.Close()

	var accounts []types.AccountConfig

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		identifier := strings.TrimSpace(parts[0])
		if identifier == "" {
			continue
		}

		account := types.AccountConfig{
			Identifier:  identifier,
			Model:       "default",
			Instruction: "default",
		}
		if len(parts) >= 2 && strings.TrimSpace(parts[1]) != "" {
			account.Model = strings.TrimSpace(parts[1])
		}
		if len(parts) >= 3 && strings.TrimSpace(parts[2]) != "" {
			account.Instruction = strings.TrimSpace(parts[2])
		}

		accounts = append(accounts, account)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read account list: %w", err)
	}

	return accounts, nil
}
