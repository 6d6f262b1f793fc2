package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/quix/internal/storage"
)

// setStore allows tests to inject an archive.
func (c *PurgeCommand) setStore(s *storage.SQLiteStore) {
	c.store = s
}

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		fmt.Println("⚠ WARNING: This will permanently delete the whole quix archive.")
		fmt.Println("  - All recorded refresh cycles")
		fmt.Println("  - All archived entity counts")
		fmt.Println()
		fmt.Println("This action cannot be undone.")
		fmt.Println()
		fmt.Print(`Type "PURGE" to confirm: `)

		var in io.Reader = os.Stdin
		if c.in != nil {
			in = c.in
		}
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		input := strings.TrimSpace(scanner.Text())
		if input != "PURGE" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	store, closeStore, err := openArchiveFor(c.globals, c.store)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.PurgeAll(context.Background()); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]interface{}{
			"purged":  true,
			"message": "archive emptied",
		})
	}

	fmt.Println("Purged all cycles. The archive is empty.")
	return nil
}
