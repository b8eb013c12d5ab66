// Command reconcile runs the reconciliation engine over a draft receipt read
// from stdin and prints the reconciled record to stdout. Useful for debugging
// extractor output without an HTTP round trip.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"kvitto/internal/domain"
	"kvitto/internal/reconcile"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	var draft domain.DraftReceipt
	if err := json.Unmarshal(data, &draft); err != nil {
		return fmt.Errorf("parsing draft receipt: %w", err)
	}

	receipt := reconcile.NewEngine().Reconcile(draft)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(receipt); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
