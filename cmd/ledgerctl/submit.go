package main

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgervm/engine/internal/enginelog"
)

var cliLog = enginelog.Get("ledgerctl")

func newSubmitCmd(h *harness) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <manifest.json>",
		Short: "Submit a manifest file as one transaction against the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(h, args[0])
		},
	}
}

func runSubmit(h *harness, manifestPath string) error {
	doc, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}
	signerKeys, err := doc.signerKeys()
	if err != nil {
		return err
	}
	instructions, err := doc.translate()
	if err != nil {
		return err
	}

	e, store, err := buildEngine(h)
	if err != nil {
		return err
	}

	var txHash [32]byte
	if _, err := rand.Read(txHash[:]); err != nil {
		return fmt.Errorf("ledgerctl: generate transaction hash: %w", err)
	}

	result, err := e.Submit(txHash, signerKeys, instructions)
	if err != nil {
		cliLog.ErrorWithErr("transaction rejected", err)
		return err
	}

	if err := store.save(); err != nil {
		return err
	}

	fmt.Printf("committed tx=%x receipt=%x entries=%d\n", txHash[:8], result.Receipt.Hash, len(result.Receipt.Entries))
	for i, out := range result.Outputs {
		fmt.Printf("  output[%d]: %s\n", i, describeValue(out))
	}
	return nil
}
