package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/assistant-engine/internal/model"
	"github.com/nhle/assistant-engine/internal/sync"
)

var (
	contactsWatch    bool
	contactsInterval time.Duration
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List address book contacts",
	Args:  cobra.NoArgs,
	RunE:  runContacts,
}

var contactsAddCmd = &cobra.Command{
	Use:   "add <name> <email>",
	Short: "Add or rename a contact",
	Args:  cobra.ExactArgs(2),
	RunE:  runContactsAdd,
}

var contactsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import correspondents from the configured mailbox",
	Args:  cobra.NoArgs,
	RunE:  runContactsSync,
}

func init() {
	rootCmd.AddCommand(contactsCmd)
	contactsCmd.AddCommand(contactsAddCmd)
	contactsCmd.AddCommand(contactsSyncCmd)

	contactsSyncCmd.Flags().BoolVarP(&contactsWatch, "watch", "w", false, "keep importing until interrupted")
	contactsSyncCmd.Flags().DurationVar(&contactsInterval, "interval", 15*time.Minute, "import interval with --watch")
}

func runContacts(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	contacts, err := a.store.GetContacts(cmd.Context())
	if err != nil {
		return err
	}
	for _, c := range contacts {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", c.Name, c.Email)
	}
	return nil
}

func runContactsAdd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.store.UpsertContact(cmd.Context(), model.Contact{Name: args[0], Email: args[1]})
	return err
}

func runContactsSync(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.Mail.Enabled {
		return errors.New("mail is not enabled; set mail.enabled in the config")
	}
	dir, err := newMailDirectory(a.cfg.Mail, a.creds)
	if err != nil {
		return err
	}

	importer := sync.NewContactImporter(dir, a.store, a.logger)
	if contactsWatch {
		importer.Run(ctx, contactsInterval)
		return nil
	}

	result, err := importer.SyncOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d contacts (%d new).\n", result.Imported, result.New)
	return nil
}
