package cmd

import (
	"log"
	"time"

	"github.com/gabble-chat/gabble/configs"
	"github.com/gabble-chat/gabble/internal/dal"
	"github.com/gabble-chat/gabble/internal/db"
	"github.com/spf13/cobra"
)

// purgeCmd represents the purge command. History reads already filter by the
// retention window; purging reclaims the space behind it.
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete messages older than the retention window from both scopes",
	Args:  cobra.MaximumNArgs(0),
	Run:   purgeMessages,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

func purgeMessages(_ *cobra.Command, _ []string) {
	database := db.GetDB()
	cutoff := time.Now().Add(-configs.Retention()).Unix()

	globals, err := dal.PurgeGlobalBefore(database, cutoff)
	if err != nil {
		log.Fatalf("error purging global messages: %v", err)
	}
	directs, err := dal.PurgeDirectBefore(database, cutoff)
	if err != nil {
		log.Fatalf("error purging direct messages: %v", err)
	}
	log.Printf("purged %d global and %d direct messages older than %s", globals, directs, time.Unix(cutoff, 0).Format(time.RFC3339))
}
