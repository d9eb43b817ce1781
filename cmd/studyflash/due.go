package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/services"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List cards due for review today",
	Args:  cobra.NoArgs,
	RunE:  runDue,
}

func init() {
	dueCmd.Flags().Int64("deck", 0, "Only cards from this deck id")
}

func runDue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	var deckID *int64
	if cmd.Flags().Changed("deck") {
		id, _ := cmd.Flags().GetInt64("deck")
		deckID = &id
	}

	svc := services.NewDeckService(
		sqlite.NewDeckRepository(database.DB),
		sqlite.NewCardRepository(database.DB),
		sqlite.NewReviewRepository(database.DB),
	)
	cards, err := svc.DueCards(cmd.Context(), deckID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(cards) == 0 {
		fmt.Fprintln(out, "nothing due")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDECK\tFRONT\tDUE\tINTERVAL\tEASE")
	for _, c := range cards {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%dd\t%.2f\n", c.ID, c.DeckID, c.Front, c.NextReviewDate.Local().Format("2006-01-02"), c.IntervalDays, c.EaseFactor)
	}
	return tw.Flush()
}
