package main

import (
	"fmt"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/haneul-dev/budgetbook/pkg/models"
	"github.com/haneul-dev/budgetbook/pkg/store"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Manage linked open-banking cards",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var cardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List linked cards",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		st := store.NewOpenBankingStore(app.cards, app.logger)
		defer st.Close()

		deadline := time.Now().Add(app.waitTimeout())
		for {
			if err := waitUpdate(st.Updates(), time.Until(deadline)); err != nil {
				return err
			}
			state, ready, err := st.Snapshot()
			if err != nil {
				return err
			}
			if !ready {
				continue
			}
			if debug {
				pp.Println(state)
			}
			renderCards(state.Cards)
			return nil
		}
	},
}

var cardsSyncCmd = &cobra.Command{
	Use:   "sync <card-no>...",
	Short: "Sync purchase history for the given cards",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		// The sync endpoint wants the institution-level card identifier, not
		// the masked number the list shows. Resolve either form.
		page, err := app.cards.Cards(cmd.Context())
		if err != nil {
			return err
		}
		noList, err := resolveCardNos(page.Items, args)
		if err != nil {
			return err
		}

		return app.cards.SyncHistory(cmd.Context(), models.SyncCardHistoryRequest{NoList: noList})
	},
}

func init() {
	cardsCmd.AddCommand(cardsListCmd)
	cardsCmd.AddCommand(cardsSyncCmd)
}

func resolveCardNos(cards []models.OpenBankingCard, args []string) ([]string, error) {
	byNo := make(map[string]string, len(cards))
	fins := make(map[string]struct{}, len(cards))
	for _, card := range cards {
		byNo[card.No] = card.FinCardNo
		fins[card.FinCardNo] = struct{}{}
	}

	noList := make([]string, 0, len(args))
	for _, arg := range args {
		if fin, ok := byNo[arg]; ok {
			noList = append(noList, fin)
			continue
		}
		if _, ok := fins[arg]; ok {
			noList = append(noList, arg)
			continue
		}
		return nil, fmt.Errorf("card %s is not linked", arg)
	}
	return noList, nil
}
