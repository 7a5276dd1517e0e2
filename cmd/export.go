package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-api/internal/model"
	"github.com/sells-group/outreach-api/internal/store"
)

var (
	exportUserID string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export ready drafts to an XLSX workbook",
	Long:  "Writes every DRAFT_READY contact with its research and drafted message to a spreadsheet for offline review.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		contacts, err := st.ListContacts(ctx, store.ContactFilter{
			UserID: exportUserID,
			Status: model.ContactStatusDraftReady,
			Limit:  10000,
		})
		if err != nil {
			return eris.Wrap(err, "export: list drafts")
		}
		if len(contacts) == 0 {
			fmt.Println("No drafts to export.")
			return nil
		}

		contactIDs := make([]string, len(contacts))
		for i, c := range contacts {
			contactIDs[i] = c.ID
		}
		research, err := st.GetResearchByContacts(ctx, contactIDs)
		if err != nil {
			return eris.Wrap(err, "export: load research")
		}

		if err := writeDraftsXLSX(exportOut, contacts, research); err != nil {
			return err
		}

		fmt.Printf("Exported %d drafts to %s\n", len(contacts), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportUserID, "user", "", "user ID owning the drafts (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "drafts.xlsx", "output file path")
	_ = exportCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(exportCmd)
}

var draftsHeader = []string{
	"Full Name", "Role", "Company", "LinkedIn URL", "Strategy", "Draft Message",
	"News Summary", "Pain Points", "Source URL", "Has Research",
}

// writeDraftsXLSX writes contacts and their research to a single-sheet
// workbook at path.
func writeDraftsXLSX(path string, contacts []model.Contact, research map[string]model.Research) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Drafts")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range draftsHeader {
		header.AddCell().Value = h
	}

	for _, c := range contacts {
		rec, hasResearch := research[c.ID]

		row := sheet.AddRow()
		row.AddCell().Value = c.FullName
		row.AddCell().Value = c.RawRole
		row.AddCell().Value = c.CompanyName
		row.AddCell().Value = c.LinkedInURL
		row.AddCell().Value = string(c.StrategyTag)
		row.AddCell().Value = c.DraftMessage
		row.AddCell().Value = rec.NewsSummary
		row.AddCell().Value = rec.PainPoints
		row.AddCell().Value = rec.SourceURL
		row.AddCell().Value = strconv.FormatBool(hasResearch && rec.NewsSummary != "")
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}
