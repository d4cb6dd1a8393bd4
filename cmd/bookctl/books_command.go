package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"book-factory/internal/application/book"
	"book-factory/internal/domain/entity"
)

func newBooksCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Inspect and manage books",
	}
	cmd.AddCommand(newBooksListCommand(ctx))
	cmd.AddCommand(newBooksShowCommand(ctx))
	cmd.AddCommand(newBooksGenerateCommand(ctx))
	cmd.AddCommand(newBooksDeleteCommand(ctx))
	return cmd
}

func newBooksListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := ctx.ensureToolkit(cmd.Context())
			if err != nil {
				return err
			}
			filter := make([]entity.BookStatus, 0, len(statuses))
			for _, s := range statuses {
				filter = append(filter, entity.BookStatus(strings.ToLower(strings.TrimSpace(s))))
			}
			books, err := tk.Books.List(cmd.Context(), filter...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(books) == 0 {
				fmt.Fprintln(out, "No books found")
				return nil
			}
			rows := make([][]string, 0, len(books))
			for _, b := range books {
				rows = append(rows, []string{
					b.ID,
					displayTitle(b),
					string(b.Status),
					strconv.Itoa(b.ChaptersCount),
					b.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Status", "Chapters", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (draft, active, failed)")
	return cmd
}

func newBooksShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <book-id>",
		Short: "Show a book's concept, cast and chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := ctx.ensureToolkit(cmd.Context())
			if err != nil {
				return err
			}
			d, err := tk.Books.Dashboard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, book.Summary(d.Book))
			if d.Concept != nil && d.Concept.Premise != "" {
				fmt.Fprintf(out, "\n%s\n", d.Concept.Premise)
			}

			if len(d.Book.Characters) > 0 {
				rows := make([][]string, 0, len(d.Book.Characters))
				for _, c := range d.Book.Characters {
					rows = append(rows, []string{c.Name, c.Role(), c.SummaryOrDescription()})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable([]string{"Character", "Role", "Summary"}, rows, nil))
			}

			if len(d.Book.Chapters) > 0 {
				rows := make([][]string, 0, len(d.Book.Chapters))
				for _, ch := range d.Book.Chapters {
					rows = append(rows, []string{
						strconv.Itoa(ch.ChapterNumber),
						ch.ID,
						ch.Title,
						string(ch.Status),
						strconv.Itoa(len([]rune(ch.Content))),
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"#", "ID", "Title", "Status", "Chars"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				))
			}
			if d.NextChapter != nil {
				fmt.Fprintf(out, "\nNext chapter to write: %d (%s)\n", d.NextChapter.ChapterNumber, d.NextChapter.ID)
			}
			return nil
		},
	}
}

func newBooksGenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <book-id>",
		Short: "Generate character sheets and the chapter outline for a draft book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := ctx.ensureToolkit(cmd.Context())
			if err != nil {
				return err
			}
			b, err := tk.Orchestrator.Generate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), book.Summary(b))
			return nil
		},
	}
}

func newBooksDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a book with its characters and chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := ctx.ensureToolkit(cmd.Context())
			if err != nil {
				return err
			}
			if err := tk.Books.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func displayTitle(b *entity.Book) string {
	if b.Title != "" {
		return b.Title
	}
	if b.UserPrompt != "" {
		return "(" + truncate(b.UserPrompt, 40) + ")"
	}
	return "(untitled)"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
