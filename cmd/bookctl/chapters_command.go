package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"book-factory/internal/application/chapter"
	"book-factory/internal/domain/entity"
)

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters",
		Short: "Write chapters from the terminal",
	}
	cmd.AddCommand(newChaptersWriteCommand(ctx))
	return cmd
}

func newChaptersWriteCommand(ctx *commandContext) *cobra.Command {
	var (
		part       int
		directives string
	)
	cmd := &cobra.Command{
		Use:   "write <book-id> <chapter-id>",
		Short: "Stream one part of a chapter to stdout and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := entity.ChapterPart(part)
			if !p.Valid() {
				return fmt.Errorf("part must be 1 or 2, got %d", part)
			}
			tk, err := ctx.ensureToolkit(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = tk.Chapters.StreamPart(cmd.Context(), args[0], args[1], p, directives, func(ev chapter.Event) error {
				if ev.Type == chapter.EventMessage {
					_, werr := fmt.Fprint(out, ev.Data)
					return werr
				}
				return nil
			})
			fmt.Fprintln(out)
			if err != nil {
				return err
			}

			waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := tk.Chapters.Wait(waitCtx); err != nil {
				return fmt.Errorf("chapter text was generated but not saved: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&part, "part", "p", 1, "Chapter part to write (1 or 2)")
	cmd.Flags().StringVarP(&directives, "directives", "d", "", "Extra instructions for this part")
	return cmd
}
