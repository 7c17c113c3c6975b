package main

import (
	"fmt"
	"time"

	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/domain/srs"
	"github.com/spf13/cobra"
)

// newGradeCmd exposes the calculator for a single attempt without touching
// any store. A state with zero interval and zero review count is treated as
// a new item.
func newGradeCmd() *cobra.Command {
	var (
		grade    int
		interval int
		ease     float64
		count    int
	)

	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Print the next review state for a graded attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now().UTC()

			state := domain.ReviewState{
				Status:         domain.StatusReview,
				Interval:       interval,
				EaseFactor:     ease,
				ReviewCount:    count,
				NextReviewDate: now,
			}
			if interval == 0 && count == 0 {
				state.Status = domain.StatusNew
			}

			next, err := srs.NewDefaultService().CalculateNextReview(state, domain.Grade(grade), now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %s\n", next.Status)
			fmt.Fprintf(out, "interval: %d\n", next.Interval)
			fmt.Fprintf(out, "ease_factor: %.2f\n", next.EaseFactor)
			fmt.Fprintf(out, "review_count: %d\n", next.ReviewCount)
			fmt.Fprintf(out, "next_review: %s\n", next.NextReviewDate.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().IntVar(&grade, "grade", 0, "recall grade, 0 (blackout) to 5 (perfect)")
	cmd.Flags().IntVar(&interval, "interval", 0, "current interval in days")
	cmd.Flags().Float64Var(&ease, "ease", domain.DefaultEaseFactor, "current ease factor")
	cmd.Flags().IntVar(&count, "count", 0, "current consecutive successful reviews")
	_ = cmd.MarkFlagRequired("grade")
	return cmd
}
