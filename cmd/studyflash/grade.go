package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vytor/studyflash/internal/quiz"
)

var gradeCmd = &cobra.Command{
	Use:   "grade ANSWER REFERENCE",
	Short: "Grade a free-text answer against a reference answer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := quiz.GradeAnswer(args[0], args[1])
		verdict := "incorrect"
		if g.IsCorrect {
			verdict = "correct"
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (similarity %.2f, threshold %.2f)\n", verdict, g.Similarity, quiz.CorrectThreshold)
		return err
	},
}
