package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"clyptusrank/internal/refine"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

const (
	promptOtherSkill = "Enter another skill"
	promptDone       = "Done"
)

// runInteractive lets the user add missing skills one at a time until done
func runInteractive(cmd *cobra.Command, session *refine.Session, w io.Writer) error {
	for {
		snapshot := session.Snapshot()
		_, _ = fmt.Fprintf(w, "\nScore: %g  ATS score: %g\n", snapshot.Score.Score, snapshot.Score.ATSScore)

		missing := session.MissingSkills()
		items := menuItems(missing)
		selectPrompt := promptui.Select{
			Label: "Add a missing skill to your resume",
			Items: items,
			Size:  min(len(items), 10),
		}

		index, _, err := selectPrompt.Run()
		if err != nil {
			if isPromptExit(err) {
				return nil
			}
			return err
		}

		switch menuChoice(index, len(missing)) {
		case choiceDone:
			return nil
		case choiceOther:
			skill, err := promptForSkill()
			if err != nil {
				if isPromptExit(err) {
					continue
				}
				return err
			}
			addSkill(cmd, session, skill, w)
		default:
			addSkill(cmd, session, missing[index], w)
		}
	}
}

type choice int

const (
	choiceSkill choice = iota
	choiceOther
	choiceDone
)

// menuItems lists the missing skills followed by the two fixed entries
func menuItems(missing []string) []string {
	items := make([]string, 0, len(missing)+2)
	items = append(items, missing...)
	return append(items, promptOtherSkill, promptDone)
}

// menuChoice classifies a selection by position so a skill that happens to be
// named like a fixed entry is still added as a skill
func menuChoice(index, skills int) choice {
	switch {
	case index < skills:
		return choiceSkill
	case index == skills:
		return choiceOther
	default:
		return choiceDone
	}
}

func promptForSkill() (string, error) {
	prompt := promptui.Prompt{
		Label: "Skill",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("skill name is required")
			}
			return nil
		},
	}
	skill, err := prompt.Run()
	return strings.TrimSpace(skill), err
}

func isPromptExit(err error) bool {
	return stderrors.Is(err, promptui.ErrInterrupt) || stderrors.Is(err, promptui.ErrEOF) || stderrors.Is(err, promptui.ErrAbort)
}
