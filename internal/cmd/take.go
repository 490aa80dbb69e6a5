package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medform/internal/engine"
	"medform/internal/model"
)

const (
	inputBack = ":back"
	inputQuit = ":quit"
)

var errAborted = errors.New("questionnaire aborted")

// NewTakeCommand creates the 'medform take' command
func NewTakeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take <spec-file>",
		Short: "Step through a questionnaire in the terminal",
		Long: `Walk through a questionnaire one visible question at a time, the same way
the respondent API does. The completed submission is printed as JSON.

Type :back to return to the previous question and :quit to abort.
Multiselect answers are comma separated option values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := engine.LoadFile(args[0], engine.LoadOptions{})
			if err != nil {
				return err
			}
			return runTake(cmd.Context(), spec, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	return cmd
}

// printSubmitter writes the submission payload instead of storing it
type printSubmitter struct {
	out io.Writer
}

func (p *printSubmitter) Submit(_ context.Context, sub *model.Submission) (*model.SubmitReceipt, error) {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sub); err != nil {
		return nil, err
	}
	return &model.SubmitReceipt{}, nil
}

func runTake(ctx context.Context, spec *model.Specification, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	title := color.New(color.FgCyan, color.Bold)
	faint := color.New(color.Faint)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	nav := engine.NewNavigator(spec, &printSubmitter{out: out}, zerolog.Nop())
	session := model.NewSession(uuid.NewString(), spec)
	lines := bufio.NewScanner(in)

	readLine := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return "", err
			}
			return "", errAborted
		}
		line := strings.TrimSpace(lines.Text())
		if line == inputQuit {
			return "", errAborted
		}
		return line, nil
	}

	title.Fprintf(out, "%s (version %s)\n", spec.QuestionnaireID, spec.Version)
	for session.State == model.StateAtCode {
		code, err := readLine("Respondent code: ")
		if err != nil {
			return err
		}
		if err := nav.Start(session, code); err != nil {
			red.Fprintln(out, err)
		}
	}

	for session.State == model.StateAtQuestion {
		q := nav.Current(session)
		var value model.Value
		if q != nil {
			printQuestion(out, nav, session, q, title, faint)
			line, err := readLine("> ")
			if err != nil {
				return err
			}
			if line == inputBack {
				if err := nav.Back(session); err != nil {
					return err
				}
				continue
			}
			value = engine.ValueFromInput(q, takeInput(q, line))
		}

		var verr *engine.ValidationError
		var serr *engine.SubmissionError
		err := nav.Next(ctx, session, value, map[string]interface{}{"source": "cli"})
		switch {
		case err == nil:
		case errors.As(err, &verr):
			red.Fprintln(out, verr.Message)
		case errors.As(err, &serr):
			red.Fprintln(out, serr)
		default:
			return err
		}
	}

	green.Fprintln(out, "Submitted.")
	return nil
}

func printQuestion(out io.Writer, nav *engine.Navigator, session *model.Session, q *model.Question, title, faint *color.Color) {
	step, total := nav.Progress(session)
	marker := ""
	if nav.IsRequired(session, q) {
		marker = " *"
	}
	fmt.Fprintln(out)
	faint.Fprintf(out, "[%d/%d] ", step, total)
	title.Fprintf(out, "%s%s\n", q.Label, marker)
	if q.Help != "" {
		faint.Fprintln(out, q.Help)
	}

	switch q.Type {
	case model.QuestionTypeSelect, model.QuestionTypeMultiSelect:
		for _, o := range q.Options {
			fmt.Fprintf(out, "  %s) %s\n", o.Value, o.Label)
		}
	case model.QuestionTypeBoolean:
		fmt.Fprintf(out, "  true) %s\n  false) %s\n", q.Labels.Caption(true), q.Labels.Caption(false))
	}

	if current, ok := session.Answers.Get(q.ID); ok {
		faint.Fprintf(out, "current: %s\n", current)
	}
}

// takeInput turns a typed line into the raw form the respondent API accepts
func takeInput(q *model.Question, line string) interface{} {
	if q.Type != model.QuestionTypeMultiSelect {
		return line
	}
	items := []interface{}{}
	for _, part := range strings.Split(line, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
