package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/thywilljoshua/study-buddy/internal/ai"
	"github.com/thywilljoshua/study-buddy/internal/quiz"
	"github.com/thywilljoshua/study-buddy/internal/session"
	"github.com/thywilljoshua/study-buddy/internal/source"
)

type runOptions struct {
	topic     string
	pdf       string
	channels  string
	length    string
	asJSON    bool
	plain     bool
	exportDir string
	width     int
}

func runCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <summary|notes|exam|videos|questions>",
		Short: "Generate study material for a PDF or a topic in the terminal",
		Example: `  studybuddy run summary --pdf lecture.pdf
  studybuddy run exam --topic "Photosynthesis"
  studybuddy run videos --topic "Fourier series" --channels "3Blue1Brown" --length short
  studybuddy run notes --topic "TCP congestion control" --export ./notes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := session.ParseAction(args[0])
			if err != nil {
				return err
			}
			if (opts.topic == "") == (opts.pdf == "") {
				return errors.New("exactly one of --topic or --pdf is required")
			}
			length, err := ai.ParseVideoLength(opts.length)
			if err != nil {
				return err
			}

			var src source.Source
			if opts.pdf != "" {
				src, err = loadPDF(opts.pdf, a.cfg.Server.MaxUploadBytes)
			} else {
				src, err = source.FromTopic(opts.topic)
			}
			if err != nil {
				return userError(action, err)
			}

			gen, err := a.generator(cmd.Context(), nil)
			if err != nil {
				return err
			}
			mgr := session.NewManager(gen, session.Options{MaxSessions: 1, Logger: a.log.Named("session")})
			id := mgr.Create(session.ModeNone).ID
			if _, err := mgr.SetSource(id, src); err != nil {
				return userError(action, err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Generating %s for %q...\n", action, src.Title)
			v, err := mgr.SelectAction(cmd.Context(), id, action)
			if err == nil && action == session.ActionVideos {
				v, err = mgr.FindVideos(cmd.Context(), id, ai.VideoPrefs{Channels: opts.channels, Length: length})
			}
			if err != nil {
				return userError(action, err)
			}

			if v.Result == nil {
				return fmt.Errorf("%s produced no result", action)
			}
			out := cmd.OutOrStdout()
			switch {
			case opts.asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(v); err != nil {
					return err
				}
			case v.Result.Kind == session.ResultQuiz:
				if err := playQuiz(cmd.InOrStdin(), out, mgr, id, *v.Result.Quiz); err != nil {
					return err
				}
			default:
				if err := printMarkdown(out, resultMarkdown(v.Result), opts); err != nil {
					return err
				}
			}

			if opts.exportDir != "" {
				files, err := mgr.Export(id, opts.exportDir)
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintln(cmd.ErrOrStderr(), "wrote", f)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.topic, "topic", "", "topic to study")
	f.StringVar(&opts.pdf, "pdf", "", "PDF file to study")
	f.StringVar(&opts.channels, "channels", "", "preferred YouTube channels (videos only)")
	f.StringVar(&opts.length, "length", "any", "preferred video length: any|short|medium|long (videos only)")
	f.BoolVar(&opts.asJSON, "json", false, "print the session view as JSON")
	f.BoolVar(&opts.plain, "plain", false, "print raw Markdown instead of styled output")
	f.StringVar(&opts.exportDir, "export", "", "also write the result as Markdown files into this directory")
	f.IntVar(&opts.width, "width", 80, "word wrap width for styled output")
	return cmd
}

func userError(action session.Action, err error) error {
	title, msg := session.UserMessage(action, err)
	if title != "" {
		return fmt.Errorf("%s: %s", title, msg)
	}
	return errors.New(msg)
}

// resultMarkdown flattens a text or videos result into one Markdown document.
func resultMarkdown(r *session.ResultView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	if r.Kind == session.ResultVideos {
		for _, v := range r.Videos {
			fmt.Fprintf(&b, "## %s\n\n", v.Title)
			if v.Topic != "" {
				fmt.Fprintf(&b, "*%s*\n\n", v.Topic)
			}
			if v.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", v.Description)
			}
			fmt.Fprintf(&b, "%s\n\n", v.URL)
		}
		return b.String()
	}
	b.WriteString(r.Text)
	return b.String()
}

func printMarkdown(w io.Writer, md string, opts runOptions) error {
	if opts.plain {
		_, err := fmt.Fprintln(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(opts.width))
	if err != nil {
		return err
	}
	styled, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, styled)
	return err
}

// playQuiz runs the exam on in/out until the last question, then prints the
// score and the review.
func playQuiz(in io.Reader, out io.Writer, mgr *session.Manager, id string, st quiz.State) error {
	sc := bufio.NewScanner(in)
	var err error
	for !st.Finished {
		fmt.Fprintf(out, "\nQuestion %d of %d\n%s\n", st.Index+1, st.Total, st.Question)
		for i, o := range st.Options {
			fmt.Fprintf(out, "  %s. %s\n", quiz.OptionLabel(i), o)
		}

		for !st.Answered {
			fmt.Fprint(out, "> ")
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return err
				}
				return io.ErrUnexpectedEOF
			}
			choice, perr := parseChoice(sc.Text(), st.Options)
			if perr != nil {
				fmt.Fprintln(out, perr)
				continue
			}
			if st, err = mgr.AnswerIndex(id, choice); err != nil {
				return err
			}
		}

		if st.Selected == st.Answer {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Incorrect. The answer is: %s\n", st.Answer)
		}
		if st.Reason != "" {
			fmt.Fprintln(out, st.Reason)
		}
		if st, err = mgr.NextQuestion(id); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\nYou scored %d out of %d (%d%%)\n%s\n\n", st.Score, st.Total, st.Percentage, st.Feedback)
	for i, r := range st.Review {
		mark := "x"
		if r.Correct {
			mark = "✓"
		}
		fmt.Fprintf(out, "%s %d. %s\n", mark, i+1, r.Question)
		if !r.Correct {
			selected := r.Selected
			if !r.Answered {
				selected = "(no answer)"
			}
			fmt.Fprintf(out, "    your answer: %s\n    correct:     %s\n", selected, r.Answer)
		}
	}
	return nil
}

// parseChoice accepts a letter (A, b), a 1-based number or the option text
// and returns the option's position.
func parseChoice(input string, options []string) (int, error) {
	in := strings.TrimSpace(input)
	if in == "" {
		return 0, errors.New("type the letter of your answer")
	}
	if len(in) == 1 {
		c := strings.ToUpper(in)[0]
		if c >= 'A' && int(c-'A') < len(options) {
			return int(c - 'A'), nil
		}
	}
	if n, err := strconv.Atoi(in); err == nil && n >= 1 && n <= len(options) {
		return n - 1, nil
	}
	for i, o := range options {
		if strings.EqualFold(o, in) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%q is not one of the options", in)
}
