package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"survey-activation-engine/internal/config"
	"survey-activation-engine/internal/engine"
	"survey-activation-engine/internal/storage"
)

var logLevel string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "surveyctl",
	Short: "Inspect survey configurations offline",
	Long: `surveyctl validates survey configuration files and shows which
events would activate on a given page, without running the server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		config.SetupLoggingTo(cmd.ErrOrStderr(), logLevel, "console")
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "List the events active on a page",
	RunE:  runResolve,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a survey file against the configuration schema",
	RunE:  runValidate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	resolveCmd.Flags().StringP("file", "f", "", "survey JSON file (object or array)")
	resolveCmd.Flags().StringP("page", "p", "", "page URL or path")
	resolveCmd.Flags().StringP("survey", "s", "", "survey id when the file holds several")
	resolveCmd.Flags().StringP("trigger", "t", "", "only report the first active event with this trigger")
	resolveCmd.Flags().Bool("group", false, "group active events by trigger")
	_ = resolveCmd.MarkFlagRequired("file")
	_ = resolveCmd.MarkFlagRequired("page")

	validateCmd.Flags().StringP("file", "f", "", "survey JSON file (object or array)")
	_ = validateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(resolveCmd, validateCmd)
}

// readSurveys accepts either a single survey object or an array of them.
func readSurveys(path string) ([]storage.SurveyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if gjson.ParseBytes(data).IsArray() {
		return storage.ParseSurveys(data)
	}
	rec, err := storage.ParseSurvey(data)
	if err != nil {
		return nil, err
	}
	return []storage.SurveyRecord{rec}, nil
}

func pickSurvey(recs []storage.SurveyRecord, id string) (storage.SurveyRecord, error) {
	if id == "" {
		if len(recs) != 1 {
			return storage.SurveyRecord{}, fmt.Errorf("file holds %d surveys; pick one with --survey", len(recs))
		}
		return recs[0], nil
	}
	for _, r := range recs {
		if r.ID == id {
			return r, nil
		}
	}
	return storage.SurveyRecord{}, fmt.Errorf("survey %q: %w", id, storage.ErrNotFound)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	page, _ := cmd.Flags().GetString("page")
	surveyID, _ := cmd.Flags().GetString("survey")
	trigger, _ := cmd.Flags().GetString("trigger")
	group, _ := cmd.Flags().GetBool("group")

	recs, err := readSurveys(file)
	if err != nil {
		return err
	}
	rec, err := pickSurvey(recs, surveyID)
	if err != nil {
		return err
	}

	cfg := engine.FromRecord(rec)
	page = engine.CurrentPage(page)
	log.Debug().Str("survey_id", cfg.ID).Str("page", page).Msg("resolving")

	out := cmd.OutOrStdout()
	switch {
	case trigger != "":
		e, ok := engine.FirstActiveEventByTrigger(&cfg, page, engine.Trigger(trigger))
		if !ok {
			fmt.Fprintf(out, "no active %s event on %s\n", trigger, page)
			return nil
		}
		return printJSON(out, e)
	case group:
		return printJSON(out, engine.ExtractActiveEventsByTrigger(&cfg, page))
	default:
		if !engine.HasActiveEvents(&cfg, page) {
			fmt.Fprintf(out, "no active events on %s\n", page)
			return nil
		}
		return printJSON(out, engine.ExtractActiveEvents(&cfg, page))
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")

	recs, err := readSurveys(file)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range recs {
		cfg := engine.FromRecord(r)
		unknown := 0
		for _, ev := range cfg.Events {
			for _, m := range ev.URLs {
				if !m.Rule.Known() {
					unknown++
					log.Warn().Str("survey_id", cfg.ID).Str("event_id", ev.ID).Str("rule", string(m.Rule)).Msg("unknown url rule")
				}
			}
		}
		fmt.Fprintf(out, "%s: ok (%d events, %d unknown rules)\n", cfg.ID, len(cfg.Events), unknown)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
