package main

import (
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/cleaning"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/config"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/log"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/preprocessing"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/session"
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	out      io.Writer
	cfgFile  string
	envFile  string
	logLevel string
	cfg      *config.Config
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "datalab",
		Short:         "Clean tabular data and run analyses on it",
		Long:          `datalab loads CSV or Excel files, applies cleaning rules for missing values, outliers and duplicates, and runs regression, classification, clustering or PCA on the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(out)

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default is ./datalab.yaml)")
	f.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	root.AddCommand(
		newCleanCmd(a),
		newAnalyzeCmd(a),
		newPlotCmd(a),
		newExportCmd(a),
		newConfigCmd(a),
	)
	return root
}

// init loads the dotenv file, the configuration and the logger.
func (a *app) init(cmd *cobra.Command) error {
	if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "load %s", a.envFile)
	}
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := log.SetupLogger(cfg.LogLevel); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) logger() log.Logger {
	return log.GetLogger()
}

// open loads path into a new session and, when rulesFile is set, cleans it.
func (a *app) open(path, rulesFile string) (*session.Session, *cleaning.Report, error) {
	s, err := session.Open(path, session.WithLogger(a.logger()))
	if err != nil {
		return nil, nil, err
	}
	if rulesFile == "" {
		return s, nil, nil
	}
	rules, err := readRules(rulesFile)
	if err != nil {
		return nil, nil, err
	}
	if rules.Outliers != nil && rules.Outliers.Threshold == 0 {
		rules.Outliers.Threshold = a.cfg.OutlierThreshold
	}
	report, err := s.Clean(cleaning.NewEngine(cleaning.WithLogger(a.logger())), rules)
	if err != nil {
		return nil, nil, err
	}
	return s, report, nil
}

func (a *app) preparer() *preprocessing.Preparer {
	return preprocessing.NewPreparer(
		preprocessing.WithTolerance(a.cfg.MissingTolerance),
		preprocessing.WithPreparerLogger(a.logger()),
	)
}

func readRules(path string) (cleaning.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cleaning.RuleSet{}, errors.Wrapf(err, "read rules %s", path)
	}
	return cleaning.ParseRuleSet(data)
}
