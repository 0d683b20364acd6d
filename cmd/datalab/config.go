package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/config"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := yaml.Marshal(a.cfg)
			if err != nil {
				return errors.Wrap(err, "marshal config")
			}
			_, err = a.out.Write(b)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write the effective configuration to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(a.cfg, args[0])
		},
	})
	return cmd
}
