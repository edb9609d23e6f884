package cli

import (
	"github.com/spf13/cobra"

	"github.com/kyleseneker/cmakepatch/internal/config"
	"github.com/kyleseneker/cmakepatch/internal/doctor"
)

func newDoctorCmd(st *state) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "doctor [root]",
		Aliases: []string{"detect"},
		Short:   "Show the detected platform and the files a patch run would touch",
		Args:    maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signals, err := config.LoadSignals()
			if err != nil {
				return err
			}
			cfg := doctor.Config{
				Root:            st.cfg.Root,
				Signals:         signals,
				ForceRestricted: force,
				Stdout:          st.stdout,
			}
			if len(args) == 1 {
				cfg.Root = args[0]
			}
			return doctor.Run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&force, "restricted", false, "Report as if the restricted platform were targeted.")
	return cmd
}
