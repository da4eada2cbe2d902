package commands

import "github.com/spf13/cobra"

// AddCommands registers every payhub subcommand on root
func AddCommands(root *cobra.Command, o *Options) {
	root.AddCommand(
		NewInitCmd(o),
		NewSelectServerCmd(o),
		NewLoginCmd(o),
		NewRegisterCmd(o),
		NewLogoutCmd(o),
		NewWhoamiCmd(o),
		NewProfileCmd(o),
		NewRefreshCmd(o),
		NewPasswordCmd(o),
		NewVerifyEmailCmd(o),
		NewTokenCmd(o),
		NewDashCmd(o),
		NewSecureStorageCmd(o),
		NewDebugCmd(o),
	)
}
