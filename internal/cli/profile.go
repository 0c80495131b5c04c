package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"zurura-client/internal/model"
)

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and edit your profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the profile from the backend",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			user, err := c.app.Hooks.Profile.Get(ctx)
			if err != nil {
				return err
			}
			return c.render(user, func() table { return userTable(user) })
		}),
	})

	var desired model.User
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; blank flags are left alone",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			user, err := c.app.Hooks.Profile.Update(ctx, desired)
			if err != nil {
				return err
			}
			return c.render(user, func() table { return userTable(user) })
		}),
	}
	update.Flags().StringVar(&desired.FirstName, "first-name", "", "First name")
	update.Flags().StringVar(&desired.LastName, "last-name", "", "Last name")
	update.Flags().StringVar(&desired.PhoneNumber, "phone", "", "Phone number")
	update.Flags().StringVar(&desired.SchoolName, "school", "", "School name")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "photo <image>",
		Short: "Upload a profile photo (resized to a JPEG)",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open photo: %w", err)
			}
			defer f.Close()

			upload, err := c.app.Hooks.Profile.UploadPhoto(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return c.render(upload, func() table { return fields("PHOTO", upload.PhotoURL()) })
		}),
	})

	return cmd
}
