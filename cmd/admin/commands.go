package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"servicepulse/backend/internal/app"
	"servicepulse/backend/internal/auth"
	"servicepulse/backend/internal/complaint"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
)

type buildFunc func(ctx context.Context) (*app.App, error)

// cli holds the application opened for the running command.
type cli struct {
	build buildFunc
	app   *app.App
}

func newRootCommand(build buildFunc) *cobra.Command {
	c := &cli{build: build}

	root := &cobra.Command{
		Use:          "admin",
		Short:        "ServicePulse administration",
		Long:         `Maintenance commands that operate on the configured store. Writes are announced to running servers through the configured broadcast channel.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.build(cmd.Context())
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	root.AddCommand(
		c.newSeedCommand(),
		c.newDumpCommand(),
		c.newUseCommand(),
		c.newWhoamiCommand(),
		c.newResolveCommand(),
		c.newRollupCommand(),
		c.newRateCommand(),
		c.newSyncCommand(),
	)
	return root
}

func (c *cli) newSeedCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo users, vendors and complaints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			users := []auth.SignupInput{
				{Name: "Sana Secretary", Email: "secretary@servicepulse.local", Role: models.RoleSecretary},
				{Name: "Rahul Resident", Email: "resident@servicepulse.local", Role: models.RoleResident, Block: "A", Apartment: "101"},
				{Name: "Pipe Pros", Email: "pipes@servicepulse.local", Role: models.RoleVendor, Category: "Plumbing"},
				{Name: "Spark Electric", Email: "spark@servicepulse.local", Role: models.RoleVendor, Category: "Electrical"},
			}
			for _, u := range users {
				u.Password = password
				if _, err := c.app.Auth.Signup(ctx, u); err != nil {
					cmd.PrintErrf("skip %s: %v\n", u.Email, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %s (%s)\n", u.Email, u.Role)
			}

			resident := models.Identity{Role: models.RoleResident, Name: "Rahul Resident", Email: "resident@servicepulse.local"}
			complaints := []complaint.SubmitInput{
				{Title: "Kitchen tap leaking", Description: "Water drips all night", Category: "Plumbing", Block: "A", Apartment: "101", Urgency: "High"},
				{Title: "Bathroom pipe burst", Description: "Floor is flooded", Category: "Plumbing", Block: "A", Apartment: "104", Urgency: "High"},
				{Title: "Corridor light out", Description: "Third floor corridor is dark", Category: "Electrical", Block: "B", Apartment: "302"},
			}
			for _, in := range complaints {
				created, err := c.app.Complaints.Submit(ctx, resident, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "complaint %s %q\n", created.ID, created.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "password123", "Password for the demo users")
	return cmd
}

func (c *cli) newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "dump <collection>",
		Short:     "Print a stored collection as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(storage.Complaints), string(storage.BulkOrders), string(storage.Vendors), string(storage.Users), string(storage.Auth)},
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, ok, err := c.app.Store.Load(cmd.Context(), storage.Collection(args[0]))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("collection %q has never been written", args[0])
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				pretty.Reset()
				pretty.Write(raw)
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return nil
		},
	}
}

func (c *cli) newUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use <email>",
		Short: "Act as the given user in later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, ok := c.app.Auth.FindUser(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("no user with email %s", args[0])
			}
			if err := c.app.Auth.SetActive(cmd.Context(), u.Identity()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "now acting as %s (%s)\n", u.Email, u.Role)
			return nil
		},
	}
}

func (c *cli) newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, ok := c.app.Auth.Active(cmd.Context())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no active user")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", id.Name, id.Email, id.Role)
			return nil
		},
	}
}

func (c *cli) newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <complaint-id>",
		Short: "Mark a complaint resolved and roll up its orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := c.app.Complaints.MarkResolved(cmd.Context(), models.FlexID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "complaint %s is %s\n", updated.ID, updated.Status)
			return nil
		},
	}
}

func (c *cli) newRollupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollup <complaint-id>",
		Short: "Resolve bulk orders whose complaints are all resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.Complaints.Resolver.RollupBulkOrders(cmd.Context(), models.FlexID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d order(s) resolved\n", n)
			return nil
		},
	}
}

func (c *cli) newRateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <complaint-id> <score>",
		Short: "Rate the vendor of a resolved complaint as the active user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("score must be an integer: %w", err)
			}
			id, ok := c.app.Auth.Active(cmd.Context())
			if !ok {
				return fmt.Errorf("no active user, run `admin use <email>` first")
			}
			rating, err := c.app.Complaints.RateVendor(cmd.Context(), id, models.FlexID(args[0]), score)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vendor rating is now %.2f\n", rating)
			return nil
		},
	}
}

func (c *cli) newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Merge complaints from the upstream backend into the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := c.app.Complaints.SyncFromUpstream(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d complaint(s) synced\n", n)
			return nil
		},
	}
}
