package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/janisto/linkglyph/internal/app"
	httpprofile "github.com/janisto/linkglyph/internal/http/v1/profile"
	"github.com/janisto/linkglyph/internal/platform/validate"
	profilesvc "github.com/janisto/linkglyph/internal/service/profile"
)

// opener connects the store for a single command run.
type opener func(ctx context.Context) (*app.Resources, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:          "admin",
		Short:        "LinkGlyph store maintenance",
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCmd(open),
		newSeedCmd(open),
		newProfileCmd(open),
		newUserCmd(open),
	)
	return root
}

// withResources opens the store, runs fn and closes the store.
func withResources(cmd *cobra.Command, open opener, fn func(ctx context.Context, res *app.Resources) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = res.Close() }()

	return fn(ctx, res)
}

func newMigrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the SQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withResources(cmd, open, func(ctx context.Context, res *app.Resources) error {
				if res.SQL == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to migrate for this store driver")
					return nil
				}
				if err := res.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrated")
				return nil
			})
		},
	}
}

func newSeedCmd(open opener) *cobra.Command {
	var handle, email string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo user and its profile card",
		Long: `Create a demo user and a profile card owned by it.

Running seed again keeps the existing user and refreshes the card.
The user id is printed as USER_ID=<id>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle = strings.ToLower(strings.TrimSpace(handle))
			if err := checkHandle(handle); err != nil {
				return err
			}

			return withResources(cmd, open, func(ctx context.Context, res *app.Resources) error {
				if err := res.Migrate(ctx); err != nil {
					return err
				}

				u, err := res.Store.EnsureUser(ctx, profilesvc.EnsureUserParams{
					ID:    "seed-" + handle,
					Email: email,
					Name:  "Demo User",
				})
				if err != nil {
					return fmt.Errorf("seed user: %w", err)
				}

				owner := u.ID
				if _, err := res.Store.Upsert(ctx, profilesvc.UpsertParams{
					Handle:   handle,
					FullName: "Demo User",
					Title:    ptr("Profile card demo"),
					OwnerID:  &owner,
				}); err != nil {
					return fmt.Errorf("seed profile: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "USER_ID=%s\n", u.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&handle, "handle", envOr("SEED_HANDLE", "demo"), "handle of the demo profile")
	cmd.Flags().StringVar(&email, "email", envOr("SEED_EMAIL", "demo@example.com"), "email of the demo user")
	return cmd
}

func newProfileCmd(open opener) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect stored profiles",
	}

	profileCmd.AddCommand(&cobra.Command{
		Use:   "get <handle>",
		Short: "Print a stored profile as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle := strings.ToLower(args[0])
			if err := checkHandle(handle); err != nil {
				return err
			}
			return withResources(cmd, open, func(ctx context.Context, res *app.Resources) error {
				p, err := res.Store.FindByHandle(ctx, handle)
				if err != nil {
					return fmt.Errorf("profile %s: %w", handle, err)
				}
				return printJSON(cmd, toProfileOutput(p))
			})
		},
	})

	return profileCmd
}

func newUserCmd(open opener) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var email, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withResources(cmd, open, func(ctx context.Context, res *app.Resources) error {
				u, err := res.Store.CreateUser(ctx, profilesvc.CreateUserParams{Email: email, Name: name})
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				return printJSON(cmd, toUserOutput(u))
			})
		},
	}
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&name, "name", "", "display name")
	_ = create.MarkFlagRequired("email")

	userCmd.AddCommand(create)
	return userCmd
}

var handleChecker = validate.New()

type handleArg struct {
	Handle string `json:"handle" validate:"required,handle"`
}

func checkHandle(handle string) error {
	if err := handleChecker.Validate(&handleArg{Handle: handle}); err != nil {
		var ve *validate.ValidationError
		if errors.As(err, &ve) {
			return errors.New(ve.First())
		}
		return err
	}
	return nil
}

// profileOutput is the card as served over HTTP plus the bookkeeping fields
// operators need.
type profileOutput struct {
	httpprofile.Card
	OwnerID   *string   `json:"ownerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toProfileOutput(p *profilesvc.Profile) profileOutput {
	return profileOutput{
		Card:      httpprofile.ToCard(p),
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type userOutput struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserOutput(u *profilesvc.User) userOutput {
	return userOutput{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ptr(s string) *string { return &s }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
