package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bloodlink/internal/config"
	"bloodlink/internal/database"
	"bloodlink/internal/domain"
	"bloodlink/internal/repository"
	"bloodlink/internal/service/auth"
	"bloodlink/internal/service/campaign"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := config.NewPostgresDB(app.cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			return database.RunMigrations(db.DB, app.logger)
		},
	}
}

func campaignsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaigns",
		Short: "Inspect donation campaigns",
	}

	var owner string
	expired := &cobra.Command{
		Use:   "expired",
		Short: "List campaigns past their end date that were never ended",
		RunE: func(cmd *cobra.Command, args []string) error {
			var ownerID *uuid.UUID
			if owner != "" {
				id, err := uuid.Parse(owner)
				if err != nil {
					return fmt.Errorf("invalid --owner: %w", err)
				}
				ownerID = &id
			}

			db, err := config.NewPostgresDB(app.cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			svc := campaign.NewService(repository.NewCampaignRepository(db), app.logger)
			views, err := svc.ListExpired(cmd.Context(), ownerID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tOWNER\tTITLE\tEND DATE")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, v.OwnerID, v.Title, v.EndDate.Format("2006-01-02"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\n%d expired campaign(s)\n", len(views))
			return nil
		},
	}
	expired.Flags().StringVar(&owner, "owner", "", "Only campaigns owned by this actor ID")

	cmd.AddCommand(expired)
	return cmd
}

// tokenCmd signs a bearer token for local testing against a non-production deployment.
func tokenCmd() *cobra.Command {
	var (
		actorID string
		name    string
		role    string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.Environment == "production" {
				return fmt.Errorf("refusing to sign tokens in production")
			}

			id := uuid.New()
			if actorID != "" {
				parsed, err := uuid.Parse(actorID)
				if err != nil {
					return fmt.Errorf("invalid --actor-id: %w", err)
				}
				id = parsed
			}
			r := domain.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("invalid --role %q", role)
			}

			actor := &domain.Actor{ID: id, Name: name, Role: r}
			if email != "" {
				actor.Email = &email
			}

			token, err := auth.NewService(nil, app.cfg.JWTSecret).GenerateAccessToken(actor, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "actor-id", "", "Actor ID (random when empty)")
	cmd.Flags().StringVar(&name, "name", "Local Tester", "Display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleDonor), "donor, blood_bank, ngo or admin")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
