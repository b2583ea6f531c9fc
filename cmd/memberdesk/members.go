package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/config"
	"github.com/memberdesk/memberdesk/internal/store"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage membership records.",
}

var membersImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import membership records from a CSV file.",
	Long: `Import membership records from a CSV file with a header row of
member_number,full_name,email,address,status,collector_number.
Rows whose member number already exists are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		_, q, pool, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		created, skipped, err := importMembers(ctx, q, f)
		if err != nil {
			return err
		}
		cmd.Printf("imported %d members, skipped %d existing\n", created, skipped)
		return nil
	},
}

var membersGrantRoleCmd = &cobra.Command{
	Use:   "grant-role <member-number> <admin|collector|member>",
	Short: "Set the role for a member's login.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := auth.ParseRole(args[1])
		if role == auth.RoleNone {
			return fmt.Errorf("unknown role: %s", args[1])
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		_, q, pool, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		member, err := q.GetMemberByNumber(ctx, args[0])
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("member not found: %s", args[0])
		} else if err != nil {
			return err
		}
		if !member.AuthUserID.Valid || member.AuthUserID.String == "" {
			return fmt.Errorf("member %s has no login yet; roles attach to the login created on first sign-in", member.MemberNumber)
		}

		if err := q.UpsertMemberRole(ctx, store.UpsertMemberRoleParams{
			AuthUserID: member.AuthUserID.String,
			Role:       string(role),
		}); err != nil {
			return err
		}
		cmd.Printf("member %s is now %s\n", member.MemberNumber, role)
		return nil
	},
}

var membersResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <member-number>",
	Short: "Reset a member's login password.",
	Long: `Reset a member's login password. The new password is read from the
terminal; entering nothing restores the bootstrap credential (the member
number itself) and forces a password change on the next login. All of the
member's sessions are revoked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, q, pool, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		member, err := q.GetMemberByNumber(ctx, args[0])
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("member not found: %s", args[0])
		} else if err != nil {
			return err
		}

		creds := auth.DeriveCredentials(member.MemberNumber, cfg.LoginDomain)

		password, bootstrap, err := promptNewPassword(cmd)
		if err != nil {
			return err
		}
		if bootstrap {
			password = creds.Secret
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		if err := q.UpdateAuthUserPassword(ctx, store.UpdateAuthUserPasswordParams{
			LoginID:               creds.LoginID,
			PasswordHash:          hash,
			PasswordResetRequired: bootstrap,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("member %s has no login yet; nothing to reset", member.MemberNumber)
			}
			return err
		}

		if member.AuthUserID.Valid {
			if _, err := q.DeleteAuthSessionsForUser(ctx, store.DeleteAuthSessionsForUserParams{
				AuthUserID: member.AuthUserID.String,
			}); err != nil {
				return err
			}
		}

		if bootstrap {
			cmd.Printf("login for %s reset to the bootstrap credential; a new password is required on next login\n", member.MemberNumber)
		} else {
			cmd.Printf("password for %s updated\n", member.MemberNumber)
		}
		return nil
	},
}

func init() {
	membersCmd.AddCommand(membersImportCmd, membersGrantRoleCmd, membersResetPasswordCmd)
}

func openStore(ctx context.Context) (config.Config, *store.Queries, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, store.New(pool), pool, nil
}

func importMembers(ctx context.Context, q *store.Queries, r io.Reader) (created, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) != 6 || strings.ToLower(strings.TrimSpace(header[0])) != "member_number" {
		return 0, 0, errors.New("csv header must be member_number,full_name,email,address,status,collector_number")
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return created, skipped, err
		}

		number := auth.NormalizeMemberNumber(rec[0])
		if number == "" {
			continue
		}

		_, err = q.CreateMember(ctx, store.CreateMemberParams{
			MemberNumber:    number,
			FullName:        strings.TrimSpace(rec[1]),
			Email:           strings.TrimSpace(rec[2]),
			Address:         strings.TrimSpace(rec[3]),
			Status:          strings.TrimSpace(rec[4]),
			CollectorNumber: strings.TrimSpace(rec[5]),
		})
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				skipped++
				continue
			}
			return created, skipped, err
		}
		created++
	}
	return created, skipped, nil
}

func promptNewPassword(cmd *cobra.Command) (password string, bootstrap bool, err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", false, errors.New("reset-password needs an interactive terminal")
	}

	cmd.Print("New password (empty for bootstrap reset): ")
	first, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", false, err
	}
	if len(first) == 0 {
		return "", true, nil
	}
	if len(first) < auth.MinPasswordLength {
		return "", false, fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	cmd.Print("Confirm password: ")
	second, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", false, err
	}
	if string(first) != string(second) {
		return "", false, errors.New("passwords do not match")
	}
	return string(first), false, nil
}
