package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"willtank/internal/config"
	"willtank/internal/db"
	"willtank/internal/model"
	"willtank/internal/progress"
	"willtank/internal/repository"
	"willtank/internal/service"
)

//go:embed demo.yaml
var demoFixture []byte

type seedFixture struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Name     string     `yaml:"name"`
	Email    string     `yaml:"email"`
	Password string     `yaml:"password"`
	Wills    []seedWill `yaml:"wills"`
}

type seedWill struct {
	Title         string            `yaml:"title"`
	TemplateID    string            `yaml:"templateId"`
	Status        model.WillStatus  `yaml:"status"`
	Content       string            `yaml:"content"`
	Beneficiaries []seedBeneficiary `yaml:"beneficiaries"`
}

type seedBeneficiary struct {
	Name         string `yaml:"name"`
	Relationship string `yaml:"relationship"`
	Email        string `yaml:"email"`
	Share        string `yaml:"share"`
}

type seedReport struct {
	UsersCreated  int
	UsersUpdated  int
	Wills         int
	WillsSkipped  int
	Beneficiaries int
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users and wills",
		Long:  "Creates or updates users by email and adds wills that the user does not have yet (matched by title).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := demoFixture
			if file != "" {
				var err error
				if raw, err = os.ReadFile(file); err != nil {
					return fmt.Errorf("read fixture: %w", err)
				}
			}
			fx, err := parseFixture(raw)
			if err != nil {
				return err
			}

			cfg := config.Load()
			gormDB, err := db.Open(cfg.DBDriver, cfg.DSN(), false)
			if err != nil {
				return err
			}
			if err := db.Migrate(cmd.Context(), cfg.DBDriver, gormDB); err != nil {
				return err
			}

			s := &seeder{
				users:         repository.NewUserRepository(gormDB),
				wills:         repository.NewWillRepository(gormDB),
				beneficiaries: repository.NewBeneficiaryRepository(gormDB),
			}
			report, err := s.run(cmd.Context(), fx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Seed completed")
			fmt.Fprintf(out, "  - users created: %d\n", report.UsersCreated)
			fmt.Fprintf(out, "  - users updated: %d\n", report.UsersUpdated)
			fmt.Fprintf(out, "  - wills created: %d (skipped %d)\n", report.Wills, report.WillsSkipped)
			fmt.Fprintf(out, "  - beneficiaries created: %d\n", report.Beneficiaries)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture (defaults to the built-in demo data)")
	return cmd
}

func parseFixture(raw []byte) (*seedFixture, error) {
	var fx seedFixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	for i, u := range fx.Users {
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("user %d: email and password are required", i)
		}
		for _, w := range u.Wills {
			if w.TemplateID != "" {
				if _, ok := service.FindTemplate(w.TemplateID); !ok {
					return nil, fmt.Errorf("will %q: unknown template %q", w.Title, w.TemplateID)
				}
			}
			switch w.Status {
			case "", model.WillDraft, model.WillCompleted, model.WillLocked:
			default:
				return nil, fmt.Errorf("will %q: unknown status %q", w.Title, w.Status)
			}
			total := decimal.Zero
			for _, b := range w.Beneficiaries {
				if b.Share == "" {
					continue
				}
				share, err := decimal.NewFromString(b.Share)
				if err != nil {
					return nil, fmt.Errorf("beneficiary %q: invalid share %q", b.Name, b.Share)
				}
				total = total.Add(share)
			}
			if total.GreaterThan(decimal.NewFromInt(100)) {
				return nil, fmt.Errorf("will %q: shares add up to %s%%", w.Title, total)
			}
		}
	}
	return &fx, nil
}

type seeder struct {
	users         repository.UserRepository
	wills         repository.WillRepository
	beneficiaries repository.BeneficiaryRepository
}

func (s *seeder) run(ctx context.Context, fx *seedFixture) (seedReport, error) {
	var report seedReport
	for _, su := range fx.Users {
		user, created, err := s.upsertUser(ctx, su)
		if err != nil {
			return report, err
		}
		if created {
			report.UsersCreated++
		} else {
			report.UsersUpdated++
		}

		existing, err := s.wills.ListByUser(ctx, user.ID)
		if err != nil {
			return report, fmt.Errorf("list wills for %s: %w", user.Email, err)
		}
		titles := make(map[string]bool, len(existing))
		for _, w := range existing {
			titles[w.Title] = true
		}

		for _, sw := range su.Wills {
			if titles[sw.Title] {
				report.WillsSkipped++
				continue
			}
			n, err := s.createWill(ctx, user.ID, sw)
			if err != nil {
				return report, err
			}
			report.Wills++
			report.Beneficiaries += n
		}
	}
	return report, nil
}

func (s *seeder) upsertUser(ctx context.Context, su seedUser) (*model.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(su.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password for %s: %w", email, err)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("error checking user %s: %w", email, err)
	}

	if existing != nil {
		existing.Name = su.Name
		existing.PasswordHash = string(hash)
		existing.EmailVerified = true
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("error updating user %s: %w", email, err)
		}
		return existing, false, nil
	}

	user := &model.User{
		Name:                su.Name,
		Email:               email,
		PasswordHash:        string(hash),
		EmailVerified:       true,
		OnboardingCompleted: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("error creating user %s: %w", email, err)
	}
	return user, true, nil
}

func (s *seeder) createWill(ctx context.Context, userID uuid.UUID, sw seedWill) (int, error) {
	will := &model.Will{
		UserID:       userID,
		Title:        sw.Title,
		Content:      sw.Content,
		Status:       sw.Status,
		ProgressStep: progress.First(),
	}
	if will.Status == "" {
		will.Status = model.WillDraft
	}
	if will.Status != model.WillDraft {
		will.ProgressStep = progress.StepCompletion
	}
	if sw.TemplateID != "" {
		id := sw.TemplateID
		will.TemplateID = &id
	}
	if err := s.wills.Create(ctx, will); err != nil {
		return 0, fmt.Errorf("error creating will %q: %w", sw.Title, err)
	}

	for _, sb := range sw.Beneficiaries {
		b := &model.Beneficiary{
			WillID:       will.ID,
			Name:         sb.Name,
			Relationship: sb.Relationship,
			Email:        sb.Email,
		}
		if sb.Share != "" {
			share := decimal.RequireFromString(sb.Share)
			b.SharePercentage = &share
		}
		if err := s.beneficiaries.Create(ctx, b); err != nil {
			return 0, fmt.Errorf("error creating beneficiary %q: %w", sb.Name, err)
		}
	}
	return len(sw.Beneficiaries), nil
}
