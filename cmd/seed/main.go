package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/infrastructure/auth"
	"github.com/hazina/backend/internal/infrastructure/config"
	"github.com/hazina/backend/internal/infrastructure/logger"
	"github.com/hazina/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type seedOptions struct {
	members int
	seed    int64
}

func newRootCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Create a demo chama with members, payment methods and access tokens",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.members < 1 {
				return fmt.Errorf("--members must be at least 1")
			}
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&opts.members, "members", 5, "number of ordinary members besides the treasurer")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "gofakeit seed, 0 for random")
	return cmd
}

func run(ctx context.Context, opts seedOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync(log)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}

	s := &seeder{
		groups:  persistence.NewGormMemberRepository(db.DB, db.QueryTimeout),
		methods: persistence.NewGormPaymentMethodRepository(db.DB, db.QueryTimeout),
		tokens:  auth.NewJWTService(cfg.JWT),
		faker:   gofakeit.New(uint64(opts.seed)),
		now:     time.Now().UTC(),
	}
	result, err := s.seed(ctx, opts.members)
	if err != nil {
		return err
	}
	log.Info("Seeded demo group",
		zap.String("group_id", result.Group.ID.String()),
		zap.Int("members", len(result.Members)),
	)
	return result.print(out)
}

type groupStore interface {
	SaveGroup(ctx context.Context, group *contribution.Group) error
	SaveMember(ctx context.Context, member *contribution.Member) error
}

type methodStore interface {
	Save(ctx context.Context, method *contribution.PaymentMethod) error
}

type tokenIssuer interface {
	GenerateToken(userID uuid.UUID, email string) (string, time.Time, error)
}

type seeder struct {
	groups  groupStore
	methods methodStore
	tokens  tokenIssuer
	faker   *gofakeit.Faker
	now     time.Time
}

type seededMember struct {
	Member *contribution.Member
	Token  string
}

type seedResult struct {
	Group   *contribution.Group
	Methods []*contribution.PaymentMethod
	Members []seededMember
}

func (s *seeder) seed(ctx context.Context, memberCount int) (*seedResult, error) {
	group := &contribution.Group{
		ID:        uuid.New(),
		Name:      s.faker.Company() + " Chama",
		Currency:  "KES",
		CreatedAt: s.now,
	}
	if err := s.groups.SaveGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to save group: %w", err)
	}
	result := &seedResult{Group: group}

	for _, m := range []struct {
		kind   contribution.MethodKind
		name   string
		number string
	}{
		{contribution.MethodKindPaybill, "Group Paybill", s.faker.DigitN(6)},
		{contribution.MethodKindTill, "Treasurer Till", s.faker.DigitN(7)},
	} {
		method, err := contribution.NewPaymentMethod(group.ID, m.kind, m.name, m.number)
		if err != nil {
			return nil, err
		}
		if err := s.methods.Save(ctx, method); err != nil {
			return nil, fmt.Errorf("failed to save payment method: %w", err)
		}
		result.Methods = append(result.Methods, method)
	}

	for i := 0; i <= memberCount; i++ {
		role := contribution.RoleMember
		if i == 0 {
			role = contribution.RoleTreasurer
		}
		member := &contribution.Member{
			ID:          uuid.New(),
			GroupID:     group.ID,
			UserID:      uuid.New(),
			DisplayName: s.faker.Name(),
			Email:       s.faker.Email(),
			Role:        role,
			Active:      true,
			JoinedAt:    s.now,
		}
		if err := s.groups.SaveMember(ctx, member); err != nil {
			return nil, fmt.Errorf("failed to save member: %w", err)
		}
		token, _, err := s.tokens.GenerateToken(member.UserID, member.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to issue token: %w", err)
		}
		result.Members = append(result.Members, seededMember{Member: member, Token: token})
	}
	return result, nil
}

func (r *seedResult) print(out io.Writer) error {
	fmt.Fprintf(out, "group %s (%s)\n", r.Group.ID, r.Group.Name)
	for _, m := range r.Methods {
		fmt.Fprintf(out, "method %s %s %s\n", m.ID, m.Kind, m.Number)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROLE\tNAME\tUSER ID\tTOKEN")
	for _, m := range r.Members {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Member.Role, m.Member.DisplayName, m.Member.UserID, m.Token)
	}
	return w.Flush()
}
