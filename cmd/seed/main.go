package main

import (
	"alcyxob/coach-dashboard/internal/app"
	"alcyxob/coach-dashboard/internal/config"
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/seed"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var configDir string

// newSeeder reads the config and opens the configured gateway. The caller must
// call the returned close func.
func newSeeder(ctx context.Context) (*seed.Seeder, func() error, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.JWT.Secret == "" {
		// seeding never issues tokens
		cfg.JWT.Secret = "seed"
	}
	a, err := app.New(ctx, cfg, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing app: %w", err)
	}
	s := seed.NewSeeder(a.Services.Auth, a.Services.Programs, a.Services.Nutrition, a.Logger)
	return s, a.Close, nil
}

var rootCmd = &cobra.Command{
	Use:          "seed",
	Short:        "Load reference data into the coach dashboard database",
	SilenceUsage: true,
}

var foodsCmd = &cobra.Command{
	Use:   "foods",
	Short: "Upsert foods from a TOML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		foods, err := seed.ReadFoodsFile(file)
		if err != nil {
			return err
		}

		s, closeApp, err := newSeeder(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp()

		res, err := s.SeedFoods(cmd.Context(), foods)
		if err != nil {
			return err
		}
		fmt.Printf("Foods created: %d, updated: %d\n", res.Created, res.Updated)
		return nil
	},
}

var programCmd = &cobra.Command{
	Use:   "program",
	Short: "Create a program from a TOML template",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		owner, _ := cmd.Flags().GetString("owner")

		tree, err := seed.ReadProgramFile(file)
		if err != nil {
			return err
		}

		s, closeApp, err := newSeeder(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp()

		program, err := s.SeedProgram(cmd.Context(), owner, *tree)
		if err != nil {
			return err
		}
		fmt.Printf("Program created: %s (%s)\n", program.Name, program.ID)
		fmt.Printf("Weeks: %d, days: %d, blocks: %d\n", len(tree.Mesocycles), len(tree.Days), len(tree.Blocks))
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Create a user with any role",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")

		s, closeApp, err := newSeeder(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp()

		profile, err := s.SeedUser(cmd.Context(), name, email, password, domain.Role(role))
		if err != nil {
			return err
		}
		fmt.Printf("User created: %s <%s> role=%s id=%s\n", profile.Name, profile.Email, profile.Role, profile.ID)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing config.yaml")

	foodsCmd.Flags().String("file", "foods.toml", "foods file")
	programCmd.Flags().String("file", "", "program template file")
	programCmd.Flags().String("owner", "", "profile id of the program owner")
	_ = programCmd.MarkFlagRequired("file")
	_ = programCmd.MarkFlagRequired("owner")

	userCmd.Flags().String("name", "", "display name")
	userCmd.Flags().String("email", "", "login email")
	userCmd.Flags().String("password", "", "initial password")
	userCmd.Flags().String("role", string(domain.RoleAdmin), "admin, coach, athlete or gym")
	_ = userCmd.MarkFlagRequired("email")
	_ = userCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(foodsCmd, programCmd, userCmd)
}
