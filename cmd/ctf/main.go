package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/udovin/ctf/internal/api"
	"github.com/udovin/ctf/internal/config"
	"github.com/udovin/ctf/internal/core"
	"github.com/udovin/ctf/internal/managers"
	"github.com/udovin/ctf/internal/pkg/logs"
	"github.com/udovin/ctf/internal/seed"
)

var testCtx, testCancel = context.WithCancel(context.Background())

func resolveFile(files ...string) (string, error) {
	for _, file := range files {
		if len(file) == 0 {
			continue
		}
		if _, err := os.Stat(file); err == nil {
			return file, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", os.ErrNotExist
}

// getConfig reads config with filename from '--config' flag.
//
// When neither flag nor CTF_CONFIG points to existing file, config is
// read from environment.
func getConfig(cmd *cobra.Command) (config.Config, error) {
	flagFilename, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	envFilename := os.Getenv("CTF_CONFIG")
	resolved, err := resolveFile(flagFilename, envFilename)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return config.Config{}, err
		}
		if cmd.Flags().Changed("config") {
			return config.Config{}, err
		}
		return config.LoadFromEnv()
	}
	return config.LoadFromFile(resolved)
}

func isServerError(err error) bool {
	return err != nil && err != http.ErrServerClosed
}

func newServer(logger *logs.Logger) *echo.Echo {
	srv := echo.New()
	srv.Logger = logger
	srv.HideBanner, srv.HidePort = true, true
	srv.Pre(middleware.RemoveTrailingSlash())
	srv.Use(middleware.Recover(), middleware.Gzip())
	return srv
}

func newCore(cmd *cobra.Command) (*core.Core, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	c, err := core.NewCore(cfg)
	if err != nil {
		return nil, err
	}
	c.SetupAllStores()
	if err := c.Start(); err != nil {
		return nil, err
	}
	return c, nil
}

// serverMain starts CTF server.
func serverMain(cmd *cobra.Command, _ []string) {
	c, err := newCore(cmd)
	if err != nil {
		panic(err)
	}
	defer c.Stop()
	ctx, cancel := signal.NotifyContext(
		testCtx, os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()
	var waiter sync.WaitGroup
	defer waiter.Wait()
	srv := newServer(c.Logger())
	api.NewView(c).Register(srv.Group("/api"))
	waiter.Add(1)
	go func() {
		defer waiter.Done()
		defer cancel()
		c.Logger().Info(
			"Starting server",
			logs.Any("address", c.Config.Server.Address()),
			logs.Any("version", config.Version),
		)
		if err := srv.Start(c.Config.Server.Address()); isServerError(err) {
			c.Logger().Error(err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(
			context.Background(), time.Minute,
		)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			c.Logger().Error(err)
		}
	}()
	select {
	case <-ctx.Done():
	case <-c.Context().Done():
	}
}

// scoreboardMain prints current scoreboard as JSON.
func scoreboardMain(cmd *cobra.Command, _ []string) {
	c, err := newCore(cmd)
	if err != nil {
		panic(err)
	}
	defer c.Stop()
	scoreboard, err := managers.NewScoreboardManager(c).Build(context.Background())
	if err != nil {
		panic(err)
	}
	type row struct {
		Place  int    `json:"place"`
		TeamID string `json:"team_id"`
		Name   string `json:"name"`
		Score  int    `json:"score"`
	}
	rows := []row{}
	for _, r := range scoreboard.Rows {
		rows = append(rows, row{
			Place:  r.Place,
			TeamID: r.Team.ID,
			Name:   r.Team.Name,
			Score:  r.Team.Score,
		})
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rows); err != nil {
		panic(err)
	}
}

// validateChallengesMain checks challenges file.
func validateChallengesMain(cmd *cobra.Command, args []string) {
	challenges, err := seed.LoadChallengesFile(args[0])
	if err != nil {
		panic(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d challenges are valid\n", len(challenges))
}

func versionMain(cmd *cobra.Command, _ []string) {
	fmt.Fprintln(cmd.OutOrStdout(), "ctf version:", config.Version)
}

// main is a main entry point.
//
// Variables from .env file are loaded before config, so they can be
// used instead of config file.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}
	rootCmd := cobra.Command{Use: os.Args[0]}
	rootCmd.PersistentFlags().String("config", "config.json", "")
	rootCmd.AddCommand(&cobra.Command{
		Use:   "server",
		Run:   serverMain,
		Short: "Starts API server",
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "scoreboard",
		Run:   scoreboardMain,
		Short: "Prints current scoreboard",
	})
	challengesCmd := cobra.Command{
		Use:   "challenges",
		Short: "Manages challenges",
	}
	challengesCmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Args:  cobra.ExactArgs(1),
		Run:   validateChallengesMain,
		Short: "Validates challenges file",
	})
	rootCmd.AddCommand(&challengesCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Run:   versionMain,
		Short: "Prints information about version",
	})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
