package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"qadash/internal/app"
	"qadash/internal/catalog"
	"qadash/internal/config"
	"qadash/internal/domain"
	qadashsdk "qadash/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "qa",
	Short: "QA dashboard",
	Long: `qa serves the QA dashboard and talks to a running one.
- Projects: the catalog of systems under QA, each Active, Draft or Archived.
- Runs: triggering a run waits a short fixed delay and records a result in the project's history.
- Results: every result opens into a report of checkpoints, insights and the sources behind them.
Remote commands use --server and a bearer token from 'qa login'.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	workspace := viper.GetString("workspace")
	if err := godotenv.Load(filepath.Join(workspace, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: .env:", err)
	}
	viper.SetEnvPrefix("QADASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "directory holding qadash.yml and .env")
	rootCmd.PersistentFlags().String("config", "", "config file (defaults to <workspace>/qadash.yml)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("server", "http://127.0.0.1:8080", "dashboard URL for remote commands")
	rootCmd.PersistentFlags().String("token", "", "bearer token for remote commands")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(resultCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(configCmd())
}

func serveCmd() *cobra.Command {
	var addr, basePath, driver, dsn string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("base-path") {
				cfg.Server.BasePath = basePath
			}
			if cmd.Flags().Changed("storage") {
				cfg.Storage.Driver = driver
			}
			if cmd.Flags().Changed("dsn") {
				cfg.Storage.DSN = dsn
			}
			if secret := viper.GetString("jwt_secret"); secret != "" {
				cfg.Server.JWTSecret = secret
			}
			logger := app.NewLogger(os.Stderr, cfg.Log.Level)
			a, err := app.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			handler, err := a.Handler()
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Info("serving QA dashboard", "url", "http://"+cfg.Server.Addr, "api", cfg.Server.BasePath, "openapi", cfg.Server.BasePath+"/openapi.json")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/api/v0", "API base path")
	cmd.Flags().StringVar(&driver, "storage", "memory", "storage driver (memory, sqlite)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "sqlite DSN (in-memory when empty)")
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string
	var save bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a running dashboard and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			token, user, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if save {
				path := filepath.Join(viper.GetString("workspace"), ".env")
				if err := setEnvValue(path, "QADASH_TOKEN", token); err != nil {
					return err
				}
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"token": token, "user": user})
			}
			fmt.Printf("Logged in as %s (%s, %s)\n", user.Name, user.Role, user.Department)
			if !save {
				fmt.Println(token)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().BoolVar(&save, "save", false, "store the token as QADASH_TOKEN in the workspace .env")
	return cmd
}

func projectsCmd() *cobra.Command {
	prj := &cobra.Command{Use: "projects", Short: "Manage the project catalog"}
	prj.AddCommand(projectsListCmd())
	prj.AddCommand(projectsCreateCmd())
	prj.AddCommand(projectsUpdateCmd())
	return prj
}

func projectsListCmd() *cobra.Command {
	var q qadashsdk.ProjectQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := newClient().ListProjects(cmd.Context(), q)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			printProjects(os.Stdout, items)
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "substring of id or description")
	cmd.Flags().StringVar(&q.Status, "status", "", "status filter (Active, Draft, Archived)")
	cmd.Flags().StringVar(&q.Department, "department", "", "department filter")
	cmd.Flags().StringVar(&q.Sort, "sort", "", "sort key (id, name, lastRun)")
	return cmd
}

func projectsCreateCmd() *cobra.Command {
	var in qadashsdk.CreateProjectInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.ID == "" || in.Name == "" {
				return fmt.Errorf("--id and --name required")
			}
			p, err := newClient().CreateProject(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printProject(p)
		},
	}
	cmd.Flags().StringVar(&in.ID, "id", "", "project id")
	cmd.Flags().StringVar(&in.Name, "name", "", "project name")
	cmd.Flags().StringVar(&in.Department, "department", domain.Departments[0], "department")
	cmd.Flags().StringVar(&in.Domain, "domain", "", "business domain")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	return cmd
}

func projectsUpdateCmd() *cobra.Command {
	var name, department, dom, status, description string
	cmd := &cobra.Command{
		Use:   "update <project>",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in qadashsdk.UpdateProjectInput
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("department") {
				in.Department = &department
			}
			if cmd.Flags().Changed("domain") {
				in.Domain = &dom
			}
			if cmd.Flags().Changed("status") {
				in.Status = &status
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			p, err := newClient().UpdateProject(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return printProject(p)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&dom, "domain", "", "business domain")
	cmd.Flags().StringVar(&status, "status", "", "status (Active, Draft, Archived)")
	cmd.Flags().StringVar(&description, "description", "", "description")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <project>",
		Short: "Show a project's run history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newClient().History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(h)
			}
			fmt.Printf("%s %s [%s]\n", h.Project.ID, h.Project.Name, h.Project.Status)
			fmt.Printf("Total runs: %d  Pass rate: %d%%  Last run: %s\n", h.Stats.TotalRuns, h.Stats.PassRate, h.Stats.LastRun)
			if len(h.ActiveRuns) > 0 {
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Active runs")
				tw.AppendHeader(table.Row{"Result", "Status", "Progress"})
				for _, r := range h.ActiveRuns {
					tw.AppendRow(table.Row{r.ResultID, r.Status, fmt.Sprintf("%d%%", r.Progress)})
				}
				tw.Render()
			}
			printExecutions(os.Stdout, h.Executions)
			return nil
		},
	}
}

func resultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "result <result-id>",
		Short: "Show a result report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newClient().Result(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(d)
			}
			fmt.Printf("%s  %s (%s)\n", d.ResultID, d.ProjectName, d.ProjectID)
			fmt.Printf("Status: %s  Confidence: %.1f%%  Environment: %s  Duration: %s\n", d.Status, d.OverallConfidence, d.Environment, d.Duration)
			fmt.Printf("Completed: %s\n", catalog.FormatDateTime(d.CompletedDate))
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Checkpoint", "Name", "Outcome", "Confidence"})
			for _, cp := range d.Checkpoints {
				tw.AppendRow(table.Row{cp.ID, cp.Name, cp.Outcome, fmt.Sprintf("%.1f%%", cp.Confidence)})
			}
			tw.Render()
			for _, in := range d.Insights {
				fmt.Printf("- [%s] %s: %s\n", in.Type, in.Title, in.Content)
			}
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var req qadashsdk.RunRequest
	cmd := &cobra.Command{
		Use:   "run <project>",
		Short: "Trigger a QA run and wait for its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newClient().TriggerRun(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(s)
			}
			printExecutions(os.Stdout, []qadashsdk.ExecutionSummary{s})
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Environment, "env", domain.Environments[0], "environment (Production, UAT, Staging, Development)")
	cmd.Flags().StringVar(&req.ExecutionDate, "date", "", "execution date (YYYY-MM-DD), today when empty")
	cmd.Flags().StringVar(&req.ReferenceID, "reference", "", "reference id")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "notes")
	return cmd
}

func eventsCmd() *cobra.Command {
	var n int
	var projectID string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := newClient().Events(cmd.Context(), projectID, n)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Time", "Type", "Project", "Entity", "Actor"})
			for _, e := range items {
				tw.AppendRow(table.Row{e.ID, e.TS, e.Type, e.ProjectID, e.EntityID, e.ActorID})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&projectID, "project", "", "project filter")
	return cmd
}

func seedCmd() *cobra.Command {
	seed := &cobra.Command{Use: "seed", Short: "Inspect the startup catalog"}
	seed.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the projects the dashboard starts with",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := app.LoadSeed(cfg)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(data)
			}
			items := make([]qadashsdk.Project, 0, len(data.Projects))
			for _, p := range data.Projects {
				items = append(items, qadashsdk.Project(p))
			}
			printProjects(os.Stdout, items)
			fmt.Printf("%d active runs seeded\n", len(data.ActiveRuns))
			return nil
		},
	})
	return seed
}

func configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage qadash.yml"}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default qadash.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	})
	return cfgCmd
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	if path := viper.GetString("config"); path != "" {
		return config.FromFile(path)
	}
	return config.LoadOptional(viper.GetString("workspace"))
}

func newClient() *qadashsdk.Client {
	c := qadashsdk.New(viper.GetString("server"))
	c.BearerToken = viper.GetString("token")
	return c
}

func printProjects(w io.Writer, items []qadashsdk.Project) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Name", "Department", "Status", "Last run", "Runs"})
	for _, p := range items {
		last := "Never"
		if p.LastRun != nil {
			last = catalog.FormatDate(*p.LastRun)
		}
		tw.AppendRow(table.Row{p.ID, p.Name, p.Department, p.Status, last, p.TotalRuns})
	}
	tw.Render()
}

func printExecutions(w io.Writer, items []qadashsdk.ExecutionSummary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Result", "Date", "Status", "Duration", "Environment"})
	for _, e := range items {
		tw.AppendRow(table.Row{e.ResultID, catalog.FormatDateTime(e.ExecutionDate), e.Status, e.Duration, e.Environment})
	}
	tw.Render()
}

// printProject prints p as JSON with --json, otherwise as a one-row table.
func printProject(p qadashsdk.Project) error {
	if viper.GetBool("json") {
		return printJSON(p)
	}
	printProjects(os.Stdout, []qadashsdk.Project{p})
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// setEnvValue sets key in the .env file at path, keeping the other entries.
func setEnvValue(path, key, value string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		env = map[string]string{}
	}
	env[key] = value
	return godotenv.Write(env, path)
}
