package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

type Config struct {
	BaseURL       string `json:"base_url"`
	DatabaseID    string `json:"database_id"`
	SessionCookie string `json:"session_cookie"` // e.g. "session_token=abc..."
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".gridbase")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "cli_config.json"), nil
}

func loadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func saveConfig(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

var rootCmd = &cobra.Command{
	Use:   "gridbase",
	Short: "GridBase CLI",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ---- Login ----

func cmdLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password")
	baseURL := fs.String("base-url", "http://localhost:3001/api", "GridBase API base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" || *password == "" {
		return fmt.Errorf("email and password are required")
	}

	body, err := json.Marshal(map[string]string{
		"email":    *email,
		"password": *password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(*baseURL, "/")+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed: %s", strings.TrimSpace(string(msg)))
	}

	// Extract session_token cookie
	var sessionCookie string
	for _, c := range resp.Cookies() {
		if c.Name == "session_token" {
			sessionCookie = c.Name + "=" + c.Value
			break
		}
	}
	if sessionCookie == "" {
		return fmt.Errorf("no session_token cookie received")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.BaseURL = strings.TrimRight(*baseURL, "/")
	cfg.SessionCookie = sessionCookie
	if err := saveConfig(cfg); err != nil {
		return err
	}

	fmt.Println("✅ Logged in successfully")
	return nil
}

func requireAuthConfig() (*Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" || cfg.SessionCookie == "" {
		return nil, fmt.Errorf("not logged in; run `gridbase login` first")
	}
	return cfg, nil
}

func doAuthedRequest(cfg *Config, method, path string, body io.Reader) (*http.Response, error) {
	u := strings.TrimRight(cfg.BaseURL, "/") + path
	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cfg.SessionCookie)
	client := &http.Client{}
	return client.Do(req)
}

// ---- Databases ----

func cmdDatabases(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: gridbase databases [list|create|use]")
		return nil
	}

	switch args[0] {
	case "list":
		return databasesList()
	case "create":
		return databasesCreate(args[1:])
	case "use":
		return databasesUse(args[1:])
	default:
		fmt.Println("Usage: gridbase databases [list|create|use]")
		return nil
	}
}

func databasesList() error {
	cfg, err := requireAuthConfig()
	if err != nil {
		return err
	}

	resp, err := doAuthedRequest(cfg, http.MethodGet, "/databases", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("list databases failed: %s", strings.TrimSpace(string(msg)))
	}

	var databases []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&databases); err != nil {
		return err
	}

	if len(databases) == 0 {
		fmt.Println("No databases found. Create one with `gridbase databases create <name>`.")
		return nil
	}

	fmt.Println("Databases:")
	for _, d := range databases {
		active := ""
		if cfg.DatabaseID == d.ID {
			active = " (active)"
		}
		fmt.Printf("  %s%s\n    ID: %s\n    Slug: %s\n", d.Name, active, d.ID, d.Slug)
	}
	return nil
}

func databasesCreate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: gridbase databases create <name>")
	}
	cfg, err := requireAuthConfig()
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"name": strings.Join(args, " ")})
	if err != nil {
		return err
	}
	resp, err := doAuthedRequest(cfg, http.MethodPost, "/databases", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("create database failed: %s", strings.TrimSpace(string(msg)))
	}

	var database struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&database); err != nil {
		return err
	}
	fmt.Printf("Created database %s (%s)\n", database.Name, database.ID)
	return nil
}

func databasesUse(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: gridbase databases use <id>")
	}
	cfg, err := requireAuthConfig()
	if err != nil {
		return err
	}
	cfg.DatabaseID = args[0]
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("Active database set to %s\n", cfg.DatabaseID)
	return nil
}

// ---- Tables ----

func cmdTables(args []string) error {
	if len(args) == 0 || args[0] != "list" {
		fmt.Println("Usage: gridbase tables list")
		return nil
	}

	cfg, err := requireAuthConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseID == "" {
		return fmt.Errorf("no active database; run `gridbase databases use <id>` first")
	}

	resp, err := doAuthedRequest(cfg, http.MethodGet, "/databases/"+cfg.DatabaseID+"/tables", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("list tables failed: %s", strings.TrimSpace(string(msg)))
	}

	var tables []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tables); err != nil {
		return err
	}

	if len(tables) == 0 {
		fmt.Println("No tables in the active database.")
		return nil
	}
	fmt.Println("Tables:")
	for _, t := range tables {
		fmt.Printf("  %d  %s\n", t.ID, t.Name)
	}
	return nil
}

// ---- Rows ----

func cmdRows(args []string) error {
	if len(args) == 0 || args[0] != "list" {
		fmt.Println("Usage: gridbase rows list --table <id> [--filters <json>] [--search <text>] [--page N] [--page-size N]")
		return nil
	}

	fs := flag.NewFlagSet("rows list", flag.ExitOnError)
	tableID := fs.String("table", "", "Table ID")
	filters := fs.String("filters", "", "Filter criteria as JSON array")
	search := fs.String("search", "", "Global search text")
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", 25, "Rows per page")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *tableID == "" {
		return fmt.Errorf("--table is required")
	}

	cfg, err := requireAuthConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseID == "" {
		return fmt.Errorf("no active database; run `gridbase databases use <id>` first")
	}

	q := url.Values{}
	q.Set("page", fmt.Sprint(*page))
	q.Set("pageSize", fmt.Sprint(*pageSize))
	if *filters != "" {
		q.Set("filters", *filters)
	}
	if *search != "" {
		q.Set("globalSearch", *search)
	}

	path := "/databases/" + cfg.DatabaseID + "/tables/" + *tableID + "/rows?" + q.Encode()
	resp, err := doAuthedRequest(cfg, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("list rows failed: %s", strings.TrimSpace(string(msg)))
	}

	var result struct {
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			Page       int   `json:"page"`
			TotalPages int   `json:"totalPages"`
			TotalRows  int64 `json:"totalRows"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	for _, row := range result.Data {
		fmt.Println(string(row))
	}
	fmt.Printf("Page %d of %d (%d rows total)\n",
		result.Pagination.Page, result.Pagination.TotalPages, result.Pagination.TotalRows)
	return nil
}

// ---- Cobra command wiring ----

func init() {
	loginCmd := &cobra.Command{
		Use:                "login",
		Short:              "Login to GridBase",
		DisableFlagParsing: true, // delegate flag parsing to cmdLogin (uses flag package)
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdLogin(args)
		},
	}

	databasesCmd := &cobra.Command{
		Use:                "databases",
		Short:              "Manage databases",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdDatabases(args)
		},
	}

	tablesCmd := &cobra.Command{
		Use:                "tables",
		Short:              "List tables in the active database",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdTables(args)
		},
	}

	rowsCmd := &cobra.Command{
		Use:                "rows",
		Short:              "List and filter rows",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdRows(args)
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireAuthConfig()
			if err != nil {
				return err
			}

			resp, err := doAuthedRequest(cfg, http.MethodGet, "/auth/me", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("request failed: %s", strings.TrimSpace(string(body)))
			}

			var user struct {
				ID    string `json:"id"`
				Email string `json:"email"`
				Name  string `json:"name"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
				return err
			}

			fmt.Println("Current user:")
			fmt.Printf("  ID:    %s\n", user.ID)
			fmt.Printf("  Name:  %s\n", user.Name)
			fmt.Printf("  Email: %s\n", user.Email)
			return nil
		},
	}

	rootCmd.AddCommand(loginCmd, databasesCmd, tablesCmd, rowsCmd, whoamiCmd)
}
