// Command appgenctl is the operator CLI for an appgen server: project
// inspection, error listing, and backend process status, in the
// teacher's cmd/loomctl idiom (cobra subcommands over a thin JSON HTTP
// client, structured JSON output by default).
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var serverURL string

func main() {
	rootCmd := &cobra.Command{
		Use:     "appgenctl",
		Short:   "appgenctl - interact with an appgen server",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer(), "appgen server URL")

	rootCmd.AddCommand(newProjectCommand())
	rootCmd.AddCommand(newErrorsCommand())
	rootCmd.AddCommand(newBackendCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultServer() string {
	if s := os.Getenv("APPGEN_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// --- HTTP client ---

type client struct {
	baseURL string
	http    *http.Client
}

func newClient() *client {
	return &client{baseURL: serverURL, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *client) get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *client) post(path string) ([]byte, error) {
	resp, err := c.http.Post(c.baseURL+path, "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func printJSON(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// --- project inspect ---

func newProjectCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Inspect project state"}
	cmd.AddCommand(&cobra.Command{
		Use:   "inspect <project-id>",
		Short: "Show a project's open errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			body, err := c.get(fmt.Sprintf("/ai-tools/errors/%s/open", args[0]))
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	})
	return cmd
}

// --- errors list ---

func newErrorsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "errors", Short: "Query error records"}

	var openOnly bool
	listCmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List error records for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			path := fmt.Sprintf("/ai-tools/errors/%s", args[0])
			if openOnly {
				path += "/open"
			}
			body, err := c.get(path)
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}
	listCmd.Flags().BoolVar(&openOnly, "open", false, "only show unresolved errors")
	cmd.AddCommand(listCmd)
	return cmd
}

// --- backend status ---

func newBackendCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "backend", Short: "Manage per-project backend processes"}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <project-id>",
		Short: "Show a project's backend process status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			body, err := c.get(fmt.Sprintf("/project-backend/status/%s", args[0]))
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "start <project-id>",
		Short: "Start a project's backend process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			body, err := c.post(fmt.Sprintf("/project-backend/start/%s", args[0]))
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stop <project-id>",
		Short: "Stop a project's backend process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			body, err := c.post(fmt.Sprintf("/project-backend/stop/%s", args[0]))
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restart <project-id>",
		Short: "Restart a project's backend process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			body, err := c.post(fmt.Sprintf("/project-backend/restart/%s", args[0]))
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	})

	return cmd
}
