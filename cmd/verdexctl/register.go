package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRegisterCmd() *cobra.Command {
	var tag, branch string

	cmd := &cobra.Command{
		Use:   "register <doc_type> <schema-file>",
		Short: "Register a schema from a YAML or JSON file",
		Long:  "Reads a schema definition file and registers it, creating or extending the doc type's index.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, args[0], args[1], tag, branch)
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Resolve link targets against this tag")
	cmd.Flags().StringVar(&branch, "branch", "", "Extend fields pinned by this branch")
	return cmd
}

func runRegister(cmd *cobra.Command, docType, path, tag, branch string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("reading schema file: %w", err)
	}

	// yaml.v3 parses JSON too, so one decode path covers both formats.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing schema file: %w", err)
	}

	query := url.Values{}
	if tag != "" {
		query.Set("tag", tag)
	}
	if branch != "" {
		query.Set("branch", branch)
	}
	endpoint := "/v1/schemas/" + url.PathEscape(docType)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var res struct {
		DocType  string              `json:"doc_type"`
		Fields   int                 `json:"fields"`
		Versions int                 `json:"versions"`
		Issues   map[string][]string `json:"issues"`
	}
	if err := newAPIClient().do(cmd.Context(), http.MethodPost, endpoint, raw, &res); err != nil {
		return err
	}

	fmt.Printf("Registered %s: %d fields, %d versions\n", res.DocType, res.Fields, res.Versions)
	if len(res.Issues) > 0 {
		names := make([]string, 0, len(res.Issues))
		for name := range res.Issues {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("Rejected fields:")
		for _, name := range names {
			fmt.Printf("  %s: %s\n", name, strings.Join(res.Issues[name], "; "))
		}
	}
	return nil
}
