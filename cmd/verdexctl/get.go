package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "get <doc_type> <id>",
		Short: "Fetch a document in its logical shape",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0], args[1], tag)
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Resolve field versions through this tag")
	return cmd
}

func runGet(cmd *cobra.Command, docType, id, tag string) error {
	endpoint := "/v1/docs/" + url.PathEscape(docType) + "/" + url.PathEscape(id)
	if tag != "" {
		endpoint += "?tag=" + url.QueryEscape(tag)
	}

	var doc map[string]any
	if err := newAPIClient().do(cmd.Context(), http.MethodGet, endpoint, nil, &doc); err != nil {
		return err
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
