package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <doc_type>",
		Short: "Make recent writes to a doc type searchable",
		Args:  cobra.ExactArgs(1),
		RunE:  runRefresh,
	}
}

func runRefresh(cmd *cobra.Command, args []string) error {
	endpoint := "/v1/docs/" + url.PathEscape(args[0]) + "/refresh"
	if err := newAPIClient().do(cmd.Context(), http.MethodPost, endpoint, nil, nil); err != nil {
		return err
	}
	fmt.Printf("Refreshed %s\n", args[0])
	return nil
}
