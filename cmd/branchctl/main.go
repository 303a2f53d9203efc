// cmd/branchctl is the CLI entry point, built with Cobra, for the
// read-only admin surface of a branch.
//
// Usage:
//
//	branchctl health                  --server http://localhost:9001
//	branchctl branches                --server http://localhost:9001
//	branchctl customers               --server http://localhost:9001
//	branchctl articles                --server http://localhost:9001
//	branchctl guides                  --server http://localhost:9001
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nomadgto/dist-syst/internal/adminclient"
)

var (
	serverAddr string
	timeout    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "branchctl",
		Short: "Read-only inspector for a branch's admin HTTP surface",
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "s",
		"http://localhost:9001", "branch admin HTTP address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second,
		"HTTP request timeout")

	root.AddCommand(healthCmd(), branchesCmd(), customersCmd(), articlesCmd(), guidesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show this branch's role and known master",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := adminclient.New(serverAddr, timeout)
			h, err := c.Health(context.Background())
			if err != nil {
				return err
			}
			prettyPrint(h)
			return nil
		},
	}
}

func branchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branches",
		Short: "List every branch known to this node's registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchAndPrint("branches", func(ctx context.Context, c *adminclient.Client) (json.RawMessage, error) {
				return c.Branches(ctx)
			})
		},
	}
}

func customersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "List customers in this branch's local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchAndPrint("customers", func(ctx context.Context, c *adminclient.Client) (json.RawMessage, error) {
				return c.Customers(ctx)
			})
		},
	}
}

func articlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "articles",
		Short: "List articles in this branch's local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchAndPrint("articles", func(ctx context.Context, c *adminclient.Client) (json.RawMessage, error) {
				return c.Articles(ctx)
			})
		},
	}
}

func guidesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guides",
		Short: "List shipping guides in this branch's local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchAndPrint("guides", func(ctx context.Context, c *adminclient.Client) (json.RawMessage, error) {
				return c.ShippingGuides(ctx)
			})
		},
	}
}

func fetchAndPrint(label string, fetch func(context.Context, *adminclient.Client) (json.RawMessage, error)) error {
	c := adminclient.New(serverAddr, timeout)
	raw, err := fetch(context.Background(), c)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	var pretty any
	if err := json.Unmarshal(raw, &pretty); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	prettyPrint(pretty)
	return nil
}

func prettyPrint(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(data))
}
