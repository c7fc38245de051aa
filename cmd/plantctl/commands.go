package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"plantcare/internal/app"
	"plantcare/internal/domain"
	"plantcare/internal/viewmodel"
)

type options struct {
	server   string
	password string
	timeout  time.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "plantctl",
		Short:        "Manage plants on a plantcare server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("PLANTCTL_SERVER", "http://localhost:8080/api"), "API base URL")
	root.PersistentFlags().StringVar(&opts.password, "password", os.Getenv("PLANTCTL_PASSWORD"), "owner password, when the server requires login")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-command timeout")

	root.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newWaterCmd(opts),
		newDeleteCmd(opts),
		newHashPasswordCmd(),
	)
	return root
}

// open connects, logs in when a password is set and loads the list.
func (o *options) open(cmd *cobra.Command) (*viewmodel.Model, context.Context, func(), error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)

	jar, err := cookiejar.New(nil)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	client := viewmodel.NewClient(o.server, &http.Client{Jar: jar})
	if o.password != "" {
		if err := client.Login(ctx, o.password); err != nil {
			cancel()
			return nil, nil, nil, fmt.Errorf("login: %w", err)
		}
	}

	m := viewmodel.New(client)
	done := func() { m.Close(); cancel() }
	if err := m.Load(ctx); err != nil {
		done()
		return nil, nil, nil, fmt.Errorf("load plants: %w", err)
	}
	return m, ctx, done, nil
}

func newListCmd(opts *options) *cobra.Command {
	var search, order string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List plants",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			so, err := viewmodel.ParseSortOrder(order)
			if err != nil {
				return err
			}
			m, _, done, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			m.SetSearch(search)
			m.SetSortOrder(so)
			return render(cmd.OutOrStdout(), m.View())
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name or species")
	cmd.Flags().StringVar(&order, "sort", string(viewmodel.SortDesc), "last watered order: asc or desc")
	return cmd
}

func newAddCmd(opts *options) *cobra.Command {
	var species string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ctx, done, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := m.Add(ctx, args[0], species); err != nil {
				return err
			}
			plants := m.Snapshot().Plants
			if len(plants) > 0 {
				plants = plants[:1]
			}
			return render(cmd.OutOrStdout(), plants)
		},
	}
	cmd.Flags().StringVar(&species, "species", "", "species")
	return cmd
}

func newEditCmd(opts *options) *cobra.Command {
	var name, species string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a plant's name or species",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ctx, done, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			id := args[0]
			if err := m.BeginEdit(id); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			buf := m.Snapshot().Edit
			if cmd.Flags().Changed("name") {
				buf.Name = name
			}
			if cmd.Flags().Changed("species") {
				buf.Species = species
			}
			m.SetEditBuffer(buf)
			if err := m.SaveEdit(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plant updated: %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&species, "species", "", "new species, empty to clear")
	return cmd
}

func newWaterCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "water ID...",
		Short: "Mark plants watered today",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ctx, done, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			for _, id := range args {
				if err := m.Water(ctx, id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Plant watered: %s\n", id)
			}
			return nil
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a plant",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ctx, done, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			confirm := func(p domain.Plant) bool {
				return yes || ask(cmd.InOrStdin(), cmd.OutOrStdout(), p)
			}
			sent, err := m.Delete(ctx, args[0], confirm)
			if err != nil {
				return err
			}
			if sent {
				fmt.Fprintf(cmd.OutOrStdout(), "Plant deleted: %s\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash for auth.password_hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			hash, err := app.HashPassword(strings.TrimRight(line, "\r\n"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func ask(in io.Reader, out io.Writer, p domain.Plant) bool {
	label := p.Name
	if label == "" {
		label = p.ID
	}
	fmt.Fprintf(out, "Delete %q? [y/N] ", label)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func render(w io.Writer, plants []domain.Plant) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSPECIES\tLAST WATERED")
	for _, p := range plants {
		watered := "never"
		if p.LastWatered != nil {
			watered = *p.LastWatered
		}
		species := p.SpeciesOrEmpty()
		if species == "" {
			species = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, species, watered)
	}
	return tw.Flush()
}
