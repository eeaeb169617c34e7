package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Strob0t/showcase/internal/domain/project"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative tasks against the project store",
		Example: `  showcase admin reconcile
  showcase admin list-projects
  showcase admin list-projects --active`,
	}
	cmd.AddCommand(newAdminReconcileCmd(), newAdminListProjectsCmd())
	return cmd
}

// newAdminReconcileCmd copies projects from the secondary store into an
// empty Postgres database. The server does the same at startup.
func newAdminReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Copy projects from the secondary store into an empty primary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, flush, err := setup(cmd)
			if err != nil {
				return err
			}
			defer flush()

			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if !st.primaryUp {
				return fmt.Errorf("postgres is unreachable")
			}

			res, err := st.fallback.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

func newAdminListProjectsCmd() *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "list-projects",
		Short: "List projects with their file counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, flush, err := setup(cmd)
			if err != nil {
				return err
			}
			defer flush()

			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			projects, err := st.fallback.ListProjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("list projects: %w", err)
			}
			if activeOnly {
				projects = filterActive(projects)
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects found.")
				return nil
			}

			return writeProjectTable(cmd.OutOrStdout(), projects)
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only list projects shown in the gallery")
	return cmd
}

// writeProjectTable prints one row per project. SIZE is the sum of the
// recorded file sizes.
func writeProjectTable(out io.Writer, projects []project.Project) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tACTIVE\tFILES\tSIZE\tVERSION\tCREATED")
	for i := range projects {
		p := &projects[i]
		var size int64
		for _, e := range p.Files.Entries() {
			size += e.File.Size
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%s\t%d\t%s\n",
			p.ID, p.Name, p.ProjectType, p.IsActive, p.Files.Len(), project.FormatSize(size), p.Version,
			p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func filterActive(projects []project.Project) []project.Project {
	out := projects[:0]
	for i := range projects {
		if projects[i].IsActive {
			out = append(out, projects[i])
		}
	}
	return out
}
