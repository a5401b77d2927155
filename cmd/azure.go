package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/azwebapps/azwebapps/internal/azcli"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printNames writes one resource name per line.
func printNames(w io.Writer, resources []azcli.Resource) {
	for _, r := range resources {
		fmt.Fprintln(w, r.Name)
	}
}

// printText writes az text output, adding a trailing newline when missing.
func printText(w io.Writer, s string) {
	if s == "" {
		return
	}
	fmt.Fprint(w, s)
	if s[len(s)-1] != '\n' {
		fmt.Fprintln(w)
	}
}

// listCmd builds a "list" subcommand over a group-scoped resource listing.
func listCmd(app *App, short string, list func(*azcli.Client) ([]azcli.Resource, error)) *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "list",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, err := app.grouped()
			if err != nil {
				return err
			}
			resources, err := list(client)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(app.Stdout, resources)
			}
			printNames(app.Stdout, resources)
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "print full JSON instead of names")
	return c
}

func newLocationsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "Show how region display names map to region names",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			m, err := app.client.Locations()
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(app.Stdout, "%s\t%s\n", k, m[k])
			}
			return nil
		},
	}
}

func newACRCmd(app *App) *cobra.Command {
	acr := &cobra.Command{
		Use:   "acr",
		Short: "Container registries",
	}

	repos := &cobra.Command{
		Use:   "repos <registry>",
		Short: "List repositories in a registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			names, err := app.client.ACRRepos(args[0])
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(app.Stdout, n)
			}
			return nil
		},
	}

	manifests := &cobra.Command{
		Use:   "manifests <registry> <repository>",
		Short: "List image manifests of a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			list, err := app.client.Manifests(args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(app.Stdout, list)
		},
	}

	deleteImage := &cobra.Command{
		Use:   "delete-image <registry> <repository> <digest>",
		Short: "Delete an image manifest by digest",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			out, err := app.client.DeleteACRImage(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			printText(app.Stdout, out)
			return nil
		},
	}

	acr.AddCommand(listCmd(app, "List container registries", (*azcli.Client).ACRs), repos, manifests, deleteImage)
	return acr
}

func newPlanCmd(app *App) *cobra.Command {
	plan := &cobra.Command{
		Use:   "plan",
		Short: "App-service plans",
	}
	plan.AddCommand(listCmd(app, "List app-service plans", (*azcli.Client).Plans))
	return plan
}

func newStorageCmd(app *App) *cobra.Command {
	storage := &cobra.Command{
		Use:   "storage",
		Short: "Storage accounts and file shares",
	}

	keys := &cobra.Command{
		Use:   "keys <account>",
		Short: "List access keys of a storage account",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			client, err := app.grouped()
			if err != nil {
				return err
			}
			list, err := client.StorageKeys(args[0])
			if err != nil {
				return err
			}
			return printJSON(app.Stdout, list)
		},
	}

	shares := &cobra.Command{
		Use:   "shares <account>",
		Short: "List file shares of a storage account",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			list, err := app.client.FileShares(args[0])
			if err != nil {
				return err
			}
			for _, s := range list {
				fmt.Fprintln(app.Stdout, s.Name)
			}
			return nil
		},
	}

	storage.AddCommand(listCmd(app, "List storage accounts", (*azcli.Client).StorageAccounts), keys, shares)
	return storage
}

func newWebappCmd(app *App) *cobra.Command {
	webapp := &cobra.Command{
		Use:   "webapp",
		Short: "Container web apps",
	}

	// named wraps a RunE that needs the group and exactly n positional args.
	named := func(use, short string, n int, run func(*azcli.Client, []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(n),
			RunE: func(_ *cobra.Command, args []string) error {
				client, err := app.grouped()
				if err != nil {
					return err
				}
				return run(client, args)
			},
		}
	}

	mounts := named("mounts <webapp>", "List storage mounts of a web app", 1, func(c *azcli.Client, args []string) error {
		m, err := c.WebappMounts(args[0])
		if err != nil {
			return err
		}
		return printJSON(app.Stdout, m)
	})

	container := named("container <webapp>", "Show container settings of a web app", 1, func(c *azcli.Client, args []string) error {
		settings, err := c.ContainerConfig(args[0])
		if err != nil {
			return err
		}
		return printJSON(app.Stdout, settings)
	})

	create := named("create <webapp> <plan> <image>", "Create a container web app", 3, func(c *azcli.Client, args []string) error {
		r, err := c.CreateWebapp(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return printJSON(app.Stdout, r)
	})

	del := named("delete <webapp>", "Delete a web app", 1, func(c *azcli.Client, args []string) error {
		out, err := c.DeleteWebapp(args[0])
		if err != nil {
			return err
		}
		printText(app.Stdout, out)
		return nil
	})

	setImage := named("set-image <webapp> <image>", "Point a web app at a new container image", 2, func(c *azcli.Client, args []string) error {
		settings, err := c.SetWebappImage(args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(app.Stdout, settings)
	})

	restart := named("restart <webapp>", "Restart a web app", 1, func(c *azcli.Client, args []string) error {
		out, err := c.RestartWebapp(args[0])
		if err != nil {
			return err
		}
		printText(app.Stdout, out)
		return nil
	})

	webapp.AddCommand(
		listCmd(app, "List web apps", (*azcli.Client).Webapps),
		mounts, container, create, del, setImage, restart,
		newMountCmd(app),
	)
	return webapp
}

// newMountCmd attaches a file share, looking up the account key unless one
// is given. Existing mounts with the same custom id are left alone.
func newMountCmd(app *App) *cobra.Command {
	var m azcli.Mount
	c := &cobra.Command{
		Use:   "mount <webapp> <account> <share> <path>",
		Short: "Mount an Azure Files share into a web app",
		Args:  cobra.ExactArgs(4),
		RunE: func(_ *cobra.Command, args []string) error {
			client, err := app.grouped()
			if err != nil {
				return err
			}
			m.Webapp, m.Account, m.Share, m.Path = args[0], args[1], args[2], args[3]
			if m.CustomID == "" {
				m.CustomID = m.Share
			}

			existing, err := client.WebappMounts(m.Webapp)
			if err != nil {
				return err
			}
			if cur, ok := existing[m.CustomID]; ok {
				app.log.Infof("mount %s already present at %s", m.CustomID, cur.MountPath)
				return printJSON(app.Stdout, existing)
			}

			if m.AccessKey == "" {
				keys, err := client.StorageKeys(m.Account)
				if err != nil {
					return err
				}
				if len(keys) == 0 {
					return fmt.Errorf("storage account %s has no access keys", m.Account)
				}
				m.AccessKey = keys[0].Value
			}

			mounts, err := client.MountShare(m)
			if err != nil {
				return err
			}
			return printJSON(app.Stdout, mounts)
		},
	}
	c.Flags().StringVar(&m.CustomID, "custom-id", "", "mount name (default: share name)")
	c.Flags().StringVar(&m.AccessKey, "access-key", "", "storage access key (default: first account key)")
	return c
}
