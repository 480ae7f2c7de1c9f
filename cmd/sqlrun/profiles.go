package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/config"
)

type cmdProfiles struct {
	global *cmdGlobal

	flagName       string
	flagSetDefault bool
}

func (c *cmdProfiles) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage saved connection profiles",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		RunE:  c.list,
	}
	cmd.AddCommand(listCmd)

	addCmd := &cobra.Command{
		Use:   "add <dsn>",
		Short: "Save a connection profile from a DSN",
		Args:  cobra.ExactArgs(1),
		RunE:  c.add,
	}
	addCmd.Flags().StringVar(&c.flagName, "name", "", "Profile name, derived from the DSN when empty")
	addCmd.Flags().BoolVar(&c.flagSetDefault, "default", false, "Make this the default profile")
	cmd.AddCommand(addCmd)

	passwordCmd := &cobra.Command{
		Use:   "set-password <profile>",
		Short: "Store a profile password in the OS credential store",
		Args:  cobra.ExactArgs(1),
		RunE:  c.setPassword,
	}
	cmd.AddCommand(passwordCmd)

	return cmd
}

func (c *cmdProfiles) list(cmd *cobra.Command, args []string) error {
	cfg := c.global.cfg

	rows := make([][]string, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		def := ""
		if p.Name == cfg.Preferences.DefaultProfile {
			def = "yes"
		}
		driver := p.Driver
		if driver == "" {
			driver = "postgres"
		}
		rows = append(rows, []string{p.Name, driver, p.DisplayString(), def})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Name", "Driver", "Connection", "Default"})
	table.AppendBulk(rows)
	table.Render()
	return nil
}

func (c *cmdProfiles) add(cmd *cobra.Command, args []string) error {
	p, err := config.ParseDSN(args[0])
	if err != nil {
		return err
	}
	if c.flagName != "" {
		p.Name = c.flagName
	}

	cfg := c.global.cfg
	if cfg.HasProfile(p.Name) {
		return fmt.Errorf("profile %q already exists", p.Name)
	}

	// Passwords go to the credential store, never the config file.
	if p.Password != "" {
		if err := config.StorePassword(p.Name, p.Password); err != nil {
			return err
		}
		p.Password = ""
	}

	cfg.AddProfile(p)
	if c.flagSetDefault || len(cfg.Profiles) == 1 {
		cfg.Preferences.DefaultProfile = p.Name
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q\n", p.Name)
	return nil
}

func (c *cmdProfiles) setPassword(cmd *cobra.Command, args []string) error {
	name := args[0]
	if !c.global.cfg.HasProfile(name) {
		return fmt.Errorf("profile %q not found", name)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Password for %s: ", name)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if err := config.StorePassword(name, password); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Password stored for %q\n", name)
	return nil
}
