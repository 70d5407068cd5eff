// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package cli's config_ssh.go file implements the commands that manage the
// processing servers reachable over SSH: list, add, edit, remove and import
// from ~/.ssh/config.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"carisbatch/internal/config"
	"carisbatch/internal/runner"

	"github.com/spf13/cobra"
)

// sshCmd is the parent command for SSH host subcommands
var sshCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Manage SSH processing hosts",
	Long: `Add, list, edit, remove, or import the SSH hosts that operations and jobs
can run on with --host.`,
}

var sshListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured SSH hosts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if len(cfg.SSHHosts) == 0 {
			fmt.Println("No SSH hosts configured.")
			return
		}
		statusColor.Println("Configured SSH Hosts:")
		printHosts(os.Stdout, cfg.SSHHosts, cfg.DefaultHost)
	},
}

func printHosts(out io.Writer, hosts []config.SSHHost, defaultHost string) {
	for i, host := range hosts {
		details := fmt.Sprintf("%s@%s", host.User, host.Hostname)
		if host.Port != 0 && host.Port != 22 {
			details += fmt.Sprintf(":%d", host.Port)
		}
		marker := ""
		if host.Name == defaultHost {
			marker = successColor.Sprint(" [default]")
		}
		fmt.Fprintf(out, "%d: %s (%s)%s\n", i+1, identifierColor.Sprint(host.Name), details, marker)
		if host.Tool != "" {
			fmt.Fprintf(out, "   Tool:     %s\n", host.Tool)
		} else {
			fmt.Fprintf(out, "   Tool:     %s\n", dimColor.Sprintf("[Default: %s on PATH]", config.DefaultTool))
		}
		if host.KeyPath != "" {
			fmt.Fprintf(out, "   Key Path: %s\n", host.KeyPath)
		}
		if host.Password != "" {
			fmt.Fprintf(out, "   Password: %s\n", errorColor.Sprint("[set, stored insecurely]"))
		}
		if host.Disabled {
			fmt.Fprintf(out, "   Status:   %s\n", errorColor.Sprint("Disabled"))
		}
	}
}

// promptForNewHostDetails handles the interactive prompts for adding a new host.
func promptForNewHostDetails(existingHosts []config.SSHHost) (config.SSHHost, error) {
	var newHost config.SSHHost
	var err error

	newHost.Name, err = promptString("Unique Name (e.g., 'proc1'):", true)
	if err != nil {
		return newHost, fmt.Errorf("error reading name: %w", err)
	}
	if newHost.Name == runner.LocalTarget {
		return newHost, fmt.Errorf("'%s' is reserved for this machine", runner.LocalTarget)
	}
	if hostIndex(existingHosts, newHost.Name) >= 0 {
		return newHost, fmt.Errorf("SSH host with name '%s' already exists", newHost.Name)
	}

	newHost.Hostname, err = promptString("Hostname or IP Address:", true)
	if err != nil {
		return newHost, fmt.Errorf("error reading hostname: %w", err)
	}

	newHost.User, err = promptString("SSH Username:", true)
	if err != nil {
		return newHost, fmt.Errorf("error reading username: %w", err)
	}

	newHost.Port, err = promptOptionalInt("SSH Port", 22)
	if err != nil {
		return newHost, fmt.Errorf("error reading port: %w", err)
	}
	if newHost.Port == 22 {
		newHost.Port = 0
	}

	newHost.Tool, err = promptString(fmt.Sprintf("carisbatch path on the host (optional, defaults to %s on PATH):", config.DefaultTool), false)
	if err != nil {
		return newHost, fmt.Errorf("error reading tool path: %w", err)
	}

	if err := promptForAuthDetails(&newHost, false, ""); err != nil {
		return newHost, fmt.Errorf("error getting authentication details: %w", err)
	}
	return newHost, nil
}

var sshAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new SSH host interactively",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Adding a new SSH host configuration...")

		newHost, err := promptForNewHostDetails(cfg.SSHHosts)
		if err != nil {
			fail("failed to get host details: %v", err)
		}

		cfg.SSHHosts = append(cfg.SSHHosts, newHost)
		if err := config.SaveConfig(cfg); err != nil {
			fail("failed to save configuration: %v", err)
		}
		successColor.Printf("Successfully added SSH host '%s'.\n", newHost.Name)
	},
}

// promptForEditedHostDetails handles the interactive prompts for editing an existing host.
func promptForEditedHostDetails(original config.SSHHost, allHosts []config.SSHHost, index int) (config.SSHHost, error) {
	edited := original
	var err error

	fmt.Printf("\nEditing SSH host '%s'. Press Enter to keep the current value.\n", identifierColor.Sprint(original.Name))

	if edited.Name, err = promptDefault("Unique Name", original.Name); err != nil {
		return edited, fmt.Errorf("error reading name: %w", err)
	}
	if i := hostIndex(allHosts, edited.Name); i >= 0 && i != index {
		return edited, fmt.Errorf("SSH host with name '%s' already exists", edited.Name)
	}
	if edited.Hostname, err = promptDefault("Hostname or IP Address", original.Hostname); err != nil {
		return edited, fmt.Errorf("error reading hostname: %w", err)
	}
	if edited.User, err = promptDefault("SSH Username", original.User); err != nil {
		return edited, fmt.Errorf("error reading username: %w", err)
	}

	port := original.Port
	if port == 0 {
		port = 22
	}
	if edited.Port, err = promptOptionalInt("SSH Port", port); err != nil {
		return edited, fmt.Errorf("error reading port: %w", err)
	}
	if edited.Port == 22 {
		edited.Port = 0
	}

	if edited.Tool, err = promptDefault("carisbatch path on the host", original.Tool); err != nil {
		return edited, fmt.Errorf("error reading tool path: %w", err)
	}

	if err := promptForAuthDetails(&edited, true, original.Password); err != nil {
		return edited, fmt.Errorf("error getting authentication details: %w", err)
	}

	edited.Disabled, err = promptConfirm(fmt.Sprintf("Disable this host? (Currently: %t)", original.Disabled))
	if err != nil {
		return edited, fmt.Errorf("error reading disable choice: %w", err)
	}
	return edited, nil
}

var sshEditCmd = &cobra.Command{
	Use:               "edit [name]",
	Short:             "Edit an SSH host interactively",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: hostCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		index := selectHost(args, "edit")
		original := cfg.SSHHosts[index]

		edited, err := promptForEditedHostDetails(original, cfg.SSHHosts, index)
		if err != nil {
			fail("failed to get updated host details: %v", err)
		}

		cfg.SSHHosts[index] = edited
		if cfg.DefaultHost == original.Name {
			cfg.DefaultHost = edited.Name
		}
		if err := config.SaveConfig(cfg); err != nil {
			fail("failed to save configuration: %v", err)
		}
		successColor.Printf("Successfully updated SSH host '%s'.\n", edited.Name)
	},
}

var sshRemoveCmd = &cobra.Command{
	Use:               "remove [name]",
	Short:             "Remove an SSH host",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: hostCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		index := selectHost(args, "remove")
		host := cfg.SSHHosts[index]

		confirmed, err := promptConfirm(fmt.Sprintf("Are you sure you want to remove host '%s'?", host.Name))
		if err != nil {
			fail("failed to read confirmation: %v", err)
		}
		if !confirmed {
			fmt.Println("Removal cancelled.")
			return
		}

		cfg.SSHHosts = slices.Delete(cfg.SSHHosts, index, index+1)
		if cfg.DefaultHost == host.Name {
			cfg.DefaultHost = ""
			warningColor.Println("The default host was removed; operations now run locally by default.")
		}
		if err := config.SaveConfig(cfg); err != nil {
			fail("failed to save configuration: %v", err)
		}
		successColor.Printf("Successfully removed SSH host '%s'.\n", host.Name)
	},
}

// selectHost returns the index of the host named in args, or asks for one.
func selectHost(args []string, action string) int {
	if len(cfg.SSHHosts) == 0 {
		fmt.Printf("No SSH hosts configured to %s.\n", action)
		exitWith(0)
	}
	if len(args) == 1 {
		i := hostIndex(cfg.SSHHosts, args[0])
		if i < 0 {
			fail("ssh host '%s' not found in configuration", args[0])
		}
		return i
	}

	fmt.Printf("Select the SSH host to %s:\n", action)
	for i, host := range cfg.SSHHosts {
		fmt.Printf("  %d: %s\n", i+1, identifierColor.Sprint(host.Name))
	}
	choiceStr, err := promptString(fmt.Sprintf("Enter the number of the host to %s:", action), true)
	if err != nil {
		fail("failed to read selection: %v", err)
	}
	choice, err := strconv.Atoi(choiceStr)
	if err != nil || choice < 1 || choice > len(cfg.SSHHosts) {
		fail("invalid selection '%s'", choiceStr)
	}
	return choice - 1
}

func hostIndex(hosts []config.SSHHost, name string) int {
	return slices.IndexFunc(hosts, func(h config.SSHHost) bool { return h.Name == name })
}

// importableHosts drops entries whose alias is already a configured host.
func importableHosts(potential []config.PotentialHost, current []config.SSHHost) []config.PotentialHost {
	var out []config.PotentialHost
	for _, p := range potential {
		if hostIndex(current, p.Alias) < 0 {
			out = append(out, p)
		}
	}
	return out
}

// parseImportSelection turns "1,3" or "all" into entries of importable.
func parseImportSelection(choice string, importable []config.PotentialHost) ([]config.PotentialHost, error) {
	if strings.EqualFold(strings.TrimSpace(choice), "all") {
		return importable, nil
	}
	var selected []config.PotentialHost
	seen := make(map[int]bool)
	for _, part := range strings.Split(choice, ",") {
		index, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || index < 1 || index > len(importable) {
			return nil, fmt.Errorf("invalid selection '%s'. Please enter numbers corresponding to the list", strings.TrimSpace(part))
		}
		if !seen[index] {
			seen[index] = true
			selected = append(selected, importable[index-1])
		}
	}
	return selected, nil
}

var sshImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import hosts from ~/.ssh/config interactively",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		potential, err := config.ParseSSHConfig()
		if err != nil {
			fail("failed to parse ~/.ssh/config: %v", err)
		}
		importable := importableHosts(potential, cfg.SSHHosts)
		if len(importable) == 0 {
			fmt.Println("No new hosts found in ~/.ssh/config to import.")
			return
		}

		fmt.Println("Found hosts in ~/.ssh/config:")
		for i, p := range importable {
			fmt.Printf("  %d: %s (Hostname: %s, User: %s, Port: %d)\n", i+1, identifierColor.Sprint(p.Alias), p.Hostname, p.User, p.Port)
			if p.KeyPath != "" {
				fmt.Printf("     Key: %s\n", p.KeyPath)
			}
		}

		fmt.Println("\nEnter the numbers of the hosts you want to import (comma-separated), or 'all':")
		choice, err := promptString("Import selection:", true)
		if err != nil {
			fail("failed to read selection: %v", err)
		}
		selected, err := parseImportSelection(choice, importable)
		if err != nil {
			fail("%v", err)
		}

		var imported []config.SSHHost
		for _, p := range selected {
			fmt.Printf("\nConfiguring '%s'...\n", identifierColor.Sprint(p.Alias))
			tool, err := promptString(fmt.Sprintf("carisbatch path on the host (optional, defaults to %s on PATH):", config.DefaultTool), false)
			if err != nil {
				fail("failed to read tool path: %v", err)
			}
			host, err := p.ToSSHHost(p.Alias, tool)
			if err != nil {
				errorColor.Fprintf(os.Stderr, "Skipping '%s': %v\n", p.Alias, err)
				continue
			}
			if host.KeyPath == "" {
				fmt.Printf("Host '%s' has no IdentityFile in ssh_config.\n", host.Name)
				if err := promptForAuthDetails(&host, false, ""); err != nil {
					errorColor.Fprintf(os.Stderr, "Skipping '%s': %v\n", p.Alias, err)
					continue
				}
			}
			imported = append(imported, host)
		}

		if len(imported) == 0 {
			fmt.Println("\nNo hosts were imported.")
			return
		}
		cfg.SSHHosts = append(cfg.SSHHosts, imported...)
		if err := config.SaveConfig(cfg); err != nil {
			fail("failed to save configuration: %v", err)
		}
		successColor.Printf("\nSuccessfully imported %d SSH host(s).\n", len(imported))
	},
}

func init() {
	sshCmd.AddCommand(sshListCmd)
	sshCmd.AddCommand(sshAddCmd)
	sshCmd.AddCommand(sshEditCmd)
	sshCmd.AddCommand(sshRemoveCmd)
	sshCmd.AddCommand(sshImportCmd)

	configCmd.AddCommand(sshCmd)
}

// --- Prompts ---

var reader = bufio.NewReader(os.Stdin)

func promptString(prompt string, required bool) (string, error) {
	fmt.Print(prompt + " ")
	input, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	input = strings.TrimSpace(input)
	if required && input == "" {
		return "", fmt.Errorf("input is required")
	}
	return input, nil
}

// promptDefault returns current when the answer is empty.
func promptDefault(label, current string) (string, error) {
	v, err := promptString(fmt.Sprintf("%s [%s]:", label, current), false)
	if err != nil {
		return "", err
	}
	if v == "" {
		return current, nil
	}
	return v, nil
}

func promptOptionalInt(prompt string, defaultValue int) (int, error) {
	input, err := promptString(fmt.Sprintf("%s (default: %d):", prompt, defaultValue), false)
	if err != nil {
		return defaultValue, err
	}
	if input == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(input)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid integer input: %w", err)
	}
	return val, nil
}

func promptConfirm(prompt string) (bool, error) {
	input, err := promptString(prompt+" (y/N):", false)
	if err != nil {
		return false, err
	}
	input = strings.ToLower(input)
	return input == "y" || input == "yes", nil
}

const (
	authKeyFile = iota + 1
	authAgent
	authPassword
)

// promptForAuthDetails asks how to authenticate and fills in the key path or
// password. originalPassword is kept when editing a password host and the
// answer is blank.
func promptForAuthDetails(host *config.SSHHost, isEditing bool, originalPassword string) error {
	current := authAgent
	switch {
	case host.KeyPath != "":
		current = authKeyFile
	case host.Password != "":
		current = authPassword
	}

	fmt.Println("\nAuthentication Method:")
	fmt.Println("  1. SSH Key File")
	fmt.Println("  2. SSH Agent (requires agent running with keys loaded)")
	fmt.Println("  3. Password (stored insecurely in config)")
	choice, err := promptOptionalInt("Choose auth method [1, 2, 3]", current)
	if err != nil || choice < authKeyFile || choice > authPassword {
		fmt.Fprintf(os.Stderr, "Invalid choice, keeping method %d.\n", current)
		choice = current
	}

	keyPath, password := host.KeyPath, originalPassword
	if choice != current {
		keyPath, password = "", ""
	}
	host.KeyPath, host.Password = "", ""

	switch choice {
	case authKeyFile:
		if isEditing && keyPath != "" {
			host.KeyPath, err = promptDefault("Path to Private Key File", keyPath)
		} else {
			host.KeyPath, err = promptString("Path to Private Key File:", true)
		}
		if err != nil {
			return fmt.Errorf("error reading key path: %w", err)
		}
	case authPassword:
		fmt.Println(errorColor.Sprint("Warning: Password will be stored in plaintext in the config file!"))
		required := !(isEditing && password != "")
		prompt := "SSH Password:"
		if !required {
			prompt = "SSH Password (leave blank to keep current):"
		}
		v, err := promptString(prompt, required)
		if err != nil {
			return fmt.Errorf("error reading password: %w", err)
		}
		if v == "" {
			v = password
		}
		host.Password = v
	}
	return nil
}
