package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dirstrata/strata/internal/colors"
	"github.com/dirstrata/strata/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get and set configuration options",
	Long: `Get and set strata configuration options.

Configuration can be set at two levels:
- Global (~/.strataconfig) - applies to all repositories
- Repository (.strata/config) - applies to current repository only

Examples:
  strata config                            # Interactive mode
  strata config user.name "Your Name"
  strata config user.email "you@example.com"
  strata config --global user.name "Your Name"
  strata config --list
  strata config core.compress_files`,
	RunE: runConfig,
}

var (
	configGlobal bool
	configList   bool
)

func init() {
	configCmd.Flags().BoolVar(&configGlobal, "global", false, "Use global config file")
	configCmd.Flags().BoolVar(&configList, "list", false, "List all configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configList {
		return listConfig()
	}
	if len(args) == 0 {
		return interactiveConfig()
	}
	if len(args) == 1 {
		return getConfigValue(args[0])
	}
	if len(args) == 2 {
		return setConfigValue(args[0], args[1], configGlobal)
	}
	return fmt.Errorf("invalid usage. See: strata config --help")
}

func listConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println(colors.SectionHeader("User Configuration:"))
	printOrNotSet("user.name", cfg.User.Name)
	printOrNotSet("user.email", cfg.User.Email)

	fmt.Println()
	fmt.Println(colors.SectionHeader("Core Configuration:"))
	printOrNotSet("core.store_dir", cfg.Core.StoreDir)
	printOrNotSet("core.pager", cfg.Core.Pager)
	fmt.Printf("  core.compress_files = %s\n", colors.InfoText(fmt.Sprintf("%t", cfg.Core.CompressFiles)))

	fmt.Println()
	fmt.Println(colors.SectionHeader("Color Configuration:"))
	fmt.Printf("  color.ui = %s\n", colors.InfoText(fmt.Sprintf("%t", cfg.Color.UI)))
	fmt.Printf("  color.status = %s\n", colors.InfoText(fmt.Sprintf("%t", cfg.Color.Status)))

	return nil
}

func printOrNotSet(key, value string) {
	if value != "" {
		fmt.Printf("  %s = %s\n", key, colors.InfoText(value))
	} else {
		fmt.Printf("  %s = %s\n", key, colors.Gray("(not set)"))
	}
}

func getConfigValue(key string) error {
	value, err := config.GetValue(key)
	if err != nil {
		return err
	}
	if value == "" {
		fmt.Printf("%s is %s\n", key, colors.Gray("(not set)"))
	} else {
		fmt.Println(value)
	}
	return nil
}

func setConfigValue(key, value string, global bool) error {
	if err := config.SetValue(key, value, global); err != nil {
		return err
	}

	scope := "repository"
	if global {
		scope = "global"
	}

	fmt.Printf("%s %s config: %s = %s\n",
		colors.SuccessText("Set"),
		scope,
		colors.Bold(key),
		colors.InfoText(value))

	if key == "user.name" || key == "user.email" {
		cfg, _ := config.LoadConfig()
		if cfg.User.Name == "" || cfg.User.Email == "" {
			fmt.Println()
			fmt.Println(colors.Dim("Hint: Make sure to also set:"))
			if cfg.User.Name == "" {
				fmt.Printf("  %s\n", colors.InfoText(`strata config user.name "Your Name"`))
			}
			if cfg.User.Email == "" {
				fmt.Printf("  %s\n", colors.InfoText(`strata config user.email "you@example.com"`))
			}
		}
	}

	return nil
}

// interactiveConfig runs an interactive configuration session.
func interactiveConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println(colors.SectionHeader("Interactive Configuration"))
	fmt.Println()

	currentName := cfg.User.Name
	if currentName == "" {
		currentName = "not set"
	}
	fmt.Printf("Username (%s)> ", colors.Dim(currentName))
	userName, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	if userName = strings.TrimSpace(userName); userName != "" {
		cfg.User.Name = userName
	}

	currentEmail := cfg.User.Email
	if currentEmail == "" {
		currentEmail = "not set"
	}
	fmt.Printf("Email (%s)> ", colors.Dim(currentEmail))
	userEmail, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	if userEmail = strings.TrimSpace(userEmail); userEmail != "" {
		cfg.User.Email = userEmail
	}

	fmt.Printf("Scope (global/local) [%s]> ", colors.Dim("global"))
	scopeInput, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read scope: %w", err)
	}
	scopeInput = strings.TrimSpace(strings.ToLower(scopeInput))

	isGlobal := true
	if scopeInput == "local" || scopeInput == "l" {
		isGlobal = false
	} else if scopeInput != "" && scopeInput != "global" && scopeInput != "g" {
		fmt.Printf("%s Invalid scope '%s', using global\n", colors.Yellow("Warning:"), scopeInput)
	}

	var saveErr error
	if isGlobal {
		saveErr = config.SaveGlobalConfig(cfg)
	} else {
		saveErr = config.SaveRepoConfig(cfg)
	}
	if saveErr != nil {
		return fmt.Errorf("failed to save config: %w", saveErr)
	}

	fmt.Println()
	fmt.Println(colors.SuccessText("Config saved!"))
	fmt.Println()

	scope := "global"
	if !isGlobal {
		scope = "local"
	}
	fmt.Printf("  Scope: %s\n", colors.InfoText(scope))
	if cfg.User.Name != "" {
		fmt.Printf("  Username: %s\n", colors.InfoText(cfg.User.Name))
	}
	if cfg.User.Email != "" {
		fmt.Printf("  Email: %s\n", colors.InfoText(cfg.User.Email))
	}

	return nil
}
