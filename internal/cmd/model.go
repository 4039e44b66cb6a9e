package cmd

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

//go:embed modelTemplate.txt
var modelTemplate string

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Scaffold new models.",
	Long:  "`model --create [ModelName]` creates a new models/<name> package.",
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("create")
		if name == "" {
			fmt.Println("Action not valid.")
			return
		}

		if err := createModelPackage(name); err != nil {
			log.WithError(err).Fatal("failed to create model")
		}

		fmt.Printf("Model '%s' created successfully in models/%s.\n", name, name)
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.Flags().String("create", "", "Create a new model package")
}

func createModelPackage(name string) error {
	dir := filepath.Join("models", name)

	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("folder %q already exists", dir)
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	content := strings.ReplaceAll(modelTemplate, "{{packageName}}", name)
	content = strings.ReplaceAll(content, "{{ModelName}}", exportedName(name))

	path := filepath.Join(dir, name+".go")
	return os.WriteFile(path, []byte(content), 0o644)
}

func exportedName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
