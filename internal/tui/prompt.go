package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(confirm))

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}

// Credentials is the result of the login form
type Credentials struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// PromptForCredentials asks for whatever is missing from c. With register
// set it also asks for a name and a role.
func PromptForCredentials(c Credentials, register bool, roles []string) (Credentials, error) {
	var fields []huh.Field

	if register && c.Name == "" {
		fields = append(fields, huh.NewInput().Title("Name").Value(&c.Name).Validate(required("name")))
	}
	if c.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&c.Email).Validate(required("email")))
	}
	if c.Password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&c.Password).Validate(required("password")))
	}
	if register && c.Role == "" && len(roles) > 0 {
		opts := make([]huh.Option[string], len(roles))
		for i, r := range roles {
			opts[i] = huh.NewOption(r, r)
		}
		fields = append(fields, huh.NewSelect[string]().Title("I am a").Options(opts...).Value(&c.Role))
	}

	if len(fields) == 0 {
		return c, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return Credentials{}, fmt.Errorf("prompt failed: %w", err)
	}
	return c, nil
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
